package publisher

import (
	"context"
	"encoding/base64"

	"github.com/redis/go-redis/v9"

	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

// RedisPublisher appends alerts to a single Redis stream, trimming it to an
// approximate maximum length on every add.
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, stream string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: streamMaxLength,
	}
}

// Publish adds the base64-encoded message to the stream under field key.
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}
	if p.streamMaxLength > 0 {
		args.MaxLen = int64(p.streamMaxLength)
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return apperrors.NewPublisher("redis", "xadd "+p.stream, err)
	}
	return nil
}

// Ping checks the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) Name() string { return "redis" }

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
