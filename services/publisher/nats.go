package publisher

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

const flushTimeout = 5 * time.Second

// NATSPublisher publishes alerts on one subject; the key travels in the
// Alert-Key header.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("auctionwatcher"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, apperrors.NewPublisher("nats", "connect "+url, err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, key string, message []byte) error {
	msg := nats.NewMsg(p.subject)
	msg.Header.Set("Alert-Key", key)
	msg.Data = message
	if err := p.conn.PublishMsg(msg); err != nil {
		return apperrors.NewPublisher("nats", "publish "+p.subject, err)
	}

	// FlushWithContext rejects contexts without a deadline.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return apperrors.NewPublisher("nats", "flush "+p.subject, err)
	}
	return nil
}

func (p *NATSPublisher) Name() string { return "nats" }

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
