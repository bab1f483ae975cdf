package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSPublisher(t *testing.T) {
	publisher, err := NewNATSPublisher(nats.DefaultURL, "test.auction.alerts")
	if err != nil {
		t.Skip("NATS is not available, skipping test")
	}
	defer publisher.Close()

	conn, err := nats.Connect(nats.DefaultURL)
	require.NoError(t, err)
	defer conn.Close()

	sub, err := conn.SubscribeSync("test.auction.alerts")
	require.NoError(t, err)
	require.NoError(t, conn.Flush())

	require.NoError(t, publisher.Publish(context.Background(), "urgent", []byte(`{"items":1}`)))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, `{"items":1}`, string(msg.Data))
	assert.Equal(t, "urgent", msg.Header.Get("Alert-Key"))
}
