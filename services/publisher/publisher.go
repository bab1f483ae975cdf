package publisher

import "context"

// Publisher delivers alert payloads to an external message system.
type Publisher interface {
	// Publish sends message under key. Delivery is best-effort.
	Publish(ctx context.Context, key string, message []byte) error

	// Name identifies the backend in logs and metrics.
	Name() string

	// Close releases the connection.
	Close() error
}
