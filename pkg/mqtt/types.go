package mqtt

import (
	"context"
)

// Client publishes to one broker. Receiver services only publish, so there is no subscribe side.
type Client interface {
	// Start begins connecting in the background and returns immediately. Use AwaitConnection to wait.
	// The connection lives as long as ctx.
	Start(ctx context.Context) error

	// Disconnect sends DISCONNECT, so the broker drops the will.
	Disconnect(ctx context.Context)

	// Publish blocks until the broker acknowledges a QoS 1 or 2 message, or ctx ends.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// AwaitConnection blocks until the client is connected to the broker.
	AwaitConnection(ctx context.Context) error

	// IsConnected returns true if the client is currently connected.
	IsConnected() bool
}
