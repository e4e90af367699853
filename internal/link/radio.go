package link

import (
	"github.com/autopeer-io/camlink/internal/protocol"
)

// SendCallback reports the outcome of one queued frame. Drivers call it from their own goroutine.
type SendCallback func(dst protocol.MAC, ok bool)

// ReceiveCallback delivers one inbound frame. The slice is owned by the callee.
type ReceiveCallback func(src protocol.MAC, data []byte)

// Radio is the connectionless peer-to-peer driver boundary.
type Radio interface {
	// LocalMAC returns the address frames are sent from.
	LocalMAC() protocol.MAC

	// Send queues one frame for dst. A nil error only means the driver accepted the frame;
	// the delivery outcome arrives through the SendCallback.
	Send(dst protocol.MAC, data []byte) error

	// OnSent registers the completion callback.
	OnSent(cb SendCallback)

	// OnReceive registers the inbound frame callback.
	OnReceive(cb ReceiveCallback)

	// Close stops the driver. Pending frames are dropped.
	Close() error
}
