package link

import "errors"

var (
	// ErrSendTimeout means a completion did not arrive in time, either for the previous frame or for this one.
	ErrSendTimeout = errors.New("link: send timeout")
	// ErrSendFailed means the driver refused to queue the frame.
	ErrSendFailed = errors.New("link: send failed")
	// ErrSendFailedCallback means the driver queued the frame but reported a failed delivery.
	ErrSendFailedCallback = errors.New("link: send failed in callback")

	ErrPayloadTooLarge = errors.New("link: payload exceeds mtu")
	ErrQueueFull       = errors.New("link: driver queue full")
	ErrClosed          = errors.New("link: radio closed")
)
