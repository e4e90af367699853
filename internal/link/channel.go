package link

import (
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/pkg/log"
)

// Channel turns the asynchronous radio send into a synchronous call with one frame in flight.
type Channel struct {
	radio Radio
	clock clock.Clock
	log   log.Logger

	// slot is held by the caller currently sending.
	slot chan struct{}
	// done carries the next completion from the driver.
	done chan bool
	// inflight is true while a queued frame has not reported back. Guarded by slot.
	inflight bool
}

type ChannelOption func(*Channel)

func WithClock(c clock.Clock) ChannelOption {
	return func(ch *Channel) { ch.clock = c }
}

func WithLogger(l log.Logger) ChannelOption {
	return func(ch *Channel) { ch.log = l }
}

// NewChannel takes over the radio's send callback.
func NewChannel(r Radio, opts ...ChannelOption) *Channel {
	c := &Channel{
		radio: r,
		clock: clock.RealClock{},
		slot:  make(chan struct{}, 1),
		done:  make(chan bool, 1),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = log.OrStd(c.log).WithName("link")

	r.OnSent(c.complete)
	return c
}

// complete runs on the driver goroutine and never blocks.
func (c *Channel) complete(dst protocol.MAC, ok bool) {
	select {
	case c.done <- ok:
	default:
		c.log.Warn("Dropping unexpected send completion", "dst", dst, "ok", ok)
	}
}

// Send transmits one frame to dst and waits for the driver's verdict. Each of the two
// waits, for the previous frame and for this one, is bounded by timeout.
func (c *Channel) Send(dst protocol.MAC, data []byte, timeout time.Duration) error {
	if err := c.acquire(timeout); err != nil {
		return fmt.Errorf("%w: another send is in progress", ErrSendTimeout)
	}
	defer func() { <-c.slot }()

	if c.inflight {
		if _, err := c.waitDone(timeout); err != nil {
			return fmt.Errorf("%w: previous frame still in flight", err)
		}
	}

	// A completion nobody waited for belongs to no frame.
	select {
	case <-c.done:
	default:
	}

	c.inflight = true
	if err := c.radio.Send(dst, data); err != nil {
		c.inflight = false
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	ok, err := c.waitDone(timeout)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSendFailedCallback
	}
	return nil
}

func (c *Channel) waitDone(timeout time.Duration) (bool, error) {
	t := c.clock.NewTimer(timeout)
	defer t.Stop()

	select {
	case ok := <-c.done:
		c.inflight = false
		return ok, nil
	case <-t.C():
		return false, ErrSendTimeout
	}
}

func (c *Channel) acquire(timeout time.Duration) error {
	select {
	case c.slot <- struct{}{}:
		return nil
	default:
	}

	t := c.clock.NewTimer(timeout)
	defer t.Stop()
	select {
	case c.slot <- struct{}{}:
		return nil
	case <-t.C():
		return ErrSendTimeout
	}
}
