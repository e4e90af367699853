// Package linktest provides an in-memory radio for tests.
package linktest

import (
	"errors"
	"sync"

	"github.com/autopeer-io/camlink/internal/link"
	"github.com/autopeer-io/camlink/internal/protocol"
)

// Outcome decides what happens to one sent frame.
type Outcome int

const (
	// Deliver acknowledges the frame and hands it to the connected peer.
	Deliver Outcome = iota
	// Lose acknowledges the frame but never delivers it, like an unacknowledged broadcast.
	Lose
	// RejectQueue makes Send fail synchronously.
	RejectQueue
	// FailCallback reports a failed delivery through the callback.
	FailCallback
	// Silent never calls back.
	Silent
)

// ErrRejected is returned by Send for RejectQueue outcomes.
var ErrRejected = errors.New("linktest: frame rejected")

// Frame is one recorded transmission.
type Frame struct {
	Dst  protocol.MAC
	Data []byte
}

// Radio is a link.Radio that records every frame. Callbacks run on their own goroutine.
type Radio struct {
	mac protocol.MAC

	mu     sync.Mutex
	sent   []Frame
	peer   *Radio
	onSent link.SendCallback
	onRecv link.ReceiveCallback
	// Script picks the outcome for the i-th sent frame. Nil means Deliver.
	Script func(i int, f Frame) Outcome

	wg sync.WaitGroup
}

var _ link.Radio = (*Radio)(nil)

func NewRadio(mac protocol.MAC) *Radio {
	return &Radio{mac: mac}
}

// Connect makes frames sent by a arrive at b.
func Connect(a, b *Radio) {
	a.mu.Lock()
	a.peer = b
	a.mu.Unlock()
}

func (r *Radio) LocalMAC() protocol.MAC { return r.mac }

func (r *Radio) OnSent(cb link.SendCallback) {
	r.mu.Lock()
	r.onSent = cb
	r.mu.Unlock()
}

func (r *Radio) OnReceive(cb link.ReceiveCallback) {
	r.mu.Lock()
	r.onRecv = cb
	r.mu.Unlock()
}

func (r *Radio) Send(dst protocol.MAC, data []byte) error {
	f := Frame{Dst: dst, Data: append([]byte(nil), data...)}

	r.mu.Lock()
	i := len(r.sent)
	outcome := Deliver
	if r.Script != nil {
		outcome = r.Script(i, f)
	}
	if outcome == RejectQueue {
		r.mu.Unlock()
		return ErrRejected
	}
	r.sent = append(r.sent, f)
	peer, cb := r.peer, r.onSent
	r.mu.Unlock()

	if outcome == Deliver && peer != nil {
		peer.Inject(r.mac, f.Data)
	}
	if outcome == Silent || cb == nil {
		return nil
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		cb(dst, outcome != FailCallback)
	}()
	return nil
}

// Inject delivers a frame as if it had arrived over the air. It runs the receive callback synchronously.
func (r *Radio) Inject(src protocol.MAC, data []byte) {
	r.mu.Lock()
	cb := r.onRecv
	r.mu.Unlock()
	if cb != nil {
		cb(src, append([]byte(nil), data...))
	}
}

// Sent returns a copy of the transmission log.
func (r *Radio) Sent() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.sent...)
}

// Close waits for outstanding callbacks.
func (r *Radio) Close() error {
	r.wg.Wait()
	return nil
}
