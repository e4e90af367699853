package link_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/autopeer-io/camlink/internal/link"
	"github.com/autopeer-io/camlink/internal/link/linktest"
	"github.com/autopeer-io/camlink/internal/protocol"
)

var (
	nodeMAC    = protocol.MustParseMAC("34:ab:95:fa:3a:6c")
	gatewayMAC = protocol.MustParseMAC("aa:bb:cc:dd:ee:ff")
)

func TestChannelSendOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		outcome linktest.Outcome
		wantErr error
	}{
		{"delivered", linktest.Deliver, nil},
		{"lost but acknowledged", linktest.Lose, nil},
		{"queue rejected", linktest.RejectQueue, link.ErrSendFailed},
		{"callback failure", linktest.FailCallback, link.ErrSendFailedCallback},
		{"no callback", linktest.Silent, link.ErrSendTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := linktest.NewRadio(nodeMAC)
			r.Script = func(int, linktest.Frame) linktest.Outcome { return tt.outcome }
			defer r.Close()

			ch := link.NewChannel(r)
			err := ch.Send(gatewayMAC, []byte("frame"), 50*time.Millisecond)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Send() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChannelErrorsAreDistinct(t *testing.T) {
	for _, pair := range [][2]error{
		{link.ErrSendFailed, link.ErrSendFailedCallback},
		{link.ErrSendFailed, link.ErrSendTimeout},
		{link.ErrSendFailedCallback, link.ErrSendTimeout},
	} {
		if errors.Is(pair[0], pair[1]) {
			t.Errorf("%v should not match %v", pair[0], pair[1])
		}
	}
}

func TestChannelPreviousFrameStillInFlight(t *testing.T) {
	r := linktest.NewRadio(nodeMAC)
	r.Script = func(i int, _ linktest.Frame) linktest.Outcome {
		if i == 0 {
			return linktest.Silent
		}
		return linktest.Deliver
	}
	defer r.Close()

	ch := link.NewChannel(r)
	if err := ch.Send(gatewayMAC, []byte("first"), 20*time.Millisecond); !errors.Is(err, link.ErrSendTimeout) {
		t.Fatalf("first Send() error = %v, want timeout", err)
	}

	// The first frame never completes, so the next send cannot start.
	if err := ch.Send(gatewayMAC, []byte("second"), 20*time.Millisecond); !errors.Is(err, link.ErrSendTimeout) {
		t.Fatalf("second Send() error = %v, want timeout", err)
	}
	if got := len(r.Sent()); got != 1 {
		t.Errorf("radio saw %d frames, want 1", got)
	}
}

func TestChannelLateCompletionReleasesLink(t *testing.T) {
	r := linktest.NewRadio(nodeMAC)
	r.Script = func(i int, _ linktest.Frame) linktest.Outcome {
		if i == 0 {
			return linktest.Silent
		}
		return linktest.Deliver
	}
	defer r.Close()

	var late link.SendCallback
	ch := link.NewChannel(&capturingRadio{Radio: r, capture: &late})

	if err := ch.Send(gatewayMAC, []byte("first"), 20*time.Millisecond); !errors.Is(err, link.ErrSendTimeout) {
		t.Fatalf("first Send() error = %v", err)
	}

	// The driver finally reports the first frame.
	late(gatewayMAC, true)

	if err := ch.Send(gatewayMAC, []byte("second"), 50*time.Millisecond); err != nil {
		t.Fatalf("second Send() error = %v", err)
	}
}

func TestChannelOneFrameInFlight(t *testing.T) {
	r := linktest.NewRadio(nodeMAC)
	defer r.Close()

	var (
		mu       sync.Mutex
		inflight int
		peak     int
	)
	r.Script = func(int, linktest.Frame) linktest.Outcome {
		mu.Lock()
		inflight++
		peak = max(peak, inflight)
		mu.Unlock()
		return linktest.Deliver
	}

	ch := link.NewChannel(&countingRadio{Radio: r, onDone: func() {
		mu.Lock()
		inflight--
		mu.Unlock()
	}})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ch.Send(gatewayMAC, []byte("x"), time.Second)
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak in-flight frames = %d, want 1", peak)
	}
	if got := len(r.Sent()); got != 8 {
		t.Errorf("sent %d frames, want 8", got)
	}
}

// capturingRadio keeps a handle on the completion callback so a test can fire it late.
type capturingRadio struct {
	*linktest.Radio
	capture *link.SendCallback
}

func (c *capturingRadio) OnSent(cb link.SendCallback) {
	*c.capture = cb
	c.Radio.OnSent(cb)
}

// countingRadio observes completions before the channel does.
type countingRadio struct {
	*linktest.Radio
	onDone func()
}

func (c *countingRadio) OnSent(cb link.SendCallback) {
	c.Radio.OnSent(func(dst protocol.MAC, ok bool) {
		c.onDone()
		cb(dst, ok)
	})
}
