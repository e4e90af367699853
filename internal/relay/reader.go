package relay

import (
	"context"
	"errors"
	"io"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/camlink/internal/pkg/metrics"
	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/pkg/log"
)

const (
	// DefaultRetry is the pause between attempts to reopen a lost port.
	DefaultRetry = 5 * time.Second

	readBufferSize = 1024
)

// Handler receives every decoded envelope, in stream order.
type Handler func(env protocol.Envelope)

// Reader decodes envelopes from a byte stream and reopens the stream when it is lost.
type Reader struct {
	open   Opener
	handle Handler
	retry  time.Duration
	clock  clock.PassiveClock
	log    log.Logger
}

type ReaderOption func(*Reader)

func WithRetry(d time.Duration) ReaderOption {
	return func(r *Reader) { r.retry = d }
}

// WithReaderClock sets the clock of the partial frame timeout.
func WithReaderClock(c clock.PassiveClock) ReaderOption {
	return func(r *Reader) { r.clock = c }
}

func WithReaderLogger(l log.Logger) ReaderOption {
	return func(r *Reader) { r.log = l }
}

func NewReader(open Opener, handle Handler, opts ...ReaderOption) *Reader {
	r := &Reader{
		open:   open,
		handle: handle,
		retry:  DefaultRetry,
		clock:  clock.RealClock{},
	}
	for _, o := range opts {
		o(r)
	}
	r.log = log.OrStd(r.log).WithName("relay-reader")
	return r
}

// Run reads until ctx is done, reconnecting after every failure.
func (r *Reader) Run(ctx context.Context) error {
	wait.UntilWithContext(ctx, r.connect, r.retry)
	return nil
}

func (r *Reader) connect(ctx context.Context) {
	port, err := r.open()
	if err != nil {
		r.log.Error(err, "Cannot open relay port", "retry", r.retry)
		return
	}
	// Closing the port is the only way to interrupt a blocked Read.
	stop := context.AfterFunc(ctx, func() { _ = port.Close() })
	defer func() {
		if stop() {
			_ = port.Close()
		}
	}()

	r.log.Info("Relay port connected")
	err = r.drain(port)
	if ctx.Err() != nil {
		return
	}
	r.log.Error(err, "Relay port lost", "retry", r.retry)
}

// drain feeds one connection through a fresh decoder until the stream fails.
func (r *Reader) drain(port io.Reader) error {
	dec := protocol.NewDecoder(protocol.WithDecoderClock(r.clock), protocol.WithDecoderLogger(r.log))
	buf := make([]byte, readBufferSize)

	for {
		n, err := port.Read(buf)
		if n > 0 || errors.Is(err, io.EOF) {
			// A serial read timeout surfaces as an empty EOF read. Feeding nothing still ages partial frames.
			r.feed(dec, buf[:n])
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
}

func (r *Reader) feed(dec *protocol.Decoder, p []byte) {
	before := dec.Stats()
	envs := dec.Feed(p)
	after := dec.Stats()

	if d := after.Rejected - before.Rejected; d > 0 {
		metrics.RelayFrames.WithLabelValues("in", "rejected").Add(float64(d))
	}
	if d := after.TimedOut - before.TimedOut; d > 0 {
		metrics.RelayFrames.WithLabelValues("in", "timeout").Add(float64(d))
	}
	for _, env := range envs {
		metrics.RelayFrames.WithLabelValues("in", "ok").Inc()
		r.handle(env)
	}
}
