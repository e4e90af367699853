// Package receiver runs the reassembly side shared by the gateway and the ingest service:
// the session table, the delivery queue, the sinks, header telemetry and stale session expiry.
package receiver

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/camlink/internal/pkg/metrics"
	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/internal/sink"
	"github.com/autopeer-io/camlink/internal/transport"
	"github.com/autopeer-io/camlink/pkg/log"
	"github.com/autopeer-io/camlink/pkg/options"
)

const (
	// DefaultTelemetryDepth bounds headers waiting for the sinks.
	DefaultTelemetryDepth = 64

	closeTimeout    = 5 * time.Second
	minReapInterval = 500 * time.Millisecond
)

// Input is a goroutine that feeds frames into the table, or serves alongside it.
// It returns when ctx is done.
type Input func(ctx context.Context) error

type headerEvent struct {
	src    protocol.MAC
	header protocol.Header
}

type Receiver struct {
	table        *transport.SessionTable
	queue        *transport.Queue
	sinks        *sink.Multi
	headers      chan headerEvent
	imageTimeout time.Duration
	clock        clock.WithTicker
	log          log.Logger
}

type Option func(*Receiver)

func WithClock(c clock.WithTicker) Option {
	return func(r *Receiver) { r.clock = c }
}

func WithLogger(l log.Logger) Option {
	return func(r *Receiver) { r.log = l }
}

// New builds the table from opts. Finished images go to sinks.
func New(opts *options.SessionOptions, sinks *sink.Multi, ro ...Option) *Receiver {
	r := &Receiver{
		queue:        transport.NewQueue(opts.QueueSize),
		sinks:        sinks,
		headers:      make(chan headerEvent, DefaultTelemetryDepth),
		imageTimeout: opts.ImageTimeout,
		clock:        clock.RealClock{},
	}
	for _, o := range ro {
		o(r)
	}
	r.log = log.OrStd(r.log).WithName("receiver")

	topts := append(opts.TableOptions(),
		transport.WithHeaderHook(r.observeHeader),
		transport.WithSessionClock(r.clock),
		transport.WithSessionLogger(r.log),
	)
	r.table = transport.NewSessionTable(r.queue, topts...)
	return r
}

// Table is where inputs apply frames.
func (r *Receiver) Table() *transport.SessionTable { return r.table }

// Run serves until ctx is done or an input fails, then closes the sinks.
func (r *Receiver) Run(ctx context.Context, inputs ...Input) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return r.sinks.Consume(ctx, r.queue, sink.DefaultDeliveryTimeout) })
	g.Go(func() error { return r.pumpHeaders(ctx) })
	g.Go(func() error { return r.expire(ctx) })
	for _, in := range inputs {
		g.Go(func() error { return in(ctx) })
	}

	r.log.Info("Receiver started", "sinks", r.sinks.Len(), "queue", r.queue.Cap(), "image-timeout", r.imageTimeout)
	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if cerr := r.sinks.Close(closeCtx); cerr != nil {
		r.log.Error(cerr, "Closing sinks failed")
	}
	r.log.Info("Receiver stopped")
	return err
}

// observeHeader runs under the radio or relay goroutine and must not block.
func (r *Receiver) observeHeader(src protocol.MAC, h protocol.Header) {
	metrics.NodeVoltage.WithLabelValues(src.String()).Set(float64(h.Voltage))
	select {
	case r.headers <- headerEvent{src: src, header: h}:
	default:
		r.log.Warn("Telemetry backlog full, dropping header", "src", src)
	}
}

func (r *Receiver) pumpHeaders(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-r.headers:
			hctx, cancel := context.WithTimeout(ctx, sink.DefaultDeliveryTimeout)
			if err := r.sinks.ObserveHeader(hctx, ev.src, ev.header); err != nil {
				r.log.Error(err, "Header telemetry failed", "src", ev.src)
			}
			cancel()
		}
	}
}

// reapInterval is half the image timeout, never below minReapInterval.
func reapInterval(timeout time.Duration) time.Duration {
	return max(timeout/2, minReapInterval)
}

// expire discards stale transfers. A transfer is gone at most 1.5 image timeouts after its last frame.
func (r *Receiver) expire(ctx context.Context) error {
	t := r.clock.NewTicker(reapInterval(r.imageTimeout))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C():
			if n := r.table.Expire(r.imageTimeout); n > 0 {
				r.log.Info("Discarded stale transfers", "count", n)
			}
		}
	}
}
