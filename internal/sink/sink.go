// Package sink delivers reassembled images and node telemetry to storage and notification backends.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autopeer-io/camlink/internal/pkg/metrics"
	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/internal/transport"
	"github.com/autopeer-io/camlink/pkg/log"
)

// DefaultDeliveryTimeout bounds one image's trip through every sink.
const DefaultDeliveryTimeout = 30 * time.Second

// Sink stores or announces one image.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, img *transport.Image) error
}

// HeaderObserver is implemented by sinks that also record every header, placeholders included.
type HeaderObserver interface {
	ObserveHeader(ctx context.Context, src protocol.MAC, h protocol.Header) error
}

// Closer is implemented by sinks holding a connection.
type Closer interface {
	Close(ctx context.Context) error
}

// Multi fans one image out to every sink in order. A storage sink listed before a
// notification sink lets the notification carry the published URL.
type Multi struct {
	sinks []Sink
	log   log.Logger
}

func NewMulti(logger log.Logger, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, log: log.OrStd(logger).WithName("sink")}
}

func (m *Multi) Name() string { return "multi" }

// Len returns the number of configured sinks.
func (m *Multi) Len() int { return len(m.sinks) }

// Deliver calls every sink even when one fails, and returns the joined failures.
func (m *Multi) Deliver(ctx context.Context, img *transport.Image) error {
	var errs []error
	for _, s := range m.sinks {
		start := time.Now()
		err := s.Deliver(ctx, img)
		metrics.SinkLatency.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.SinkDeliveries.WithLabelValues(s.Name(), "failed").Inc()
			m.log.Error(err, "Sink delivery failed", "sink", s.Name(), "src", img.Source, "size", len(img.Data))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		metrics.SinkDeliveries.WithLabelValues(s.Name(), "ok").Inc()
	}
	return errors.Join(errs...)
}

// ObserveHeader forwards h to every sink that records headers.
func (m *Multi) ObserveHeader(ctx context.Context, src protocol.MAC, h protocol.Header) error {
	var errs []error
	for _, s := range m.sinks {
		o, ok := s.(HeaderObserver)
		if !ok {
			continue
		}
		if err := o.ObserveHeader(ctx, src, h); err != nil {
			m.log.Warn("Header telemetry failed", "sink", s.Name(), "src", src, "reason", err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink holding a connection.
func (m *Multi) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(Closer); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Consume drains q into the sinks until ctx is done. Each image gets its own timeout,
// so a stuck backend delays the queue but never the receiver.
func (m *Multi) Consume(ctx context.Context, q *transport.Queue, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	m.log.Info("Image consumer started", "sinks", m.Len(), "capacity", q.Cap())

	for {
		img, err := q.Get(ctx)
		if err != nil {
			m.log.Info("Image consumer stopped", "pending", q.Len())
			return nil
		}
		metrics.QueueDepth.Set(float64(q.Len()))

		dctx, cancel := context.WithTimeout(ctx, timeout)
		_ = m.Deliver(dctx, img)
		cancel()
	}
}
