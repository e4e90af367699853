package relay

import (
	"context"
	"io"

	"github.com/autopeer-io/camlink/internal/pkg/metrics"
	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/pkg/log"
)

// DefaultWriterDepth is the number of envelopes that may wait for the port.
const DefaultWriterDepth = 256

// Writer wraps radio frames in envelopes and writes them to a byte stream.
// Forward is called from the radio goroutine; a single Run goroutine owns the stream.
type Writer struct {
	w          io.Writer
	classifier protocol.Classifier
	seq        *protocol.Sequencer
	frames     chan []byte
	log        log.Logger
}

type WriterOption func(*Writer)

// WithWriterDepth bounds the envelopes waiting for the stream.
func WithWriterDepth(n int) WriterOption {
	return func(w *Writer) { w.frames = make(chan []byte, n) }
}

// WithWriterTerminators sets the terminators used to classify raw frames.
func WithWriterTerminators(terms ...string) WriterOption {
	return func(w *Writer) { w.classifier = protocol.NewClassifier(terms...) }
}

func WithWriterLogger(l log.Logger) WriterOption {
	return func(w *Writer) { w.log = l }
}

func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	rw := &Writer{
		w:          w,
		classifier: protocol.NewClassifier(),
		seq:        protocol.NewSequencer(),
	}
	for _, o := range opts {
		o(rw)
	}
	if rw.frames == nil {
		rw.frames = make(chan []byte, DefaultWriterDepth)
	}
	rw.log = log.OrStd(rw.log).WithName("relay-writer")
	return rw
}

// Forward classifies and wraps one radio frame from src and queues it. It never blocks.
func (w *Writer) Forward(src protocol.MAC, data []byte) {
	kind := w.classifier.Classify(data)
	env := protocol.Envelope{
		MAC:     src,
		Kind:    kind,
		Seq:     w.seq.Next(src, kind),
		Payload: data,
	}
	b, err := env.MarshalBinary()
	if err != nil {
		w.log.Warn("Cannot wrap frame for relay", "src", src, "size", len(data), "reason", err.Error())
		metrics.RelayFrames.WithLabelValues("out", "rejected").Inc()
		return
	}

	select {
	case w.frames <- b:
	default:
		w.log.Warn("Relay backlog full, dropping frame", "src", src, "kind", kind)
		metrics.FramesDropped.WithLabelValues("relay").Inc()
	}
}

// Run writes queued envelopes until ctx is done. A failed write is logged and the frame is lost.
func (w *Writer) Run(ctx context.Context) error {
	w.log.Info("Relaying frames")
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-w.frames:
			if _, err := w.w.Write(b); err != nil {
				w.log.Error(err, "Relay write failed", "bytes", len(b))
				metrics.RelayFrames.WithLabelValues("out", "failed").Inc()
				continue
			}
			metrics.RelayFrames.WithLabelValues("out", "ok").Inc()
		}
	}
}
