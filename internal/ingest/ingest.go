// Package ingest is the host-side service behind the serial relay. It decodes the envelope
// stream and reassembles images per sender with the same session table as the gateway.
package ingest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/internal/receiver"
	"github.com/autopeer-io/camlink/internal/relay"
	"github.com/autopeer-io/camlink/internal/server"
	"github.com/autopeer-io/camlink/pkg/log"
)

type Parts struct {
	Open     relay.Opener
	Receiver *receiver.Receiver
	Servers  *server.Manager
	// ReaderOptions tune the relay reader.
	ReaderOptions []relay.ReaderOption
	Logger        log.Logger
}

type Ingest struct {
	Parts
	reader *relay.Reader
	frames atomic.Uint64
	log    log.Logger
}

func New(p Parts) *Ingest {
	in := &Ingest{Parts: p, log: log.OrStd(p.Logger).WithName("ingest")}
	opts := append([]relay.ReaderOption{relay.WithReaderLogger(in.log)}, p.ReaderOptions...)
	in.reader = relay.NewReader(p.Open, in.onEnvelope, opts...)
	return in
}

// Run reads the relay until ctx is done.
func (in *Ingest) Run(ctx context.Context) error {
	inputs := []receiver.Input{in.reader.Run}
	if in.Servers != nil {
		inputs = append(inputs, in.Servers.Start)
	}

	in.log.Info("Ingest started")
	if err := in.Receiver.Run(ctx, inputs...); err != nil {
		return fmt.Errorf("ingest stopped: %w", err)
	}
	in.log.Info("Ingest stopped", "frames", in.frames.Load())
	return nil
}

// Frames returns how many envelopes have been applied.
func (in *Ingest) Frames() uint64 { return in.frames.Load() }

// The envelope kind is authoritative; the payload is not classified again.
func (in *Ingest) onEnvelope(env protocol.Envelope) {
	in.frames.Add(1)
	in.Receiver.Table().Handle(env.MAC, env.Kind, env.Payload)
}
