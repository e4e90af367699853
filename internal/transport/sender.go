package transport

import (
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/camlink/internal/pkg/metrics"
	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/pkg/log"
)

// Link is the synchronous single-frame send primitive. *link.Channel implements it.
type Link interface {
	Send(dst protocol.MAC, data []byte, timeout time.Duration) error
}

// SenderConfig tunes the chunked sender. Zero values take the protocol defaults.
type SenderConfig struct {
	Peer             protocol.MAC
	MTU              int
	FrameTimeout     time.Duration
	FramePacing      time.Duration
	TerminatorPacing time.Duration
	Terminator       string
	// Location formats the header timestamp. Nil keeps the capture time's own zone.
	Location *time.Location
}

func (c *SenderConfig) setDefaults() {
	if c.MTU <= 0 {
		c.MTU = protocol.MTU
	}
	if c.FrameTimeout <= 0 {
		c.FrameTimeout = protocol.FrameTimeout
	}
	if c.FramePacing <= 0 {
		c.FramePacing = protocol.FramePacing
	}
	if c.TerminatorPacing <= 0 {
		c.TerminatorPacing = protocol.TerminatorPacing
	}
	if c.Terminator == "" {
		c.Terminator = protocol.DefaultTerminator
	}
}

// Sender emits header, data frames and terminator for one payload over a Link.
type Sender struct {
	link  Link
	cfg   SenderConfig
	clock clock.Clock
	log   log.Logger
}

func NewSender(l Link, cfg SenderConfig, c clock.Clock, logger log.Logger) *Sender {
	cfg.setDefaults()
	if c == nil {
		c = clock.RealClock{}
	}
	return &Sender{link: l, cfg: cfg, clock: c, log: log.OrStd(logger).WithName("sender")}
}

// Send transmits p. It stops at the first failed frame: no data goes out without a header,
// and an aborted transfer is left without its terminator.
func (s *Sender) Send(p *ImagePayload) error {
	header := p.header(s.cfg.Location)
	chunks := protocol.Chunk(p.Data, s.cfg.MTU)

	s.log.Info("Sending payload", "peer", s.cfg.Peer, "bytes", len(p.Data), "frames", len(chunks), "hash", header.Hash, "voltage", header.Voltage)

	if err := s.send(protocol.KindHash, header.Encode()); err != nil {
		return fmt.Errorf("header: %w", err)
	}

	for i, c := range chunks {
		if i > 0 {
			s.clock.Sleep(s.cfg.FramePacing)
		}
		if err := s.send(protocol.KindData, c); err != nil {
			s.log.Warn("Aborting transfer", "frame", i+1, "of", len(chunks))
			return fmt.Errorf("data frame %d/%d: %w", i+1, len(chunks), err)
		}
	}

	if len(chunks) > 0 {
		s.clock.Sleep(s.cfg.TerminatorPacing)
	}
	if err := s.send(protocol.KindEOF, []byte(s.cfg.Terminator)); err != nil {
		return fmt.Errorf("terminator: %w", err)
	}

	s.log.Info("Payload sent", "bytes", len(p.Data), "frames", len(chunks)+2)
	return nil
}

func (s *Sender) send(kind protocol.Kind, b []byte) error {
	err := s.link.Send(s.cfg.Peer, b, s.cfg.FrameTimeout)
	status := "ok"
	if err != nil {
		status = "failed"
	}
	metrics.FramesSent.WithLabelValues(kind.String(), status).Inc()
	return err
}
