package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/camlink/pkg/log"
)

// DefaultPartialFrameTimeout discards a frame whose tail never arrives.
const DefaultPartialFrameTimeout = 2 * time.Second

// DecoderStats counts what the decoder has seen.
type DecoderStats struct {
	Frames    uint64
	Discarded uint64 // bytes skipped while hunting for a start marker
	Rejected  uint64 // frames dropped for a bad length, kind, end marker or checksum
	TimedOut  uint64
}

// Decoder reassembles envelopes from an unframed byte stream. It is not safe for concurrent use.
type Decoder struct {
	buf          []byte
	started      time.Time
	frameTimeout time.Duration
	clock        clock.PassiveClock
	log          log.Logger
	stats        DecoderStats
}

type DecoderOption func(*Decoder)

func WithDecoderClock(c clock.PassiveClock) DecoderOption {
	return func(d *Decoder) { d.clock = c }
}

func WithDecoderLogger(l log.Logger) DecoderOption {
	return func(d *Decoder) { d.log = l }
}

func WithPartialFrameTimeout(t time.Duration) DecoderOption {
	return func(d *Decoder) { d.frameTimeout = t }
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		frameTimeout: DefaultPartialFrameTimeout,
		clock:        clock.RealClock{},
	}
	for _, o := range opts {
		o(d)
	}
	d.log = log.OrStd(d.log)
	return d
}

var startMarkerBytes = binary.BigEndian.AppendUint32(nil, StartMarker)

// Feed appends stream bytes and returns every envelope that is now complete.
func (d *Decoder) Feed(p []byte) []Envelope {
	d.buf = append(d.buf, p...)

	var out []Envelope
	for {
		if !d.started.IsZero() && d.clock.Since(d.started) > d.frameTimeout {
			d.stats.TimedOut++
			d.log.Warn("Partial frame timed out, resyncing", "buffered", len(d.buf))
			d.skipMarker()
			continue
		}

		idx := bytes.Index(d.buf, startMarkerBytes)
		if idx < 0 {
			// The tail may hold the first bytes of the next marker.
			if keep := len(startMarkerBytes) - 1; len(d.buf) > keep {
				d.stats.Discarded += uint64(len(d.buf) - keep)
				d.buf = d.buf[len(d.buf)-keep:]
			}
			d.started = time.Time{}
			break
		}
		if idx > 0 {
			d.log.Debug("Discarding bytes before start marker", "count", idx)
			d.stats.Discarded += uint64(idx)
			d.buf = d.buf[idx:]
			d.started = d.clock.Now()
			continue
		}
		if d.started.IsZero() {
			d.started = d.clock.Now()
		}

		e, n, err := UnmarshalEnvelope(d.buf)
		if errors.Is(err, ErrShortBuffer) {
			break
		}
		if err != nil {
			d.stats.Rejected++
			d.log.Warn("Rejecting relayed frame", "reason", err.Error())
			d.skipMarker()
			continue
		}

		d.stats.Frames++
		out = append(out, e)
		d.buf = d.buf[n:]
		d.started = time.Time{}
	}

	d.buf = append(d.buf[:0:0], d.buf...)
	return out
}

// skipMarker drops the current start marker so the next search finds the following one.
func (d *Decoder) skipMarker() {
	if next := bytes.Index(d.buf[min(1, len(d.buf)):], startMarkerBytes); next >= 0 {
		d.stats.Discarded += uint64(next + 1)
		d.buf = d.buf[next+1:]
	} else {
		d.stats.Discarded += uint64(len(d.buf))
		d.buf = d.buf[:0]
	}
	d.started = time.Time{}
}

// Buffered returns the number of bytes waiting for the rest of a frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) Stats() DecoderStats {
	return d.stats
}
