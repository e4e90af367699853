package protocol

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Envelope is the self-delimiting record used to relay radio frames over a byte stream.
type Envelope struct {
	MAC     MAC
	Kind    Kind
	Seq     uint32
	Payload []byte
}

// Checksum XORs the payload read as little-endian 32-bit words. A trailing partial word is zero-padded.
func Checksum(p []byte) uint32 {
	var sum uint32
	for off := 0; off < len(p); off += 4 {
		var w uint32
		for i, b := range p[off:min(off+4, len(p))] {
			w |= uint32(b) << (8 * i)
		}
		sum ^= w
	}
	return sum
}

// MarshalBinary encodes the envelope.
func (e Envelope) MarshalBinary() ([]byte, error) {
	if len(e.Payload) > MaxEnvelopePayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(e.Payload))
	}
	if !e.Kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrBadFrameKind, e.Kind)
	}

	out := make([]byte, 0, EnvelopeOverhead+len(e.Payload))
	out = binary.BigEndian.AppendUint32(out, StartMarker)
	out = append(out, e.MAC[:]...)
	out = append(out, byte(e.Kind))
	out = binary.BigEndian.AppendUint32(out, e.Seq)
	out = binary.BigEndian.AppendUint32(out, uint32(len(e.Payload)))
	out = append(out, e.Payload...)
	out = binary.BigEndian.AppendUint32(out, Checksum(e.Payload))
	out = binary.BigEndian.AppendUint32(out, EndMarker)
	return out, nil
}

// UnmarshalEnvelope decodes the envelope at the start of b and returns the number of bytes it used.
// ErrShortBuffer means b holds a valid prefix and more data is needed.
func UnmarshalEnvelope(b []byte) (Envelope, int, error) {
	var e Envelope

	if len(b) < 4 {
		return e, 0, ErrShortBuffer
	}
	if binary.BigEndian.Uint32(b) != StartMarker {
		return e, 0, ErrBadStartMarker
	}
	if len(b) < envelopeHeaderSize {
		return e, 0, ErrShortBuffer
	}

	off := 4
	copy(e.MAC[:], b[off:off+6])
	off += 6
	e.Kind = Kind(b[off])
	off++
	if !e.Kind.Valid() {
		return e, 0, fmt.Errorf("%w: %d", ErrBadFrameKind, e.Kind)
	}
	e.Seq = binary.BigEndian.Uint32(b[off:])
	off += 4
	n := binary.BigEndian.Uint32(b[off:])
	off += 4
	if n > MaxEnvelopePayload {
		return e, 0, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	total := envelopeHeaderSize + int(n) + envelopeTrailerSize
	if len(b) < total {
		return e, 0, ErrShortBuffer
	}

	payload := b[off : off+int(n)]
	off += int(n)
	sum := binary.BigEndian.Uint32(b[off:])
	off += 4
	if end := binary.BigEndian.Uint32(b[off:]); end != EndMarker {
		return e, 0, fmt.Errorf("%w: %08x", ErrBadEndMarker, end)
	}
	off += 4
	if got := Checksum(payload); got != sum {
		return e, 0, fmt.Errorf("%w: got %08x, want %08x", ErrChecksum, got, sum)
	}

	e.Payload = append([]byte(nil), payload...)
	return e, off, nil
}

// Sequencer numbers relayed frames per sender. Header and terminator frames carry 0,
// data frames count up from 1 and wrap.
type Sequencer struct {
	mu   sync.Mutex
	last map[MAC]uint32
}

func NewSequencer() *Sequencer {
	return &Sequencer{last: make(map[MAC]uint32)}
}

// Next returns the sequence number for the next frame of the given kind from mac.
func (s *Sequencer) Next(mac MAC, kind Kind) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == KindHash || kind == KindEOF {
		s.last[mac] = 0
		return 0
	}
	s.last[mac]++
	return s.last[mac]
}
