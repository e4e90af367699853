package protocol

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Header is the metadata frame that opens every transfer.
type Header struct {
	Hash string
	// Voltage is the supply percentage, or VoltageUnknown.
	Voltage    uint8
	HasVoltage bool
	// Timestamp is free text, normally formatted with TimestampLayout.
	Timestamp string
}

// NewHeader builds the header for one transfer. An empty hash selects DummyHash.
func NewHeader(hash string, voltage uint8, at time.Time) Header {
	if hash == "" {
		hash = DummyHash
	}
	h := Header{Hash: hash, Voltage: voltage, HasVoltage: true}
	if !at.IsZero() {
		h.Timestamp = at.Format(TimestampLayout)
	}
	return h
}

// Encode renders HASH:<hex>[,VOLT:<pct>][,<timestamp>].
func (h Header) Encode() []byte {
	var b strings.Builder
	b.WriteString(HeaderPrefix)
	b.WriteString(h.Hash)
	if h.HasVoltage {
		b.WriteString(",")
		b.WriteString(VoltagePrefix)
		b.WriteString(strconv.Itoa(int(h.Voltage)))
	}
	if h.Timestamp != "" {
		b.WriteString(",")
		b.WriteString(h.Timestamp)
	}
	return []byte(b.String())
}

// IsPlaceholder reports whether the header announces "no image".
func (h Header) IsPlaceholder() bool {
	return IsDummyHash(h.Hash)
}

// ParseHeader decodes a header frame.
func ParseHeader(b []byte) (Header, error) {
	var h Header

	if len(b) <= len(HeaderPrefix) || !bytes.HasPrefix(b, []byte(HeaderPrefix)) {
		return h, ErrNotHeader
	}

	fields := strings.Split(string(b[len(HeaderPrefix):]), ",")
	h.Hash = strings.TrimSpace(fields[0])
	if h.Hash == "" {
		return h, fmt.Errorf("%w: empty hash", ErrMalformedHeader)
	}
	if _, err := hex.DecodeString(h.Hash); err != nil {
		return h, fmt.Errorf("%w: hash is not hex: %v", ErrMalformedHeader, err)
	}

	for _, f := range fields[1:] {
		f = strings.TrimSpace(f)
		switch {
		case strings.HasPrefix(f, VoltagePrefix):
			v, err := strconv.ParseUint(strings.TrimPrefix(f, VoltagePrefix), 10, 8)
			if err != nil {
				return h, fmt.Errorf("%w: voltage %q: %v", ErrMalformedHeader, f, err)
			}
			h.Voltage = uint8(v)
			h.HasVoltage = true
		case f != "" && h.Timestamp == "":
			h.Timestamp = f
		}
	}

	return h, nil
}
