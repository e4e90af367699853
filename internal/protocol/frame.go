package protocol

import (
	"bytes"
	"fmt"
)

// Kind identifies the role of a frame in a transfer.
type Kind uint8

const (
	KindHash Kind = 1
	KindData Kind = 2
	KindEOF  Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindHash:
		return "HASH"
	case KindData:
		return "DATA"
	case KindEOF:
		return "EOF"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the three frame kinds.
func (k Kind) Valid() bool {
	return k >= KindHash && k <= KindEOF
}

// Classifier tells header, data and terminator frames apart by content.
type Classifier struct {
	terminators [][]byte
}

// NewClassifier accepts the given terminators. With none, DefaultTerminator is used.
func NewClassifier(terminators ...string) Classifier {
	if len(terminators) == 0 {
		terminators = []string{DefaultTerminator}
	}
	c := Classifier{}
	for _, t := range terminators {
		c.terminators = append(c.terminators, []byte(t))
	}
	return c
}

// Classify inspects a raw radio frame.
func (c Classifier) Classify(b []byte) Kind {
	for _, t := range c.terminators {
		if bytes.Equal(b, t) {
			return KindEOF
		}
	}
	if len(b) > len(HeaderPrefix) && bytes.HasPrefix(b, []byte(HeaderPrefix)) {
		return KindHash
	}
	return KindData
}

// Chunk splits b into consecutive slices of at most mtu bytes. The slices alias b.
func Chunk(b []byte, mtu int) [][]byte {
	if mtu <= 0 {
		mtu = MTU
	}
	if len(b) == 0 {
		return nil
	}
	out := make([][]byte, 0, (len(b)+mtu-1)/mtu)
	for off := 0; off < len(b); off += mtu {
		end := min(off+mtu, len(b))
		out = append(out, b[off:end])
	}
	return out
}
