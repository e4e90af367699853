package protocol

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
)

// MAC is a six-byte link-layer sender address.
type MAC [6]byte

// Broadcast addresses every peer.
var Broadcast = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ParseMAC parses "xx:xx:xx:xx:xx:xx". Each of the six parts is one or two hex digits.
func ParseMAC(s string) (MAC, error) {
	var m MAC

	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != len(m) {
		return m, fmt.Errorf("%w: %q has %d parts, want 6", ErrInvalidMAC, s, len(parts))
	}

	for i, p := range parts {
		if p == "" || len(p) > 2 {
			return m, fmt.Errorf("%w: %q part %d is %q", ErrInvalidMAC, s, i, p)
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return m, fmt.Errorf("%w: %q part %d: %v", ErrInvalidMAC, s, i, err)
		}
		m[i] = byte(v)
	}

	return m, nil
}

// MustParseMAC is ParseMAC for constants and tests.
func MustParseMAC(s string) MAC {
	m, err := ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Compact is the address without separators, used in file and object names.
func (m MAC) Compact() string {
	return fmt.Sprintf("%02x%02x%02x%02x%02x%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsZero reports whether the address is unset.
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// DeriveMAC maps seed, usually a hostname, to a stable locally administered unicast address.
func DeriveMAC(seed string) MAC {
	var m MAC
	sum := sha256.Sum256([]byte(seed))
	copy(m[:], sum[:len(m)])
	m[0] = (m[0] | 0x02) &^ 0x01
	return m
}
