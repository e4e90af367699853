package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DummyHash marks a header that is deliberately not followed by image data.
var DummyHash = strings.Repeat("0", sha256.Size*2)

// Hash returns the lower-case hex SHA-256 of b.
func Hash(b []byte) (string, error) {
	if len(b) == 0 {
		return "", ErrEmptyPayload
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Verify checks b against a hex digest. The comparison ignores case.
func Verify(b []byte, want string) error {
	got, err := Hash(b)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, want) {
		return ErrHashMismatch
	}
	return nil
}

// IsDummyHash reports whether h is the "no image" marker.
func IsDummyHash(h string) bool {
	return h == DummyHash
}
