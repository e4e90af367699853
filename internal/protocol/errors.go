package protocol

import "errors"

var (
	ErrEmptyPayload    = errors.New("protocol: empty payload")
	ErrHashMismatch    = errors.New("protocol: hash mismatch")
	ErrInvalidMAC      = errors.New("protocol: invalid mac address")
	ErrNotHeader       = errors.New("protocol: not a header frame")
	ErrMalformedHeader = errors.New("protocol: malformed header frame")
	ErrFrameTooLarge   = errors.New("protocol: frame payload too large")
	ErrShortBuffer     = errors.New("protocol: need more data")
	ErrBadStartMarker  = errors.New("protocol: bad start marker")
	ErrBadEndMarker    = errors.New("protocol: bad end marker")
	ErrBadFrameKind    = errors.New("protocol: unknown frame kind")
	ErrChecksum        = errors.New("protocol: checksum mismatch")
)
