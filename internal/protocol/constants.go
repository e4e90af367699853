package protocol

import "time"

const (
	// MTU is the largest payload the radio accepts per send.
	MTU = 250

	// DefaultTerminator ends every image transfer.
	DefaultTerminator = "EOF!"
	// LegacyTerminator is emitted by older sender builds.
	LegacyTerminator = "EOF"

	// HeaderPrefix starts every header frame.
	HeaderPrefix = "HASH:"
	// VoltagePrefix tags the supply percentage inside a header.
	VoltagePrefix = "VOLT:"
	// VoltageUnknown is sent when the supply could not be measured.
	VoltageUnknown uint8 = 255

	// TimestampLayout formats the capture time carried by the header.
	TimestampLayout = "2006-01-02 15:04:05"

	// Pacing between data frames, and the longer gap before the terminator.
	FramePacing      = 5 * time.Millisecond
	TerminatorPacing = 15 * time.Millisecond

	// FrameTimeout bounds every single link send.
	FrameTimeout = time.Second

	// MaxImageSize bounds a receiver session buffer.
	MaxImageSize = 64 * 1024
)

// Envelope layout (big-endian):
//
//	start(4) | mac(6) | kind(1) | seq(4) | len(4) | payload(len) | checksum(4) | end(4)
const (
	StartMarker uint32 = 0xFACEAABB
	EndMarker   uint32 = 0xCDEF5678

	MaxEnvelopePayload = 512

	envelopeHeaderSize  = 4 + 6 + 1 + 4 + 4
	envelopeTrailerSize = 4 + 4
	// EnvelopeOverhead is the size of an envelope with an empty payload.
	EnvelopeOverhead = envelopeHeaderSize + envelopeTrailerSize
)
