package transport

import (
	"time"

	"github.com/autopeer-io/camlink/internal/protocol"
)

// ImagePayload is one wake cycle's output: JPEG bytes or nothing, plus the content hash
// and the supply percentage. It is created once and sent once.
type ImagePayload struct {
	Data       []byte
	Hash       string
	Voltage    uint8
	CapturedAt time.Time
}

// NewImagePayload hashes data. Empty data is rejected with protocol.ErrEmptyPayload.
func NewImagePayload(data []byte, voltage uint8, at time.Time) (*ImagePayload, error) {
	h, err := protocol.Hash(data)
	if err != nil {
		return nil, err
	}
	return &ImagePayload{Data: data, Hash: h, Voltage: voltage, CapturedAt: at}, nil
}

// Placeholder announces "alive, no image" with the dummy hash.
func Placeholder(voltage uint8, at time.Time) *ImagePayload {
	return &ImagePayload{Hash: protocol.DummyHash, Voltage: voltage, CapturedAt: at}
}

// IsPlaceholder reports whether the payload carries no image.
func (p *ImagePayload) IsPlaceholder() bool {
	return len(p.Data) == 0
}

func (p *ImagePayload) header(loc *time.Location) protocol.Header {
	hash := p.Hash
	if p.IsPlaceholder() {
		hash = protocol.DummyHash
	}
	at := p.CapturedAt
	if !at.IsZero() && loc != nil {
		at = at.In(loc)
	}
	return protocol.NewHeader(hash, p.Voltage, at)
}

// Image is a reassembled transfer handed to consumers.
type Image struct {
	Source protocol.MAC
	Data   []byte
	Header protocol.Header
	// Hash is the digest of Data as received.
	Hash string
	// HashOK is false when Data does not match the header's hash.
	HashOK     bool
	ReceivedAt time.Time
	// URL is filled in by a storage sink that publishes the image.
	URL string
}
