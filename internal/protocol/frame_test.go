package protocol

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestHeaderEncode(t *testing.T) {
	at := time.Date(2025, 3, 14, 12, 34, 7, 0, time.UTC)

	tests := []struct {
		name   string
		header Header
		want   string
	}{
		{"hash only", Header{Hash: "abcdef1234567890"}, "HASH:abcdef1234567890"},
		{"with voltage", Header{Hash: "abcdef1234567890", Voltage: 75, HasVoltage: true}, "HASH:abcdef1234567890,VOLT:75"},
		{"timestamped", NewHeader("ab", 42, at), "HASH:ab,VOLT:42,2025-03-14 12:34:07"},
		{"placeholder", NewHeader("", 5, time.Time{}), "HASH:" + DummyHash + ",VOLT:5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tt.header.Encode()); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Header
		wantErr error
	}{
		{"hash only", "HASH:abcd", Header{Hash: "abcd"}, nil},
		{"voltage", "HASH:abcd,VOLT:75", Header{Hash: "abcd", Voltage: 75, HasVoltage: true}, nil},
		{"full", "HASH:abcd,VOLT:255,2025-03-14 12:34:07", Header{Hash: "abcd", Voltage: 255, HasVoltage: true, Timestamp: "2025-03-14 12:34:07"}, nil},
		{"timestamp without voltage", "HASH:abcd,2025-03-14 12:34:07", Header{Hash: "abcd", Timestamp: "2025-03-14 12:34:07"}, nil},
		{"not a header", "EOF!", Header{}, ErrNotHeader},
		{"prefix only", "HASH:", Header{}, ErrNotHeader},
		{"non hex", "HASH:xyz", Header{}, ErrMalformedHeader},
		{"voltage overflow", "HASH:abcd,VOLT:300", Header{}, ErrMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeader([]byte(tt.in))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseHeader() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got != tt.want {
				t.Errorf("ParseHeader() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := NewHeader(DummyHash, VoltageUnknown, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	got, err := ParseHeader(h.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("round trip = %+v, want %+v", got, h)
	}
	if !got.IsPlaceholder() {
		t.Error("expected placeholder header")
	}
}

func TestClassify(t *testing.T) {
	c := NewClassifier()
	legacy := NewClassifier(DefaultTerminator, LegacyTerminator)

	tests := []struct {
		name string
		c    Classifier
		in   []byte
		want Kind
	}{
		{"terminator", c, []byte("EOF!"), KindEOF},
		{"legacy terminator rejected by default", c, []byte("EOF"), KindData},
		{"legacy terminator accepted", legacy, []byte("EOF"), KindEOF},
		{"header", c, []byte("HASH:ab"), KindHash},
		{"bare prefix is data", c, []byte("HASH:"), KindData},
		{"terminator inside data", c, []byte("xxEOF!"), KindData},
		{"jpeg bytes", c, []byte{0xff, 0xd8, 0xff, 0xe0}, KindData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		size  int
		sizes []int
	}{
		{0, nil},
		{1, []int{1}},
		{250, []int{250}},
		{251, []int{250, 1}},
		{1200, []int{250, 250, 250, 250, 200}},
	}

	for _, tt := range tests {
		b := bytes.Repeat([]byte{0xab}, tt.size)
		chunks := Chunk(b, MTU)
		if len(chunks) != len(tt.sizes) {
			t.Fatalf("Chunk(%d) produced %d chunks, want %d", tt.size, len(chunks), len(tt.sizes))
		}
		var joined []byte
		for i, c := range chunks {
			if len(c) != tt.sizes[i] {
				t.Errorf("Chunk(%d)[%d] has %d bytes, want %d", tt.size, i, len(c), tt.sizes[i])
			}
			joined = append(joined, c...)
		}
		if !bytes.Equal(joined, b) {
			t.Errorf("Chunk(%d) does not reassemble", tt.size)
		}
	}
}
