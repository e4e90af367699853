package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    string
		wantErr error
	}{
		{"empty", nil, "", ErrEmptyPayload},
		{"abc", []byte("abc"), "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", nil},
		{"single byte", []byte{0x00}, "6e340b9cffb37a989ca544e6bb780a2c78901d3fb33738768511a30617afa01d", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Hash(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Hash() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Hash() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	payload := []byte(strings.Repeat("jpeg", 300))
	h, err := Hash(payload)
	if err != nil {
		t.Fatal(err)
	}

	if err := Verify(payload, h); err != nil {
		t.Errorf("Verify(own hash) = %v", err)
	}
	if err := Verify(payload, strings.ToUpper(h)); err != nil {
		t.Errorf("Verify(upper-case hash) = %v", err)
	}
	if err := Verify(payload[:len(payload)-1], h); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("Verify(truncated) = %v, want ErrHashMismatch", err)
	}
	if err := Verify(nil, h); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Verify(nil) = %v, want ErrEmptyPayload", err)
	}
}

func TestDummyHash(t *testing.T) {
	if len(DummyHash) != 64 || strings.Trim(DummyHash, "0") != "" {
		t.Fatalf("DummyHash = %q", DummyHash)
	}
	if !IsDummyHash(DummyHash) {
		t.Error("IsDummyHash(DummyHash) = false")
	}
}
