package log

import (
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFromCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromCore(core).WithName("session").WithValues("mac", "aa:bb:cc:dd:ee:ff")

	l.Info("Image finalized", "size", 1200)
	l.Error(errors.New("boom"), "Hash mismatch")

	if got := logs.Len(); got != 2 {
		t.Fatalf("expected 2 entries, got %d", got)
	}

	entry := logs.All()[0]
	if entry.LoggerName != "session" {
		t.Errorf("logger name = %q, want session", entry.LoggerName)
	}
	if v, ok := entry.ContextMap()["mac"]; !ok || v != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("mac field = %v", v)
	}
	errEntries := logs.FilterMessage("Hash mismatch").All()
	if len(errEntries) != 1 {
		t.Fatalf("expected one error entry, got %d", len(errEntries))
	}
	if v := errEntries[0].ContextMap()["error"]; v != "boom" {
		t.Errorf("error field = %v, want boom", v)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr int
	}{
		{"defaults", func(o *Options) {}, 0},
		{"bad level", func(o *Options) { o.Level = "loud" }, 1},
		{"bad format", func(o *Options) { o.Format = "xml" }, 1},
		{"both bad", func(o *Options) { o.Level = "loud"; o.Format = "xml" }, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.mutate(o)
			if got := len(o.Validate()); got != tt.wantErr {
				t.Errorf("Validate() returned %d errors, want %d", got, tt.wantErr)
			}
		})
	}
}

func TestOrStd(t *testing.T) {
	if OrStd(nil) == nil {
		t.Fatal("OrStd(nil) returned nil")
	}
	l := NewNopLogger()
	if OrStd(l) != l {
		t.Error("OrStd should return the provided logger")
	}
}
