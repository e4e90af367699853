package relay

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/autopeer-io/camlink/internal/protocol"
)

var src = protocol.MustParseMAC("34:ab:95:fa:3a:6c")

// chanWriter hands every write to the test.
type chanWriter chan []byte

func (c chanWriter) Write(p []byte) (int, error) {
	c <- append([]byte(nil), p...)
	return len(p), nil
}

func TestWriterWrapsAndSequences(t *testing.T) {
	out := make(chanWriter, 8)
	w := NewWriter(out, WithWriterTerminators(protocol.DefaultTerminator))

	header := protocol.NewHeader(protocol.DummyHash, 50, time.Time{}).Encode()
	frames := [][]byte{header, []byte("chunk-1"), []byte("chunk-2"), []byte(protocol.DefaultTerminator)}
	for _, f := range frames {
		w.Forward(src, f)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	want := []struct {
		kind protocol.Kind
		seq  uint32
	}{
		{protocol.KindHash, 0},
		{protocol.KindData, 1},
		{protocol.KindData, 2},
		{protocol.KindEOF, 0},
	}
	for i, tt := range want {
		var b []byte
		select {
		case b = <-out:
		case <-time.After(time.Second):
			t.Fatalf("envelope %d never written", i)
		}
		env, n, err := protocol.UnmarshalEnvelope(b)
		if err != nil || n != len(b) {
			t.Fatalf("envelope %d: n=%d err=%v", i, n, err)
		}
		if env.MAC != src || env.Kind != tt.kind || env.Seq != tt.seq || string(env.Payload) != string(frames[i]) {
			t.Errorf("envelope %d = %+v, want kind %v seq %d", i, env, tt.kind, tt.seq)
		}
	}
}

func TestWriterDropsWhenBacklogFull(t *testing.T) {
	out := make(chanWriter, 8)
	w := NewWriter(out, WithWriterDepth(1))

	w.Forward(src, []byte("a"))
	w.Forward(src, []byte("b"))

	if got := len(w.frames); got != 1 {
		t.Fatalf("backlog holds %d envelopes, want 1", got)
	}
}

// pipePort is the read end of a pipe dressed as a port.
type pipePort struct{ *io.PipeReader }

func (pipePort) Write(p []byte) (int, error) { return len(p), nil }

func TestReaderDecodesAndReconnects(t *testing.T) {
	pr, pw := io.Pipe()
	var opens atomic.Int32
	open := func() (io.ReadWriteCloser, error) {
		if opens.Add(1) == 1 {
			return nil, errors.New("no such device")
		}
		return pipePort{pr}, nil
	}

	got := make(chan protocol.Envelope, 8)
	r := NewReader(open, func(env protocol.Envelope) { got <- env }, WithRetry(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	go func() {
		_, _ = pw.Write([]byte("boot noise\r\n"))
		for i, p := range []string{"HASH:x", "data", "EOF!"} {
			kind := []protocol.Kind{protocol.KindHash, protocol.KindData, protocol.KindEOF}[i]
			b, _ := protocol.Envelope{MAC: src, Kind: kind, Seq: uint32(i), Payload: []byte(p)}.MarshalBinary()
			// Split every envelope across two writes.
			_, _ = pw.Write(b[:5])
			_, _ = pw.Write(b[5:])
		}
	}()

	for i, want := range []protocol.Kind{protocol.KindHash, protocol.KindData, protocol.KindEOF} {
		select {
		case env := <-got:
			if env.Kind != want || env.MAC != src {
				t.Errorf("envelope %d = %+v, want kind %v", i, env, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("envelope %d never decoded", i)
		}
	}
	if opens.Load() < 2 {
		t.Errorf("port opened %d times, want a retry after the first failure", opens.Load())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
