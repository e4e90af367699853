package ingest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/internal/receiver"
	"github.com/autopeer-io/camlink/internal/relay"
	"github.com/autopeer-io/camlink/internal/sink"
	"github.com/autopeer-io/camlink/pkg/options"
)

var nodeMAC = protocol.MustParseMAC("34:ab:95:fa:3a:6c")

type pipePort struct{ *io.PipeReader }

func (pipePort) Write(p []byte) (int, error) { return len(p), nil }

// relayStream builds the serial bytes of one transfer, as the gateway writer would.
func relayStream(t *testing.T, data []byte) []byte {
	t.Helper()
	h, _ := protocol.Hash(data)
	frames := append([][]byte{protocol.NewHeader(h, 42, time.Time{}).Encode()}, protocol.Chunk(data, protocol.MTU)...)
	frames = append(frames, []byte(protocol.LegacyTerminator))

	seq := protocol.NewSequencer()
	classifier := protocol.NewClassifier(protocol.DefaultTerminator, protocol.LegacyTerminator)
	var out []byte
	for _, f := range frames {
		kind := classifier.Classify(f)
		b, err := protocol.Envelope{MAC: nodeMAC, Kind: kind, Seq: seq.Next(nodeMAC, kind), Payload: f}.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, b...)
	}
	return out
}

func TestIngestWritesRelayedImage(t *testing.T) {
	dir := t.TempDir()
	files, err := sink.NewFile(dir, time.UTC, nil)
	if err != nil {
		t.Fatal(err)
	}

	data := make([]byte, 700)
	for i := range data {
		data[i] = byte(i)
	}
	stream := append([]byte("rst:0x1 (POWERON)\r\n"), relayStream(t, data)...)

	pr, pw := io.Pipe()
	go func() { _, _ = pw.Write(stream) }()

	in := New(Parts{
		Open:          func() (io.ReadWriteCloser, error) { return pipePort{pr}, nil },
		Receiver:      receiver.New(options.NewSessionOptions(), sink.NewMulti(nil, files)),
		ReaderOptions: []relay.ReaderOption{relay.WithRetry(10 * time.Millisecond)},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx) }()

	var saved []string
	deadline := time.Now().Add(3 * time.Second)
	for len(saved) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no image written")
		}
		time.Sleep(10 * time.Millisecond)
		saved, _ = filepath.Glob(filepath.Join(dir, nodeMAC.Compact()+"_*.jpg"))
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() = %v", err)
	}

	got, err := os.ReadFile(saved[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Errorf("saved %d bytes, want the %d relayed", len(got), len(data))
	}
	// header + 3 data + terminator
	if in.Frames() != 5 {
		t.Errorf("Frames() = %d, want 5", in.Frames())
	}
}
