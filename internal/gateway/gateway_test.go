package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/autopeer-io/camlink/internal/link/linktest"
	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/internal/receiver"
	"github.com/autopeer-io/camlink/internal/relay"
	"github.com/autopeer-io/camlink/internal/sink"
	"github.com/autopeer-io/camlink/internal/transport"
	"github.com/autopeer-io/camlink/pkg/options"
)

var (
	nodeMAC    = protocol.MustParseMAC("34:ab:95:fa:3a:6c")
	gatewayMAC = protocol.MustParseMAC("02:00:00:00:00:01")
)

type collect struct {
	mu     sync.Mutex
	images []*transport.Image
}

func (c *collect) Name() string { return "collect" }

func (c *collect) Deliver(_ context.Context, img *transport.Image) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, img)
	return nil
}

func (c *collect) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

type chanWriter chan []byte

func (c chanWriter) Write(p []byte) (int, error) {
	c <- append([]byte(nil), p...)
	return len(p), nil
}

func TestGatewayReassemblesAndRelays(t *testing.T) {
	radio := linktest.NewRadio(gatewayMAC)
	sinkOut := &collect{}
	relayed := make(chanWriter, 16)

	g := New(Parts{
		Radio:    radio,
		Receiver: receiver.New(options.NewSessionOptions(), sink.NewMulti(nil, sinkOut)),
		Relay:    relay.NewWriter(relayed),
	})

	data := []byte("\xff\xd8gateway-image\xff\xd9")
	h, _ := protocol.Hash(data)
	frames := [][]byte{
		protocol.NewHeader(h, 64, time.Time{}).Encode(),
		data,
		[]byte(protocol.DefaultTerminator),
	}
	for _, f := range frames {
		radio.Inject(nodeMAC, f)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	wantKinds := []protocol.Kind{protocol.KindHash, protocol.KindData, protocol.KindEOF}
	for i, kind := range wantKinds {
		select {
		case b := <-relayed:
			env, _, err := protocol.UnmarshalEnvelope(b)
			if err != nil {
				t.Fatalf("relayed frame %d: %v", i, err)
			}
			if env.Kind != kind || env.MAC != nodeMAC {
				t.Errorf("relayed frame %d = kind %v from %s, want %v from %s", i, env.Kind, env.MAC, kind, nodeMAC)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %d never relayed", i)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for sinkOut.len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("image never reached the sink")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := g.Ready(); err != nil {
		t.Errorf("Ready() = %v while running", err)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if g.Frames() != 3 {
		t.Errorf("Frames() = %d, want 3", g.Frames())
	}
	if g.Ready() == nil {
		t.Error("Ready() succeeded after shutdown")
	}

	img := sinkOut.images[0]
	if !img.HashOK || img.Header.Voltage != 64 || img.Source != nodeMAC {
		t.Errorf("delivered image = %+v", img)
	}
}
