package transport

import (
	"bytes"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/autopeer-io/camlink/internal/link/linktest"
	"github.com/autopeer-io/camlink/internal/protocol"
)

// Runs the sender over a linked pair of in-memory radios into a session table.
func runOverRadio(t *testing.T, size int, script func(int, linktest.Frame) linktest.Outcome) (*Image, *SessionTable, func(string) int) {
	t.Helper()

	node := linktest.NewRadio(nodeMAC)
	node.Script = script
	gw := linktest.NewRadio(gatewayMAC)
	linktest.Connect(node, gw)

	q := NewQueue(1)
	tbl, logs := newObservedTable(t, q)
	gw.OnReceive(tbl.HandleFrame)

	s, fc := newTestSender(t, node)
	p, err := NewImagePayload(testImage(size), 91, fc.Now())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Send(p); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	node.Close()

	var img *Image
	if q.Len() > 0 {
		img = <-q.ch
	}
	count := func(msg string) int { return logs.FilterMessage(msg).Len() }
	return img, tbl, count
}

func TestEndToEndDelivery(t *testing.T) {
	img, _, count := runOverRadio(t, 1200, nil)
	if img == nil {
		t.Fatal("no image delivered")
	}
	if !bytes.Equal(img.Data, testImage(1200)) || !img.HashOK {
		t.Errorf("delivered %d bytes, hashOK %v", len(img.Data), img.HashOK)
	}
	if img.Header.Voltage != 91 || img.Source != nodeMAC {
		t.Errorf("header voltage %d from %s", img.Header.Voltage, img.Source)
	}
	if count("Image hash mismatch, forwarding anyway") != 0 {
		t.Error("unexpected mismatch warning")
	}
}

func TestEndToEndLostFrameForwardsMismatch(t *testing.T) {
	// Frame 3 is the third data frame: header is 0.
	img, _, count := runOverRadio(t, 1200, func(i int, _ linktest.Frame) linktest.Outcome {
		if i == 3 {
			return linktest.Lose
		}
		return linktest.Deliver
	})
	if img == nil {
		t.Fatal("image with a lost frame was not forwarded")
	}
	if len(img.Data) != 950 {
		t.Errorf("delivered %d bytes, want 950", len(img.Data))
	}
	if img.HashOK {
		t.Error("HashOK = true for a truncated image")
	}
	if count("Image hash mismatch, forwarding anyway") != 1 {
		t.Error("mismatch not logged")
	}
}

func TestEndToEndPlaceholder(t *testing.T) {
	node := linktest.NewRadio(nodeMAC)
	gw := linktest.NewRadio(gatewayMAC)
	linktest.Connect(node, gw)

	q := NewQueue(1)
	var got []protocol.Header
	tbl, logs := newObservedTable(t, q, WithHeaderHook(func(_ protocol.MAC, h protocol.Header) { got = append(got, h) }))
	gw.OnReceive(tbl.HandleFrame)

	s, fc := newTestSender(t, node)
	if err := s.Send(Placeholder(3, fc.Now())); err != nil {
		t.Fatal(err)
	}
	node.Close()

	if q.Len() != 0 {
		t.Error("placeholder delivered as an image")
	}
	if len(got) != 1 || !got[0].IsPlaceholder() || got[0].Voltage != 3 {
		t.Errorf("headers seen = %+v", got)
	}
	entries := logs.FilterMessage("Terminator without image data").All()
	if len(entries) != 1 || entries[0].Level != zapcore.InfoLevel {
		t.Error("placeholder terminator not logged at info")
	}
}
