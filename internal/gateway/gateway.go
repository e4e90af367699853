// Package gateway is the radio-side receiver. It reassembles images from node frames,
// hands them to the sinks, and can relay every raw frame to an ingest host over serial.
package gateway

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/autopeer-io/camlink/internal/link"
	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/internal/receiver"
	"github.com/autopeer-io/camlink/internal/relay"
	"github.com/autopeer-io/camlink/internal/server"
	"github.com/autopeer-io/camlink/pkg/log"
)

// Parts are the collaborators of a running gateway. Relay and Servers are optional.
type Parts struct {
	Radio    link.Radio
	Receiver *receiver.Receiver
	Relay    *relay.Writer
	// RelayPort is closed when the gateway stops.
	RelayPort io.Closer
	Servers   *server.Manager
	Logger    log.Logger
}

type Gateway struct {
	Parts
	frames atomic.Uint64
	closed atomic.Bool
	log    log.Logger
}

// New attaches the gateway to the radio. Frames that arrive before Run are applied too.
func New(p Parts) *Gateway {
	g := &Gateway{Parts: p, log: log.OrStd(p.Logger).WithName("gateway")}
	g.Radio.OnReceive(g.onFrame)
	return g
}

// Run receives until ctx is done. The radio is closed on return.
func (g *Gateway) Run(ctx context.Context) error {
	defer func() {
		g.closed.Store(true)
		if err := g.Radio.Close(); err != nil {
			g.log.Error(err, "Closing radio failed")
		}
		if g.RelayPort != nil {
			_ = g.RelayPort.Close()
		}
	}()

	var inputs []receiver.Input
	if g.Relay != nil {
		inputs = append(inputs, g.Relay.Run)
	}
	if g.Servers != nil {
		inputs = append(inputs, g.Servers.Start)
	}

	g.log.Info("Gateway listening", "mac", g.Radio.LocalMAC(), "relay", g.Relay != nil)
	if err := g.Receiver.Run(ctx, inputs...); err != nil {
		return fmt.Errorf("gateway stopped: %w", err)
	}
	g.log.Info("Gateway stopped", "frames", g.frames.Load())
	return nil
}

// Frames returns how many radio frames have arrived.
func (g *Gateway) Frames() uint64 { return g.frames.Load() }

// Ready reports whether frames can be received.
func (g *Gateway) Ready() error {
	if g.closed.Load() {
		return fmt.Errorf("radio closed")
	}
	return nil
}

func (g *Gateway) onFrame(src protocol.MAC, data []byte) {
	g.frames.Add(1)
	if g.Relay != nil {
		g.Relay.Forward(src, data)
	}
	g.Receiver.Table().HandleFrame(src, data)
}
