package camnode

import (
	"context"

	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/camlink/internal/pkg/util/fsm"
)

// Wake cycle states.
const (
	StateBoot         = "boot"
	StateMetering     = "metering"
	StateSyncing      = "syncing"
	StateCapturing    = "capturing"
	StatePlaceholder  = "placeholder"
	StateTransmitting = "transmitting"
	StateSleeping     = "sleeping"
)

// Wake cycle events. EventDegrade replaces the image with a placeholder, either by policy
// or after a capture failure. EventSleep from metering skips radio and camera.
const (
	EventMeter    = "meter"
	EventSync     = "sync"
	EventCapture  = "capture"
	EventDegrade  = "degrade"
	EventTransmit = "transmit"
	EventSleep    = "sleep"
)

func newCycleFSM(n *Node) *fsm.FSM {
	events := fsm.Events{
		{Name: EventMeter, Src: []string{StateBoot}, Dst: StateMetering},
		{Name: EventSync, Src: []string{StateMetering}, Dst: StateSyncing},
		{Name: EventCapture, Src: []string{StateSyncing}, Dst: StateCapturing},
		{Name: EventDegrade, Src: []string{StateSyncing, StateCapturing}, Dst: StatePlaceholder},
		{Name: EventTransmit, Src: []string{StateCapturing, StatePlaceholder}, Dst: StateTransmitting},
		{Name: EventSleep, Src: []string{StateMetering, StateTransmitting}, Dst: StateSleeping},
	}

	callbacks := fsmutil.OnEnter(fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			n.log.Debug("Cycle state changed", "event", e.Event, "from", e.Src, "to", e.Dst)
		},
	}, map[string]fsmutil.Handler{
		StateMetering:     n.enterMetering,
		StateSyncing:      n.enterSyncing,
		StateCapturing:    n.enterCapturing,
		StatePlaceholder:  n.enterPlaceholder,
		StateTransmitting: n.enterTransmitting,
		StateSleeping:     n.enterSleeping,
	})

	return fsm.NewFSM(StateBoot, events, callbacks)
}
