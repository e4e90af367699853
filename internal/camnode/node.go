// Package camnode runs one wake cycle of the camera node: meter the supply, sync the clock
// when needed, capture or degrade to a placeholder, transmit, and deep sleep.
package camnode

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/camlink/internal/camnode/camera"
	"github.com/autopeer-io/camlink/internal/link"
	"github.com/autopeer-io/camlink/internal/power"
	"github.com/autopeer-io/camlink/internal/scheduler"
	"github.com/autopeer-io/camlink/internal/timesync"
	"github.com/autopeer-io/camlink/internal/transport"
	"github.com/autopeer-io/camlink/pkg/log"
)

// RadioFactory opens the link radio. It is called at most once per cycle, after WiFi is released.
type RadioFactory func() (link.Radio, error)

// Parts are the collaborators of a node.
type Parts struct {
	Power     *power.Gate
	TimeSync  *timesync.Gate
	Camera    *camera.Camera
	Radio     RadioFactory
	Sender    transport.SenderConfig
	Scheduler *scheduler.Scheduler
	// Policy is the regular inter-cycle sleep. LongSleep is used when the supply is empty.
	Policy    scheduler.Policy
	LongSleep scheduler.LongSleep
	Clock     clock.Clock
	Logger    log.Logger
}

type Node struct {
	Parts

	fsm   *fsm.FSM
	state cycle
	log   log.Logger
}

// cycle is the state carried between the callbacks of one wake cycle.
type cycle struct {
	boot    time.Time
	reading power.Reading
	sync    timesync.Result
	payload *transport.ImagePayload
	sendErr error
	// next is the event the run loop fires after the current callback returns.
	next string
}

func NewNode(p Parts) *Node {
	if p.Clock == nil {
		p.Clock = clock.RealClock{}
	}
	n := &Node{Parts: p, log: log.OrStd(p.Logger).WithName("node")}
	n.fsm = newCycleFSM(n)
	return n
}

// Run executes one wake cycle and ends in deep sleep. On hardware it does not return.
// Whatever happens in between, the cycle reaches the scheduler.
func (n *Node) Run(ctx context.Context) (err error) {
	n.state = cycle{boot: n.Clock.Now(), next: EventMeter}
	n.log.Info("Wake cycle started", "peer", n.Sender.Peer, "policy", n.Policy.String())

	defer func() {
		if n.fsm.Current() == StateSleeping {
			return
		}
		n.log.Error(err, "Wake cycle aborted, sleeping with the regular policy", "state", n.fsm.Current())
		n.Scheduler.Sleep(n.Policy, n.Clock.Since(n.state.boot))
	}()

	for n.state.next != "" {
		event := n.state.next
		n.state.next = ""
		if err := n.fsm.Event(ctx, event); err != nil {
			return fmt.Errorf("cycle event %q in state %q: %w", event, n.fsm.Current(), err)
		}
	}
	return nil
}

// State returns the current cycle state.
func (n *Node) State() string {
	return n.fsm.Current()
}

func (n *Node) enterMetering(_ context.Context, _ *fsm.Event) error {
	n.state.reading = n.Power.Evaluate()

	if n.state.reading.Decision == power.LongSleep {
		n.log.Warn("Supply empty, skipping radio and camera", "percent", n.state.reading.Percent)
		n.state.next = EventSleep
		return nil
	}
	n.state.next = EventSync
	return nil
}

func (n *Node) enterSyncing(ctx context.Context, _ *fsm.Event) error {
	n.state.sync = n.TimeSync.Run(ctx)

	if n.state.reading.Decision == power.Capture {
		n.state.next = EventCapture
	} else {
		n.state.next = EventDegrade
	}
	return nil
}

func (n *Node) enterCapturing(_ context.Context, _ *fsm.Event) error {
	c, err := n.Camera.Capture()
	if err != nil {
		n.log.Error(err, "Capture failed, sending a placeholder")
		n.state.next = EventDegrade
		return nil
	}

	p, err := transport.NewImagePayload(c.JPEG, n.state.reading.Percent, n.Clock.Now())
	if err != nil {
		n.log.Error(err, "Captured image is unusable, sending a placeholder")
		n.state.next = EventDegrade
		return nil
	}

	n.state.payload = p
	n.state.next = EventTransmit
	return nil
}

func (n *Node) enterPlaceholder(_ context.Context, _ *fsm.Event) error {
	n.state.payload = transport.Placeholder(n.state.reading.Percent, n.Clock.Now())
	n.state.next = EventTransmit
	return nil
}

func (n *Node) enterTransmitting(_ context.Context, _ *fsm.Event) error {
	n.state.next = EventSleep

	r, err := n.Radio()
	if err != nil {
		n.state.sendErr = err
		n.log.Error(err, "Link radio unavailable, nothing sent")
		return nil
	}
	defer func() {
		if err := r.Close(); err != nil {
			n.log.Warn("Closing link radio failed", "reason", err.Error())
		}
	}()

	ch := link.NewChannel(r, link.WithLogger(n.log))
	sender := transport.NewSender(ch, n.Sender, n.Clock, n.log)
	if err := sender.Send(n.state.payload); err != nil {
		n.state.sendErr = err
		n.log.Error(err, "Transmission failed", "placeholder", n.state.payload.IsPlaceholder(), "bytes", len(n.state.payload.Data))
	}
	return nil
}

func (n *Node) enterSleeping(_ context.Context, _ *fsm.Event) error {
	p := n.Policy
	if n.state.reading.Decision == power.LongSleep {
		p = n.LongSleep
	}

	elapsed := n.Clock.Since(n.state.boot)
	n.log.Info("Wake cycle finished", "elapsed", elapsed, "decision", n.state.reading.Decision.String(),
		"synced", n.state.sync.Synced, "sent", n.state.payload != nil && n.state.sendErr == nil)
	n.Scheduler.Sleep(p, elapsed)
	return nil
}
