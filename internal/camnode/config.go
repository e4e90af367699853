package camnode

import (
	"fmt"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/camlink/internal/camnode/camera"
	"github.com/autopeer-io/camlink/internal/camnode/hal"
	"github.com/autopeer-io/camlink/internal/link"
	"github.com/autopeer-io/camlink/internal/power"
	"github.com/autopeer-io/camlink/internal/scheduler"
	"github.com/autopeer-io/camlink/internal/timesync"
	"github.com/autopeer-io/camlink/internal/transport"
	"github.com/autopeer-io/camlink/pkg/log"
	"github.com/autopeer-io/camlink/pkg/options"
)

type Config struct {
	NodeOptions     *options.NodeOptions
	LinkOptions     *options.LinkOptions
	ScheduleOptions *options.ScheduleOptions
	TimeSyncOptions *options.TimeSyncOptions
	CameraOptions   *options.CameraOptions
	PowerOptions    *options.PowerOptions
}

// NewNode wires the board HAL into every cycle collaborator.
func (cfg *Config) NewNode() (*Node, error) {
	board := hal.NewHAL(cfg.PowerOptions.HALConfig(hal.Config{}))
	loc := cfg.NodeOptions.Location()
	peer := cfg.NodeOptions.Peer()
	if peer.IsZero() {
		return nil, fmt.Errorf("FATAL: gateway peer address is not set")
	}

	logger := log.WithValues("node", cfg.LinkOptions.Local().String())
	realClock := clock.RealClock{}

	syncer := timesync.NewNTPSyncer(cfg.TimeSyncOptions.Server, cfg.TimeSyncOptions.QueryTimeout, board)
	gate := timesync.NewGate(
		cfg.TimeSyncOptions.GateConfig(loc),
		hal.NewFileKV(cfg.NodeOptions.StateFile),
		board,
		syncer,
		realClock,
		logger,
	)

	return NewNode(Parts{
		Power:    power.NewGate(board, cfg.PowerOptions.Policy(), logger),
		TimeSync: gate,
		Camera:   camera.New(board, cfg.CameraOptions.Config(), logger),
		Radio:    cfg.radioFactory(logger),
		Sender: transport.SenderConfig{
			Peer:             peer,
			FrameTimeout:     cfg.LinkOptions.FrameTimeout,
			FramePacing:      cfg.LinkOptions.FramePacing,
			TerminatorPacing: cfg.LinkOptions.TerminatorPacing,
			Terminator:       cfg.LinkOptions.Terminator,
			Location:         loc,
		},
		Scheduler: scheduler.New(board, realClock, logger),
		Policy:    cfg.ScheduleOptions.Policy(loc),
		LongSleep: cfg.ScheduleOptions.LongSleepPolicy(),
		Clock:     realClock,
		Logger:    logger,
	}), nil
}

func (cfg *Config) radioFactory(logger log.Logger) RadioFactory {
	return func() (link.Radio, error) {
		r, err := link.ListenUDP(cfg.LinkOptions.Listen, cfg.LinkOptions.Local(), logger)
		if err != nil {
			return nil, err
		}
		if err := r.AddPeer(cfg.NodeOptions.Peer(), cfg.LinkOptions.PeerAddr); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("add peer %s: %w", cfg.NodeOptions.Peer(), err)
		}
		return r, nil
	}
}
