package timesync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/beevik/ntp"
	"k8s.io/utils/clock"
)

const DefaultServer = "ntp.nict.jp"

// ClockSetter applies a corrected wall-clock time to the device.
type ClockSetter interface {
	SetTime(t time.Time) error
}

// NTPSyncer queries one SNTP server. A query timeout is treated as still in progress.
type NTPSyncer struct {
	Server  string
	Timeout time.Duration
	// Setter may be nil, in which case the offset is only reported.
	Setter ClockSetter
	Clock  clock.PassiveClock

	query func(host string, opt ntp.QueryOptions) (*ntp.Response, error)
}

var _ Syncer = (*NTPSyncer)(nil)

func NewNTPSyncer(server string, timeout time.Duration, setter ClockSetter) *NTPSyncer {
	if server == "" {
		server = DefaultServer
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NTPSyncer{Server: server, Timeout: timeout, Setter: setter, Clock: clock.RealClock{}, query: ntp.QueryWithOptions}
}

func (s *NTPSyncer) Sync(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	resp, err := s.query(s.Server, ntp.QueryOptions{Timeout: s.Timeout})
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInProgress, err)
		}
		return time.Time{}, fmt.Errorf("query %s: %w", s.Server, err)
	}
	if err := resp.Validate(); err != nil {
		return time.Time{}, fmt.Errorf("invalid response from %s: %w", s.Server, err)
	}

	now := s.Clock.Now().Add(resp.ClockOffset)
	if s.Setter != nil {
		if err := s.Setter.SetTime(now); err != nil {
			return time.Time{}, fmt.Errorf("set clock: %w", err)
		}
	}
	return now, nil
}
