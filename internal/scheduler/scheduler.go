// Package scheduler computes how long a node sleeps between wake cycles and enters that sleep.
package scheduler

import (
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/camlink/pkg/log"
)

// DeepSleeper suspends the device for d. On hardware it does not return.
type DeepSleeper interface {
	DeepSleep(d time.Duration)
}

// Scheduler turns a Policy and the cycle's processing time into one suspend.
type Scheduler struct {
	sleeper DeepSleeper
	clock   clock.PassiveClock
	log     log.Logger
}

func New(sleeper DeepSleeper, c clock.PassiveClock, logger log.Logger) *Scheduler {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Scheduler{sleeper: sleeper, clock: c, log: log.OrStd(logger).WithName("scheduler")}
}

// Sleep computes the duration for p and suspends. It is the last call of a wake cycle.
func (s *Scheduler) Sleep(p Policy, elapsed time.Duration) {
	d := s.Compute(p, elapsed)
	s.log.Info("Entering deep sleep", "policy", p.String(), "elapsed", elapsed, "sleepMicros", d.Microseconds())
	s.sleeper.DeepSleep(d)
}

// Compute returns the sleep for p. The result is always positive and has microsecond resolution.
func (s *Scheduler) Compute(p Policy, elapsed time.Duration) time.Duration {
	var d time.Duration
	switch p := p.(type) {
	case FixedInterval:
		d = s.fixed(p, elapsed)
	case TargetDigitAlignment:
		d = s.target(p, elapsed)
	case LongSleep:
		d = p.Duration
	}
	if d <= 0 {
		s.log.Warn("Computed a non-positive sleep, using the minimum floor", "policy", p, "computed", d)
		d = DefaultMinFloor
	}
	return d.Truncate(time.Microsecond)
}

func (s *Scheduler) fixed(p FixedInterval, elapsed time.Duration) time.Duration {
	floor := orFloor(p.Floor)

	base := p.Interval - elapsed
	if base < floor {
		s.log.Warn("Processing time exceeded the sleep interval, using the minimum floor", "elapsed", elapsed, "interval", p.Interval, "floor", floor)
		base = floor
	}

	d := base + p.Compensation
	if d <= 0 {
		s.log.Warn("Compensation drove the sleep to zero, using the minimum floor", "compensation", p.Compensation, "floor", floor)
		return floor
	}
	return d
}

func (s *Scheduler) target(p TargetDigitAlignment, elapsed time.Duration) time.Duration {
	now := s.clock.Now()
	next, ok := p.Next(now)
	if !ok {
		s.log.Warn("No matching wake time in the search window, falling back to the fixed interval", "window", SearchWindow, "policy", p)
		return s.fixed(p.Fallback, elapsed)
	}

	d := next.Sub(now) - elapsed
	if floor := p.floor(); d < floor {
		s.log.Info("Target wake time is too close, sleeping for the floor", "target", next, "floor", floor)
		d = floor
	}
	s.log.Debug("Next target wake time", "target", next.Format(time.DateTime), "sleep", d)
	return d
}
