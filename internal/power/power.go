// Package power maps a supply sample to a percentage and decides how much work a wake cycle may do.
package power

import (
	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/pkg/log"
)

const (
	DefaultMinMV        = 3000
	DefaultMaxMV        = 4200
	DefaultLowThreshold = 8
)

// ADC returns one supply sample in millivolts.
type ADC interface {
	ReadMillivolts() (int, error)
}

// Decision is the outcome of the voltage gate.
type Decision int

const (
	// Capture runs the full capture-and-transmit cycle.
	Capture Decision = iota
	// Placeholder skips the camera but still reports the voltage.
	Placeholder
	// LongSleep skips radio and camera entirely.
	LongSleep
)

func (d Decision) String() string {
	switch d {
	case Capture:
		return "capture"
	case Placeholder:
		return "placeholder"
	case LongSleep:
		return "long-sleep"
	default:
		return "unknown"
	}
}

// Policy holds the reference points of the linear mapping and the low threshold in percent.
type Policy struct {
	MinMV        int
	MaxMV        int
	LowThreshold uint8
}

func DefaultPolicy() Policy {
	return Policy{MinMV: DefaultMinMV, MaxMV: DefaultMaxMV, LowThreshold: DefaultLowThreshold}
}

// Percent maps mv linearly onto 0..100, clamping outside the reference points.
func (p Policy) Percent(mv int) uint8 {
	if p.MaxMV <= p.MinMV || mv <= p.MinMV {
		return 0
	}
	if mv >= p.MaxMV {
		return 100
	}
	return uint8((mv - p.MinMV) * 100 / (p.MaxMV - p.MinMV))
}

// Decide applies the three tiers to a percentage.
func (p Policy) Decide(pct uint8) Decision {
	switch {
	case pct == 0:
		return LongSleep
	case pct < p.LowThreshold:
		return Placeholder
	default:
		return Capture
	}
}

// Reading is one gate evaluation. Percent is protocol.VoltageUnknown when the sample failed.
type Reading struct {
	Millivolts int
	Percent    uint8
	Decision   Decision
	Err        error
}

// Gate samples the ADC once and decides. A read failure is treated as an empty supply.
type Gate struct {
	adc    ADC
	policy Policy
	log    log.Logger
}

func NewGate(adc ADC, p Policy, logger log.Logger) *Gate {
	return &Gate{adc: adc, policy: p, log: log.OrStd(logger).WithName("power")}
}

func (g *Gate) Evaluate() Reading {
	mv, err := g.adc.ReadMillivolts()
	if err != nil {
		g.log.Error(err, "Supply sample failed, assuming empty")
		return Reading{Percent: protocol.VoltageUnknown, Decision: LongSleep, Err: err}
	}

	pct := g.policy.Percent(mv)
	r := Reading{Millivolts: mv, Percent: pct, Decision: g.policy.Decide(pct)}
	g.log.Info("Supply measured", "millivolts", mv, "percent", pct, "decision", r.Decision.String())
	return r
}
