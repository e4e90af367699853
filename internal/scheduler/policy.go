package scheduler

import (
	"fmt"
	"time"
)

const (
	// DefaultMinFloor is the shortest sleep ever requested.
	DefaultMinFloor = time.Second
	// TargetSecondFloor applies when a second-tens digit is targeted, so that a
	// node does not wake twice inside the same ten-second window.
	TargetSecondFloor = 11 * time.Second
	// SearchWindow bounds the forward scan for a matching wall-clock time.
	SearchWindow = 120 * time.Minute
)

// Policy is one of FixedInterval, TargetDigitAlignment or LongSleep.
type Policy interface {
	fmt.Stringer
	policy()
}

// FixedInterval sleeps for Interval minus the cycle's processing time, adjusted by
// a signed per-device Compensation.
type FixedInterval struct {
	Interval     time.Duration
	Compensation time.Duration
	Floor        time.Duration
}

// Digit is an optional single decimal digit. A nil *Digit means "any".
type Digit = *uint8

// NewDigit returns a Digit holding d.
func NewDigit(d uint8) Digit { return &d }

// TargetDigitAlignment wakes at the next wall-clock time whose minute ends in
// MinuteDigit and whose seconds start with SecondTens. At least one of the two is set.
type TargetDigitAlignment struct {
	MinuteDigit Digit
	SecondTens  Digit
	Location    *time.Location
	// Fallback is used when no match is found inside SearchWindow.
	Fallback FixedInterval
}

// LongSleep is the fixed long suspend used when the supply is exhausted.
type LongSleep struct {
	Duration time.Duration
}

func (FixedInterval) policy()        {}
func (TargetDigitAlignment) policy() {}
func (LongSleep) policy()            {}

func (p FixedInterval) String() string {
	return fmt.Sprintf("fixed-interval(%s, compensation %s)", p.Interval, p.Compensation)
}

func (p TargetDigitAlignment) String() string {
	return fmt.Sprintf("target-digits(minute %s, second-tens %s)", digitString(p.MinuteDigit), digitString(p.SecondTens))
}

func (p LongSleep) String() string {
	return fmt.Sprintf("long-sleep(%s)", p.Duration)
}

func digitString(d Digit) string {
	if d == nil {
		return "*"
	}
	return fmt.Sprintf("%d", *d)
}

func (p TargetDigitAlignment) matches(t time.Time) bool {
	if p.MinuteDigit != nil && t.Minute()%10 != int(*p.MinuteDigit) {
		return false
	}
	if p.SecondTens != nil && t.Second()/10 != int(*p.SecondTens) {
		return false
	}
	return true
}

// Next returns the first matching time strictly after now, scanning second by second.
// ok is false when nothing matches within SearchWindow.
func (p TargetDigitAlignment) Next(now time.Time) (next time.Time, ok bool) {
	if p.MinuteDigit == nil && p.SecondTens == nil {
		return time.Time{}, false
	}
	if p.Location != nil {
		now = now.In(p.Location)
	}
	t := now.Truncate(time.Second)
	for range int(SearchWindow / time.Second) {
		t = t.Add(time.Second)
		if p.matches(t) {
			return t, true
		}
	}
	return time.Time{}, false
}

func (p TargetDigitAlignment) floor() time.Duration {
	if p.SecondTens != nil {
		return TargetSecondFloor
	}
	return orFloor(p.Fallback.Floor)
}

func orFloor(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultMinFloor
	}
	return d
}
