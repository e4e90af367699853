package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/camlink/internal/scheduler"
)

var _ IOptions = (*ScheduleOptions)(nil)

// unsetDigit disables one target-digit constraint.
const unsetDigit = -1

// ScheduleOptions selects the wake policy.
type ScheduleOptions struct {
	SleepInterval time.Duration `json:"sleep-interval" mapstructure:"sleep-interval"`
	LongSleep     time.Duration `json:"long-sleep" mapstructure:"long-sleep"`
	// CompensationMicros is a signed per-device drift correction added to fixed-interval sleeps.
	CompensationMicros int64         `json:"compensation-micros" mapstructure:"compensation-micros"`
	MinFloor           time.Duration `json:"min-floor" mapstructure:"min-floor"`
	// TargetMinuteDigit and TargetSecondTens enable target-digit alignment. -1 means unset.
	TargetMinuteDigit int `json:"target-minute-digit" mapstructure:"target-minute-digit"`
	TargetSecondTens  int `json:"target-second-tens" mapstructure:"target-second-tens"`
}

func NewScheduleOptions() *ScheduleOptions {
	return &ScheduleOptions{
		SleepInterval:     60 * time.Second,
		LongSleep:         3600 * time.Second,
		MinFloor:          scheduler.DefaultMinFloor,
		TargetMinuteDigit: unsetDigit,
		TargetSecondTens:  unsetDigit,
	}
}

func (o *ScheduleOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.SleepInterval <= 0 {
		errors = append(errors, fmt.Errorf("schedule.sleep-interval must be positive, got %s", o.SleepInterval))
	}
	if o.LongSleep <= 0 {
		errors = append(errors, fmt.Errorf("schedule.long-sleep must be positive, got %s", o.LongSleep))
	}
	if o.MinFloor <= 0 {
		errors = append(errors, fmt.Errorf("schedule.min-floor must be positive, got %s", o.MinFloor))
	}
	if o.TargetMinuteDigit != unsetDigit && (o.TargetMinuteDigit < 0 || o.TargetMinuteDigit > 9) {
		errors = append(errors, fmt.Errorf("schedule.target-minute-digit must be 0..9, got %d", o.TargetMinuteDigit))
	}
	if o.TargetSecondTens != unsetDigit && (o.TargetSecondTens < 0 || o.TargetSecondTens > 5) {
		errors = append(errors, fmt.Errorf("schedule.target-second-tens must be 0..5, got %d", o.TargetSecondTens))
	}

	return errors
}

func (o *ScheduleOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.SleepInterval, "schedule.sleep-interval", o.SleepInterval, "Wake interval of the fixed-interval policy.")
	fs.DurationVar(&o.LongSleep, "schedule.long-sleep", o.LongSleep, "Sleep used when the supply is exhausted.")
	fs.Int64Var(&o.CompensationMicros, "schedule.compensation-micros", o.CompensationMicros, "Signed drift correction in microseconds added to fixed-interval sleeps.")
	fs.DurationVar(&o.MinFloor, "schedule.min-floor", o.MinFloor, "Shortest sleep ever requested.")
	fs.IntVar(&o.TargetMinuteDigit, "schedule.target-minute-digit", o.TargetMinuteDigit, "Wake when the minute ends in this digit (0-9, -1 disables).")
	fs.IntVar(&o.TargetSecondTens, "schedule.target-second-tens", o.TargetSecondTens, "Wake when the seconds' tens digit matches (0-5, -1 disables).")
}

func (o *ScheduleOptions) fixed() scheduler.FixedInterval {
	return scheduler.FixedInterval{
		Interval:     o.SleepInterval,
		Compensation: time.Duration(o.CompensationMicros) * time.Microsecond,
		Floor:        o.MinFloor,
	}
}

// Policy picks the wake policy once, at load time.
func (o *ScheduleOptions) Policy(loc *time.Location) scheduler.Policy {
	if o.TargetMinuteDigit == unsetDigit && o.TargetSecondTens == unsetDigit {
		return o.fixed()
	}

	p := scheduler.TargetDigitAlignment{Location: loc, Fallback: o.fixed()}
	if o.TargetMinuteDigit != unsetDigit {
		p.MinuteDigit = scheduler.NewDigit(uint8(o.TargetMinuteDigit))
	}
	if o.TargetSecondTens != unsetDigit {
		p.SecondTens = scheduler.NewDigit(uint8(o.TargetSecondTens))
	}
	return p
}

func (o *ScheduleOptions) LongSleepPolicy() scheduler.LongSleep {
	return scheduler.LongSleep{Duration: o.LongSleep}
}
