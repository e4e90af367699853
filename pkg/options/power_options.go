package options

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/camlink/internal/camnode/hal"
	"github.com/autopeer-io/camlink/internal/power"
)

var _ IOptions = (*PowerOptions)(nil)

// PowerOptions configures the voltage gate and where the board exposes its supply sample.
type PowerOptions struct {
	MinMV        int `json:"min-mv" mapstructure:"min-mv"`
	MaxMV        int `json:"max-mv" mapstructure:"max-mv"`
	LowThreshold int `json:"low-threshold" mapstructure:"low-threshold"`

	ADCRawPath   string  `json:"adc-raw-path" mapstructure:"adc-raw-path"`
	ADCScalePath string  `json:"adc-scale-path" mapstructure:"adc-scale-path"`
	DividerRatio float64 `json:"divider-ratio" mapstructure:"divider-ratio"`
}

func NewPowerOptions() *PowerOptions {
	return &PowerOptions{
		MinMV:        power.DefaultMinMV,
		MaxMV:        power.DefaultMaxMV,
		LowThreshold: power.DefaultLowThreshold,
		DividerRatio: 2,
	}
}

func (o *PowerOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.MinMV >= o.MaxMV {
		errors = append(errors, fmt.Errorf("power.min-mv (%d) must be below power.max-mv (%d)", o.MinMV, o.MaxMV))
	}
	if o.LowThreshold < 0 || o.LowThreshold > 100 {
		errors = append(errors, fmt.Errorf("power.low-threshold must be 0..100, got %d", o.LowThreshold))
	}
	if o.DividerRatio <= 0 {
		errors = append(errors, fmt.Errorf("power.divider-ratio must be positive"))
	}

	return errors
}

func (o *PowerOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.MinMV, "power.min-mv", o.MinMV, "Supply millivolts mapped to 0%.")
	fs.IntVar(&o.MaxMV, "power.max-mv", o.MaxMV, "Supply millivolts mapped to 100%.")
	fs.IntVar(&o.LowThreshold, "power.low-threshold", o.LowThreshold, "Below this percentage only a placeholder is sent.")
	fs.StringVar(&o.ADCRawPath, "power.adc-raw-path", o.ADCRawPath, "IIO raw sample file. Empty uses the board default.")
	fs.StringVar(&o.ADCScalePath, "power.adc-scale-path", o.ADCScalePath, "IIO scale file in millivolts per LSB.")
	fs.Float64Var(&o.DividerRatio, "power.divider-ratio", o.DividerRatio, "Ratio of the resistor divider in front of the ADC.")
}

func (o *PowerOptions) Policy() power.Policy {
	return power.Policy{MinMV: o.MinMV, MaxMV: o.MaxMV, LowThreshold: uint8(o.LowThreshold)}
}

// HALConfig fills the ADC part of the board configuration.
func (o *PowerOptions) HALConfig(cfg hal.Config) hal.Config {
	cfg.ADCRawPath = o.ADCRawPath
	cfg.ADCScalePath = o.ADCScalePath
	cfg.DividerRatio = o.DividerRatio
	return cfg
}
