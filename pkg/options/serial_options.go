package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SerialOptions)(nil)

// SerialOptions configures the byte-stream link between the gateway and the ingest host.
type SerialOptions struct {
	// Enabled turns on the gateway's envelope relay. The ingest service always needs the port.
	Enabled     bool          `json:"enabled" mapstructure:"enabled"`
	Port        string        `json:"port" mapstructure:"port"`
	Baud        int           `json:"baud" mapstructure:"baud"`
	ReadTimeout time.Duration `json:"read-timeout" mapstructure:"read-timeout"`
}

func NewSerialOptions() *SerialOptions {
	return &SerialOptions{
		Port:        "/dev/ttyACM0",
		Baud:        115200,
		ReadTimeout: 200 * time.Millisecond,
	}
}

func (o *SerialOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.Port == "" {
		errors = append(errors, fmt.Errorf("serial.port must not be empty"))
	}
	if o.Baud <= 0 {
		errors = append(errors, fmt.Errorf("serial.baud must be positive, got %d", o.Baud))
	}
	if o.ReadTimeout < 0 {
		errors = append(errors, fmt.Errorf("serial.read-timeout must not be negative"))
	}

	return errors
}

func (o *SerialOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "serial.enabled", o.Enabled, "Relay every received frame over the serial port.")
	fs.StringVar(&o.Port, "serial.port", o.Port, "Serial device.")
	fs.IntVar(&o.Baud, "serial.baud", o.Baud, "Serial baud rate.")
	fs.DurationVar(&o.ReadTimeout, "serial.read-timeout", o.ReadTimeout, "Read timeout of the serial device.")
}
