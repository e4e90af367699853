package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/camlink/internal/timesync"
)

var _ IOptions = (*TimeSyncOptions)(nil)

// TimeSyncOptions holds the WiFi credentials used only for time sync, and the SNTP settings.
type TimeSyncOptions struct {
	SSID     string `json:"ssid" mapstructure:"ssid"`
	Password string `json:"password" mapstructure:"password"`

	Server            string        `json:"server" mapstructure:"server"`
	QueryTimeout      time.Duration `json:"query-timeout" mapstructure:"query-timeout"`
	MaxRetries        int           `json:"max-retries" mapstructure:"max-retries"`
	InProgressBackoff time.Duration `json:"in-progress-backoff" mapstructure:"in-progress-backoff"`
	ResetBackoff      time.Duration `json:"reset-backoff" mapstructure:"reset-backoff"`
}

func NewTimeSyncOptions() *TimeSyncOptions {
	return &TimeSyncOptions{
		Server:            timesync.DefaultServer,
		QueryTimeout:      5 * time.Second,
		MaxRetries:        timesync.DefaultMaxRetries,
		InProgressBackoff: timesync.DefaultInProgressBackoff,
		ResetBackoff:      timesync.DefaultResetBackoff,
	}
}

func (o *TimeSyncOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.SSID == "" {
		errors = append(errors, fmt.Errorf("timesync.ssid is required"))
	}
	if o.Server == "" {
		errors = append(errors, fmt.Errorf("timesync.server must not be empty"))
	}
	if o.MaxRetries <= 0 {
		errors = append(errors, fmt.Errorf("timesync.max-retries must be positive, got %d", o.MaxRetries))
	}
	if o.QueryTimeout <= 0 || o.InProgressBackoff <= 0 || o.ResetBackoff <= 0 {
		errors = append(errors, fmt.Errorf("timesync timeouts and backoffs must be positive"))
	}

	return errors
}

func (o *TimeSyncOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.SSID, "timesync.ssid", o.SSID, "Access point used for time sync.")
	fs.StringVar(&o.Password, "timesync.password", o.Password, "Access point passphrase. Empty joins an open network.")
	fs.StringVar(&o.Server, "timesync.server", o.Server, "SNTP server.")
	fs.DurationVar(&o.QueryTimeout, "timesync.query-timeout", o.QueryTimeout, "Timeout of one SNTP query.")
	fs.IntVar(&o.MaxRetries, "timesync.max-retries", o.MaxRetries, "SNTP attempts before giving up for this cycle.")
	fs.DurationVar(&o.InProgressBackoff, "timesync.in-progress-backoff", o.InProgressBackoff, "Pause after an attempt that is still in progress.")
	fs.DurationVar(&o.ResetBackoff, "timesync.reset-backoff", o.ResetBackoff, "Pause after a failed attempt.")
}

func (o *TimeSyncOptions) GateConfig(loc *time.Location) timesync.Config {
	return timesync.Config{
		SSID:              o.SSID,
		Password:          o.Password,
		Location:          loc,
		MaxRetries:        o.MaxRetries,
		InProgressBackoff: o.InProgressBackoff,
		ResetBackoff:      o.ResetBackoff,
	}
}
