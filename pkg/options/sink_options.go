package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var (
	_ IOptions = (*FileSinkOptions)(nil)
	_ IOptions = (*InfluxOptions)(nil)
)

// FileSinkOptions stores images on the local filesystem. An empty Dir disables it.
type FileSinkOptions struct {
	Dir string `json:"dir" mapstructure:"dir"`
	// Timezone of the receive time in file names.
	Timezone string `json:"timezone" mapstructure:"timezone"`
}

func NewFileSinkOptions() *FileSinkOptions {
	return &FileSinkOptions{Dir: "received_images", Timezone: "Local"}
}

func (o *FileSinkOptions) Validate() []error {
	if o == nil {
		return nil
	}
	if _, err := time.LoadLocation(o.Timezone); err != nil {
		return []error{fmt.Errorf("file.timezone: %w", err)}
	}
	return nil
}

func (o *FileSinkOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Dir, "file.dir", o.Dir, "Directory for received images. Empty disables the file sink.")
	fs.StringVar(&o.Timezone, "file.timezone", o.Timezone, "IANA timezone of the receive time used in file names.")
}

// Location returns the configured zone, falling back to the host zone.
func (o *FileSinkOptions) Location() *time.Location {
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// InfluxOptions configures the time-series telemetry sink.
type InfluxOptions struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	URL         string `json:"url" mapstructure:"url"`
	Token       string `json:"token" mapstructure:"token"`
	Org         string `json:"org" mapstructure:"org"`
	Bucket      string `json:"bucket" mapstructure:"bucket"`
	Measurement string `json:"measurement" mapstructure:"measurement"`
}

func NewInfluxOptions() *InfluxOptions {
	return &InfluxOptions{
		URL:         "http://127.0.0.1:8086",
		Org:         "camlink",
		Bucket:      "camlink",
		Measurement: "camnode",
	}
}

func (o *InfluxOptions) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	errors := []error{}

	if u, err := url.Parse(o.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Errorf("influx.url %q is not a valid URL", o.URL))
	}
	if o.Org == "" || o.Bucket == "" {
		errors = append(errors, fmt.Errorf("influx.org and influx.bucket are required"))
	}
	if o.Measurement == "" {
		errors = append(errors, fmt.Errorf("influx.measurement must not be empty"))
	}

	return errors
}

func (o *InfluxOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "influx.enabled", o.Enabled, "Write per-image and per-header telemetry to InfluxDB.")
	fs.StringVar(&o.URL, "influx.url", o.URL, "InfluxDB server URL.")
	fs.StringVar(&o.Token, "influx.token", o.Token, "InfluxDB API token.")
	fs.StringVar(&o.Org, "influx.org", o.Org, "InfluxDB organization.")
	fs.StringVar(&o.Bucket, "influx.bucket", o.Bucket, "InfluxDB bucket.")
	fs.StringVar(&o.Measurement, "influx.measurement", o.Measurement, "Measurement name of node points.")
}
