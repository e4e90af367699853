package options

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/camlink/internal/scheduler"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0.0.0.0:8080", false},
		{":4210", false},
		{"localhost:0", false},
		{"localhost", true},
		{"host:http", true},
		{"host:70000", true},
	}
	for _, tt := range tests {
		if err := ValidateAddress(tt.addr); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAddress(%q) error = %v", tt.addr, err)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    IOptions
		wantErr int
	}{
		{"node defaults need a peer", NewNodeOptions(), 1},
		{"node ok", &NodeOptions{PeerMAC: "34:AB:95:FA:3A:6C", Timezone: "UTC", StateFile: "s.yaml"}, 0},
		{"node bad mac", &NodeOptions{PeerMAC: "34:AB:95:FA:3A", Timezone: "UTC", StateFile: "s.yaml"}, 1},
		{"node bad zone", &NodeOptions{PeerMAC: "34:ab:95:fa:3a:6c", Timezone: "Mars/Olympus", StateFile: "s.yaml"}, 1},

		{"schedule defaults", NewScheduleOptions(), 0},
		{"schedule digits out of range", &ScheduleOptions{SleepInterval: time.Minute, LongSleep: time.Hour, MinFloor: time.Second, TargetMinuteDigit: 10, TargetSecondTens: 6}, 2},
		{"schedule zero intervals", &ScheduleOptions{TargetMinuteDigit: unsetDigit, TargetSecondTens: unsetDigit}, 3},

		{"timesync defaults need ssid", NewTimeSyncOptions(), 1},
		{"camera defaults", NewCameraOptions(), 0},
		{"camera bad", &CameraOptions{FrameSize: "8K", Quality: 0, WarmupFrames: 300}, 3},
		{"power defaults", NewPowerOptions(), 0},
		{"power inverted", &PowerOptions{MinMV: 4200, MaxMV: 3000, LowThreshold: 101, DividerRatio: 1}, 2},
		{"link defaults", NewLinkOptions(), 0},
		{"link bad terminator", &LinkOptions{Listen: ":0", FrameTimeout: time.Second, Terminator: "END"}, 1},
		{"session defaults", NewSessionOptions(), 0},
		{"session timeout below minimum", func() *SessionOptions {
			o := NewSessionOptions()
			o.ImageTimeout = time.Nanosecond
			return o
		}(), 1},
		{"serial defaults", NewSerialOptions(), 0},
		{"mqtt disabled", &MqttOptions{}, 0},
		{"mqtt enabled without broker", &MqttOptions{Enabled: true, TopicRoot: "camlink/v1"}, 1},
		{"s3 enabled without bucket", &S3Options{Enabled: true, Endpoint: "minio:9000"}, 1},
		{"influx enabled bad url", &InfluxOptions{Enabled: true, URL: "nowhere", Org: "o", Bucket: "b", Measurement: "m"}, 1},
		{"http disabled skips address", &HttpOptions{Addr: "bogus"}, 0},
		{"grpc enabled bad address", &GrpcOptions{Enabled: true, Addr: "bogus", Timeout: time.Second}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := tt.opts.Validate(); len(errs) != tt.wantErr {
				t.Errorf("Validate() = %v, want %d errors", errs, tt.wantErr)
			}
		})
	}
}

func TestSchedulePolicy(t *testing.T) {
	o := NewScheduleOptions()
	o.CompensationMicros = -1500

	fixed, ok := o.Policy(time.UTC).(scheduler.FixedInterval)
	if !ok {
		t.Fatalf("Policy() = %T, want FixedInterval", o.Policy(time.UTC))
	}
	if fixed.Interval != time.Minute || fixed.Compensation != -1500*time.Microsecond {
		t.Errorf("fixed = %+v", fixed)
	}

	o.TargetSecondTens = 3
	target, ok := o.Policy(time.UTC).(scheduler.TargetDigitAlignment)
	if !ok {
		t.Fatalf("Policy() = %T, want TargetDigitAlignment", o.Policy(time.UTC))
	}
	if target.MinuteDigit != nil || target.SecondTens == nil || *target.SecondTens != 3 || target.Fallback.Interval != time.Minute {
		t.Errorf("target = %+v", target)
	}

	if got := o.LongSleepPolicy(); got.Duration != time.Hour {
		t.Errorf("LongSleepPolicy() = %v", got)
	}
}

func TestFlagsOverrideDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	n, s, c := NewNodeOptions(), NewScheduleOptions(), NewCameraOptions()
	n.AddFlags(fs)
	s.AddFlags(fs)
	c.AddFlags(fs)

	err := fs.Parse([]string{
		"--node.peer-mac=aa:bb:cc:dd:ee:ff",
		"--schedule.sleep-interval=10m",
		"--schedule.target-minute-digit=5",
		"--camera.frame-size=vga",
	})
	if err != nil {
		t.Fatal(err)
	}
	if n.Peer().String() != "aa:bb:cc:dd:ee:ff" || s.SleepInterval != 10*time.Minute || s.TargetMinuteDigit != 5 {
		t.Errorf("parsed node %+v schedule %+v", n, s)
	}
	if cfg := c.Config(); cfg.FrameSize.Width != 640 || cfg.Quality != 80 {
		t.Errorf("camera config = %+v", cfg)
	}
}
