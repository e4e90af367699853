package hal

import (
	"math"
	"time"
)

// Config locates the board resources. Paths that are empty take the defaults below.
type Config struct {
	// ADCRawPath and ADCScalePath are the IIO raw sample and its millivolt-per-LSB scale.
	ADCRawPath   string
	ADCScalePath string
	// DividerRatio undoes the resistor divider in front of the ADC.
	DividerRatio float64
	// FramePath is where the capture pipeline drops the latest sensor frame.
	FramePath      string
	RTCWakePath    string
	PowerStatePath string
	WiFiInterface  string
	// MockMillivolts is the supply reported by the development HAL.
	MockMillivolts int
}

func (c *Config) setDefaults() {
	if c.ADCRawPath == "" {
		c.ADCRawPath = "/sys/bus/iio/devices/iio:device0/in_voltage0_raw"
	}
	if c.ADCScalePath == "" {
		c.ADCScalePath = "/sys/bus/iio/devices/iio:device0/in_voltage_scale"
	}
	if c.DividerRatio <= 0 {
		c.DividerRatio = 2
	}
	if c.FramePath == "" {
		c.FramePath = "/run/camlink/frame.jpg"
	}
	if c.RTCWakePath == "" {
		c.RTCWakePath = "/sys/class/rtc/rtc0/wakealarm"
	}
	if c.PowerStatePath == "" {
		c.PowerStatePath = "/sys/power/state"
	}
	if c.WiFiInterface == "" {
		c.WiFiInterface = "wlan0"
	}
	if c.MockMillivolts == 0 {
		c.MockMillivolts = 3900
	}
}

// rtcAlarm converts d to the whole seconds an RTC wake alarm accepts, rounding up.
// extra is what the rounding adds on top of d.
func rtcAlarm(d time.Duration) (secs int64, extra time.Duration) {
	secs = int64(math.Ceil(d.Seconds()))
	return secs, time.Duration(secs)*time.Second - d
}
