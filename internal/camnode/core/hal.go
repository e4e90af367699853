package core

import (
	"github.com/autopeer-io/camlink/internal/camnode/camera"
	"github.com/autopeer-io/camlink/internal/power"
	"github.com/autopeer-io/camlink/internal/scheduler"
	"github.com/autopeer-io/camlink/internal/timesync"
)

// HAL is the set of board collaborators a wake cycle consumes.
type HAL interface {
	camera.Sensor
	power.ADC
	scheduler.DeepSleeper
	timesync.WiFi
	timesync.ClockSetter
}
