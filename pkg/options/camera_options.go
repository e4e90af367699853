package options

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/camlink/internal/camnode/camera"
)

var _ IOptions = (*CameraOptions)(nil)

type CameraOptions struct {
	FrameSize    string `json:"frame-size" mapstructure:"frame-size"`
	Quality      int    `json:"quality" mapstructure:"quality"`
	AutoExposure bool   `json:"auto-exposure" mapstructure:"auto-exposure"`
	// WarmupFrames are discarded before the captured frame. 255 means none.
	WarmupFrames int `json:"warmup-frames" mapstructure:"warmup-frames"`
}

func NewCameraOptions() *CameraOptions {
	return &CameraOptions{
		FrameSize: camera.DefaultFrameSize,
		Quality:   camera.DefaultQuality,
	}
}

func (o *CameraOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if _, err := camera.LookupFrameSize(o.FrameSize); err != nil {
		errors = append(errors, fmt.Errorf("camera.frame-size: %w (one of %v)", err, camera.FrameSizeNames()))
	}
	if o.Quality < 1 || o.Quality > 100 {
		errors = append(errors, fmt.Errorf("camera.quality must be 1..100, got %d", o.Quality))
	}
	if o.WarmupFrames < 0 || o.WarmupFrames > 255 {
		errors = append(errors, fmt.Errorf("camera.warmup-frames must be 0..255, got %d", o.WarmupFrames))
	}

	return errors
}

func (o *CameraOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.FrameSize, "camera.frame-size", o.FrameSize, "Output resolution name, e.g. QVGA, VGA, SVGA, UXGA.")
	fs.IntVar(&o.Quality, "camera.quality", o.Quality, "JPEG quality, 1 (smallest) to 100 (best).")
	fs.BoolVar(&o.AutoExposure, "camera.auto-exposure", o.AutoExposure, "Enable the sensor's automatic exposure.")
	fs.IntVar(&o.WarmupFrames, "camera.warmup-frames", o.WarmupFrames, "Frames discarded before capture (255 means none).")
}

func (o *CameraOptions) Config() camera.Config {
	size, _ := camera.LookupFrameSize(o.FrameSize)
	return camera.Config{
		FrameSize:    size,
		Quality:      o.Quality,
		AutoExposure: o.AutoExposure,
		WarmupFrames: uint8(o.WarmupFrames),
	}
}
