// Package camera turns raw sensor frames into JPEG payloads of the configured size.
package camera

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/autopeer-io/camlink/pkg/log"
)

const (
	DefaultQuality = 80
	// NoWarmup is accepted as a warm-up count meaning "discard nothing".
	NoWarmup = 255
)

var ErrNoFrame = errors.New("sensor returned no frame")

// Sensor produces raw frames.
type Sensor interface {
	ReadFrame() (image.Image, error)
}

// ExposureController is implemented by sensors with an automatic exposure loop.
type ExposureController interface {
	SetAutoExposure(enabled bool) error
}

type Config struct {
	FrameSize    FrameSize
	Quality      int
	AutoExposure bool
	WarmupFrames uint8
}

// Capture is one encoded frame.
type Capture struct {
	Width  int
	Height int
	JPEG   []byte
}

type Camera struct {
	sensor Sensor
	cfg    Config
	log    log.Logger
}

func New(sensor Sensor, cfg Config, logger log.Logger) *Camera {
	if cfg.FrameSize.Width == 0 {
		cfg.FrameSize, _ = LookupFrameSize(DefaultFrameSize)
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultQuality
	}
	return &Camera{sensor: sensor, cfg: cfg, log: log.OrStd(logger).WithName("camera")}
}

// Capture discards the warm-up frames, then scales and encodes the next one.
func (c *Camera) Capture() (*Capture, error) {
	if ec, ok := c.sensor.(ExposureController); ok {
		if err := ec.SetAutoExposure(c.cfg.AutoExposure); err != nil {
			c.log.Warn("Failed to set auto exposure", "enabled", c.cfg.AutoExposure, "reason", err.Error())
		}
	}

	warmup := int(c.cfg.WarmupFrames)
	if c.cfg.WarmupFrames == NoWarmup {
		warmup = 0
	}
	for i := range warmup {
		if _, err := c.sensor.ReadFrame(); err != nil {
			c.log.Warn("Warm-up frame failed", "frame", i+1, "of", warmup, "reason", err.Error())
		}
	}

	src, err := c.sensor.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if src == nil || src.Bounds().Empty() {
		return nil, ErrNoFrame
	}

	img := c.scale(src)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.cfg.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	b := img.Bounds()
	c.log.Info("Image captured", "size", c.cfg.FrameSize.String(), "bytes", buf.Len(), "quality", c.cfg.Quality, "warmup", warmup)
	return &Capture{Width: b.Dx(), Height: b.Dy(), JPEG: buf.Bytes()}, nil
}

func (c *Camera) scale(src image.Image) image.Image {
	want := c.cfg.FrameSize.Rect()
	if src.Bounds().Size() == want.Size() {
		return src
	}
	dst := image.NewRGBA(want)
	draw.ApproxBiLinear.Scale(dst, want, src, src.Bounds(), draw.Src, nil)
	return dst
}
