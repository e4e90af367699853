//go:build !linux || camlink_mock

package hal

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/autopeer-io/camlink/internal/camnode/core"
	"github.com/autopeer-io/camlink/pkg/log"
)

// MockHAL is the development board: a synthetic sensor and a fixed supply.
// DeepSleep returns, which ends the node process.
type MockHAL struct {
	cfg Config
	log log.Logger
	t   int
}

func NewHAL(cfg Config) core.HAL {
	cfg.setDefaults()
	return &MockHAL{cfg: cfg, log: log.WithName("hal-mock")}
}

func (h *MockHAL) ReadMillivolts() (int, error) {
	return h.cfg.MockMillivolts, nil
}

// ReadFrame renders a moving gradient at the sensor's native UXGA size.
func (h *MockHAL) ReadFrame() (image.Image, error) {
	h.t++
	img := image.NewRGBA(image.Rect(0, 0, 1600, 1200))
	for y := 0; y < 1200; y += 2 {
		for x := 0; x < 1600; x += 2 {
			c := color.RGBA{R: uint8(x + h.t), G: uint8(y), B: uint8(x ^ y), A: 0xff}
			img.SetRGBA(x, y, c)
			img.SetRGBA(x+1, y, c)
			img.SetRGBA(x, y+1, c)
			img.SetRGBA(x+1, y+1, c)
		}
	}
	return img, nil
}

func (h *MockHAL) DeepSleep(d time.Duration) {
	h.log.Warn("[HAL-Mock] Deep sleep requested, exiting instead", "micros", d.Microseconds())
}

func (h *MockHAL) Connect(_ context.Context, ssid, _ string) error {
	h.log.Info("[HAL-Mock] WiFi associated", "ssid", ssid)
	return nil
}

func (h *MockHAL) Disconnect() error {
	h.log.Info("[HAL-Mock] WiFi released")
	return nil
}

func (h *MockHAL) SetTime(t time.Time) error {
	h.log.Info("[HAL-Mock] Clock would be set", "time", t.Format(time.DateTime))
	return nil
}
