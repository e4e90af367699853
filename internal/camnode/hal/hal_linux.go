//go:build linux && !camlink_mock

package hal

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/autopeer-io/camlink/internal/camnode/core"
	"github.com/autopeer-io/camlink/pkg/log"
)

// LinuxHAL drives a Linux single-board node through sysfs and NetworkManager.
type LinuxHAL struct {
	cfg Config
	log log.Logger
}

func NewHAL(cfg Config) core.HAL {
	cfg.setDefaults()
	return &LinuxHAL{cfg: cfg, log: log.WithName("hal")}
}

func readNumber(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
}

func (h *LinuxHAL) ReadMillivolts() (int, error) {
	raw, err := readNumber(h.cfg.ADCRawPath)
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}
	scale, err := readNumber(h.cfg.ADCScalePath)
	if err != nil {
		return 0, fmt.Errorf("read adc scale: %w", err)
	}
	return int(math.Round(raw * scale * h.cfg.DividerRatio)), nil
}

func (h *LinuxHAL) ReadFrame() (image.Image, error) {
	f, err := os.Open(h.cfg.FramePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// DeepSleep arms the RTC alarm and suspends to RAM. The process exits afterwards so the
// next wake starts a fresh cycle. The alarm has one second resolution, so d is rounded up
// and sub-second compensation is lost.
func (h *LinuxHAL) DeepSleep(d time.Duration) {
	secs, extra := rtcAlarm(d)
	h.log.Info("Suspending", "seconds", secs, "requested", d, "roundedUpBy", extra)

	if err := os.WriteFile(h.cfg.RTCWakePath, []byte("0"), 0); err != nil {
		h.log.Error(err, "Failed to clear RTC alarm")
	}
	if err := os.WriteFile(h.cfg.RTCWakePath, []byte("+"+strconv.FormatInt(secs, 10)), 0); err != nil {
		h.log.Error(err, "Failed to arm RTC alarm, sleeping in process")
		time.Sleep(d)
		os.Exit(0)
	}
	syscall.Sync()
	if err := os.WriteFile(h.cfg.PowerStatePath, []byte("mem"), 0); err != nil {
		h.log.Error(err, "Suspend failed, sleeping in process")
		time.Sleep(d)
	}
	os.Exit(0)
}

func (h *LinuxHAL) Connect(ctx context.Context, ssid, password string) error {
	args := []string{"device", "wifi", "connect", ssid, "ifname", h.cfg.WiFiInterface}
	if password != "" {
		args = append(args, "password", password)
	}
	if out, err := exec.CommandContext(ctx, "nmcli", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("nmcli connect: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (h *LinuxHAL) Disconnect() error {
	if out, err := exec.Command("nmcli", "device", "disconnect", h.cfg.WiFiInterface).CombinedOutput(); err != nil {
		return fmt.Errorf("nmcli disconnect: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (h *LinuxHAL) SetTime(t time.Time) error {
	tv := syscall.NsecToTimeval(t.UnixNano())
	return syscall.Settimeofday(&tv)
}
