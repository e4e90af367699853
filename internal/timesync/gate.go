// Package timesync decides once per wake cycle whether the node clock needs an SNTP
// exchange and runs it over a temporary WiFi association.
package timesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/camlink/pkg/log"
)

const (
	// LastSyncKey holds the local date (2006-01-02) of the last successful sync.
	LastSyncKey = "last_sync_date"

	DefaultMaxRetries        = 30
	DefaultInProgressBackoff = 2 * time.Second
	DefaultResetBackoff      = 5 * time.Second

	dateLayout = time.DateOnly
)

// Epoch is the earliest plausible clock reading. Anything before it is a cold start.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	// ErrInProgress is returned by a Syncer whose exchange has not completed yet.
	ErrInProgress = errors.New("time sync in progress")
	// ErrRetriesExhausted is reported when no attempt completed.
	ErrRetriesExhausted = errors.New("time sync retries exhausted")
)

// KV is the persistent store that remembers the last sync date.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// WiFi brings the radio up in station mode for the duration of a sync.
type WiFi interface {
	Connect(ctx context.Context, ssid, password string) error
	Disconnect() error
}

// Syncer performs one synchronization attempt and returns the corrected time.
// ErrInProgress asks for a short backoff; any other error is a reset with a longer one.
type Syncer interface {
	Sync(ctx context.Context) (time.Time, error)
}

type Config struct {
	SSID     string
	Password string
	// Location decides what "today" means for the persisted date.
	Location          *time.Location
	MaxRetries        int
	InProgressBackoff time.Duration
	ResetBackoff      time.Duration
}

func (c *Config) setDefaults() {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.InProgressBackoff <= 0 {
		c.InProgressBackoff = DefaultInProgressBackoff
	}
	if c.ResetBackoff <= 0 {
		c.ResetBackoff = DefaultResetBackoff
	}
}

// Result describes what the gate did in this cycle.
type Result struct {
	Needed   bool
	Synced   bool
	Attempts int
	Err      error
}

type Gate struct {
	cfg    Config
	kv     KV
	wifi   WiFi
	syncer Syncer
	clock  clock.Clock
	log    log.Logger
}

func NewGate(cfg Config, kv KV, wifi WiFi, syncer Syncer, c clock.Clock, logger log.Logger) *Gate {
	cfg.setDefaults()
	if c == nil {
		c = clock.RealClock{}
	}
	return &Gate{cfg: cfg, kv: kv, wifi: wifi, syncer: syncer, clock: c, log: log.OrStd(logger).WithName("timesync")}
}

// NeedsSync reports whether the clock is before Epoch or today has no recorded sync.
// A store read failure counts as "not synced today".
func (g *Gate) NeedsSync() bool {
	now := g.clock.Now()
	if now.Before(Epoch) {
		g.log.Info("Clock is before the plausibility epoch, sync required", "now", now.UTC(), "epoch", Epoch)
		return true
	}

	last, ok, err := g.kv.Get(LastSyncKey)
	if err != nil {
		g.log.Error(err, "Failed to read last sync date, sync required")
		return true
	}
	today := now.In(g.cfg.Location).Format(dateLayout)
	if !ok || last != today {
		g.log.Info("No sync recorded today, sync required", "lastSync", last, "today", today)
		return true
	}

	g.log.Debug("Time sync not needed", "lastSync", last)
	return false
}

// Run syncs when NeedsSync says so. Failures are reported in Result and logged, never returned:
// the cycle continues on whatever clock it has.
func (g *Gate) Run(ctx context.Context) Result {
	if !g.NeedsSync() {
		return Result{}
	}

	res := Result{Needed: true}
	if err := g.wifi.Connect(ctx, g.cfg.SSID, g.cfg.Password); err != nil {
		res.Err = fmt.Errorf("wifi connect: %w", err)
		g.log.Error(res.Err, "Time sync skipped, continuing with the current clock", "ssid", g.cfg.SSID)
		g.disconnect()
		return res
	}
	defer g.disconnect()

	synced, attempts, err := g.poll(ctx)
	res.Attempts = attempts
	if err != nil {
		res.Err = err
		g.log.Error(err, "Time sync failed, continuing with the current clock", "attempts", attempts)
		return res
	}
	res.Synced = true

	date := synced.In(g.cfg.Location).Format(dateLayout)
	if err := g.kv.Set(LastSyncKey, date); err != nil {
		g.log.Error(err, "Failed to persist last sync date", "date", date)
	}
	g.log.Info("Time synchronized", "time", synced.In(g.cfg.Location).Format(time.DateTime), "attempts", attempts)
	return res
}

func (g *Gate) poll(ctx context.Context) (time.Time, int, error) {
	for attempt := 1; attempt <= g.cfg.MaxRetries; attempt++ {
		t, err := g.syncer.Sync(ctx)
		if err == nil {
			return t, attempt, nil
		}
		if ctx.Err() != nil {
			return time.Time{}, attempt, ctx.Err()
		}

		backoff := g.cfg.ResetBackoff
		if errors.Is(err, ErrInProgress) {
			backoff = g.cfg.InProgressBackoff
		}
		g.log.Debug("Time sync attempt did not complete", "attempt", attempt, "of", g.cfg.MaxRetries, "reason", err.Error(), "backoff", backoff)
		if attempt == g.cfg.MaxRetries/2 {
			g.log.Warn("Time sync still incomplete at half the retry budget", "attempt", attempt, "of", g.cfg.MaxRetries)
		}
		if attempt < g.cfg.MaxRetries {
			g.clock.Sleep(backoff)
		}
	}
	return time.Time{}, g.cfg.MaxRetries, ErrRetriesExhausted
}

func (g *Gate) disconnect() {
	if err := g.wifi.Disconnect(); err != nil {
		g.log.Warn("WiFi disconnect failed", "reason", err.Error())
	}
}
