package timesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/camlink/pkg/log"
)

type memKV struct {
	m      map[string]string
	getErr error
}

func (k *memKV) Get(key string) (string, bool, error) {
	if k.getErr != nil {
		return "", false, k.getErr
	}
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *memKV) Set(key, value string) error {
	if k.m == nil {
		k.m = map[string]string{}
	}
	k.m[key] = value
	return nil
}

type fakeWiFi struct {
	connectErr  error
	connects    int
	disconnects int
}

func (w *fakeWiFi) Connect(context.Context, string, string) error {
	w.connects++
	return w.connectErr
}

func (w *fakeWiFi) Disconnect() error {
	w.disconnects++
	return nil
}

// scriptedSyncer returns errs in order, then succeeds with at.
type scriptedSyncer struct {
	errs  []error
	at    time.Time
	calls int
}

func (s *scriptedSyncer) Sync(context.Context) (time.Time, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return time.Time{}, s.errs[s.calls-1]
	}
	return s.at, nil
}

var noon = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNeedsSync(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)

	tests := []struct {
		name string
		now  time.Time
		kv   *memKV
		want bool
	}{
		{"cold start", time.Date(1970, 1, 1, 0, 0, 5, 0, time.UTC), &memKV{m: map[string]string{LastSyncKey: "1970-01-01"}}, true},
		{"never synced", noon, &memKV{}, true},
		{"synced yesterday", noon, &memKV{m: map[string]string{LastSyncKey: "2025-05-31"}}, true},
		{"synced today", noon, &memKV{m: map[string]string{LastSyncKey: "2025-06-01"}}, false},
		// 20:00 UTC is already the next day in the gate's zone.
		{"date in local zone", time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC), &memKV{m: map[string]string{LastSyncKey: "2025-06-01"}}, true},
		{"store error", noon, &memKV{getErr: errors.New("flash read")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(Config{Location: tokyo}, tt.kv, &fakeWiFi{}, &scriptedSyncer{}, clocktesting.NewFakeClock(tt.now), log.NewNopLogger())
			if got := g.NeedsSync(); got != tt.want {
				t.Errorf("NeedsSync() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunSkipsWhenSynced(t *testing.T) {
	wifi := &fakeWiFi{}
	g := NewGate(Config{}, &memKV{m: map[string]string{LastSyncKey: "2025-06-01"}}, wifi, &scriptedSyncer{}, clocktesting.NewFakeClock(noon), nil)

	if res := g.Run(context.Background()); res.Needed || res.Synced {
		t.Errorf("Run() = %+v", res)
	}
	if wifi.connects != 0 {
		t.Error("radio brought up without a sync")
	}
}

func TestRunRetriesWithBackoff(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	kv := &memKV{}
	wifi := &fakeWiFi{}
	syncer := &scriptedSyncer{errs: []error{ErrInProgress, ErrInProgress, errors.New("kod"), ErrInProgress}, at: noon}

	g := NewGate(Config{SSID: "field"}, kv, wifi, syncer, fc, nil)
	start := fc.Now()
	res := g.Run(context.Background())

	if !res.Synced || res.Attempts != 5 || res.Err != nil {
		t.Fatalf("Run() = %+v", res)
	}
	if got, want := fc.Since(start), 3*DefaultInProgressBackoff+DefaultResetBackoff; got != want {
		t.Errorf("backed off %v, want %v", got, want)
	}
	if kv.m[LastSyncKey] != "2025-06-01" {
		t.Errorf("persisted %q", kv.m[LastSyncKey])
	}
	if wifi.connects != 1 || wifi.disconnects != 1 {
		t.Errorf("wifi connects %d disconnects %d", wifi.connects, wifi.disconnects)
	}
}

func TestRunExhaustsRetries(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	fc := clocktesting.NewFakeClock(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	kv := &memKV{}
	wifi := &fakeWiFi{}
	errs := make([]error, DefaultMaxRetries)
	for i := range errs {
		errs[i] = ErrInProgress
	}
	syncer := &scriptedSyncer{errs: errs}

	res := NewGate(Config{}, kv, wifi, syncer, fc, log.NewFromCore(core)).Run(context.Background())

	if res.Synced || !errors.Is(res.Err, ErrRetriesExhausted) || res.Attempts != DefaultMaxRetries {
		t.Fatalf("Run() = %+v", res)
	}
	if syncer.calls != DefaultMaxRetries {
		t.Errorf("syncer called %d times", syncer.calls)
	}
	if _, ok := kv.m[LastSyncKey]; ok {
		t.Error("failed sync recorded a date")
	}
	if wifi.disconnects != 1 {
		t.Error("radio left associated after failure")
	}
	if logs.FilterMessage("Time sync still incomplete at half the retry budget").Len() != 1 {
		t.Error("half-budget warning missing")
	}
	if logs.FilterMessage("Time sync failed, continuing with the current clock").Len() != 1 {
		t.Error("failure not logged")
	}
}

func TestRunWiFiFailure(t *testing.T) {
	wifi := &fakeWiFi{connectErr: errors.New("no ap")}
	syncer := &scriptedSyncer{}
	res := NewGate(Config{SSID: "field"}, &memKV{}, wifi, syncer, clocktesting.NewFakeClock(noon), nil).Run(context.Background())

	if res.Synced || res.Err == nil || syncer.calls != 0 {
		t.Errorf("Run() = %+v, syncer calls %d", res, syncer.calls)
	}
	if wifi.disconnects != 1 {
		t.Error("radio not released after a failed association")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	syncer := &scriptedSyncer{errs: []error{context.Canceled}}
	res := NewGate(Config{}, &memKV{}, &fakeWiFi{}, syncer, clocktesting.NewFakeClock(noon), nil).Run(ctx)

	if !errors.Is(res.Err, context.Canceled) || syncer.calls != 1 {
		t.Errorf("Run() = %+v after %d calls", res, syncer.calls)
	}
}
