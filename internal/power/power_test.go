package power

import (
	"errors"
	"testing"

	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/pkg/log"
)

func TestPercent(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		mv   int
		want uint8
	}{
		{0, 0},
		{2500, 0},
		{3000, 0},
		{3012, 1},
		{3096, 8},
		{3600, 50},
		{4199, 99},
		{4200, 100},
		{5000, 100},
	}

	for _, tt := range tests {
		if got := p.Percent(tt.mv); got != tt.want {
			t.Errorf("Percent(%d) = %d, want %d", tt.mv, got, tt.want)
		}
	}

	if got := (Policy{MinMV: 4000, MaxMV: 3000}).Percent(3500); got != 0 {
		t.Errorf("inverted reference points gave %d", got)
	}
}

func TestDecide(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		pct  uint8
		want Decision
	}{
		{0, LongSleep},
		{1, Placeholder},
		{7, Placeholder},
		{8, Capture},
		{100, Capture},
	}

	for _, tt := range tests {
		if got := p.Decide(tt.pct); got != tt.want {
			t.Errorf("Decide(%d) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}

type fakeADC struct {
	mv  int
	err error
}

func (f fakeADC) ReadMillivolts() (int, error) { return f.mv, f.err }

func TestGateEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		adc     fakeADC
		wantPct uint8
		want    Decision
	}{
		{"healthy", fakeADC{mv: 3900}, 75, Capture},
		{"low", fakeADC{mv: 3050}, 4, Placeholder},
		{"empty", fakeADC{mv: 2900}, 0, LongSleep},
		{"read failure", fakeADC{err: errors.New("adc busy")}, protocol.VoltageUnknown, LongSleep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewGate(tt.adc, DefaultPolicy(), log.NewNopLogger()).Evaluate()
			if r.Percent != tt.wantPct || r.Decision != tt.want {
				t.Errorf("Evaluate() = %+v", r)
			}
			if (r.Err != nil) != (tt.adc.err != nil) {
				t.Errorf("Evaluate() error = %v", r.Err)
			}
		})
	}
}
