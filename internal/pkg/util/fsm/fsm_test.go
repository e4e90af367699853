package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
)

func TestOnEnterRecordsHandlerErrors(t *testing.T) {
	boom := errors.New("boom")
	var entered []string

	f := fsm.NewFSM("idle", fsm.Events{
		{Name: "start", Src: []string{"idle"}, Dst: "running"},
		{Name: "fail", Src: []string{"running"}, Dst: "broken"},
	}, OnEnter(nil, map[string]Handler{
		"running": func(_ context.Context, e *fsm.Event) error {
			entered = append(entered, e.Dst)
			return nil
		},
		"broken": func(_ context.Context, e *fsm.Event) error {
			entered = append(entered, e.Dst)
			return boom
		},
	}))

	if err := f.Event(context.Background(), "start"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.Event(context.Background(), "fail"); !errors.Is(err, boom) {
		t.Errorf("fail: error = %v, want %v", err, boom)
	}
	if len(entered) != 2 || entered[0] != "running" || entered[1] != "broken" {
		t.Errorf("entered = %v", entered)
	}
}
