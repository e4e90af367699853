// Package fsm adapts error-returning handlers to looplab/fsm callbacks.
package fsm

import (
	"context"

	"github.com/looplab/fsm"
)

// Handler runs on a transition. A non-nil error is recorded on the event.
type Handler func(ctx context.Context, event *fsm.Event) error

// WrapEvent turns fn into a callback that stores its error in event.Err.
func WrapEvent(fn Handler) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// OnEnter adds an enter_<state> callback to cbs for every handler and returns cbs.
func OnEnter(cbs fsm.Callbacks, handlers map[string]Handler) fsm.Callbacks {
	if cbs == nil {
		cbs = fsm.Callbacks{}
	}
	for state, h := range handlers {
		cbs["enter_"+state] = WrapEvent(h)
	}
	return cbs
}
