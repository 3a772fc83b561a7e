package server

import (
	"sync"
	"time"
)

const turnWarningLead = 3 * time.Second

// turnTimer is one scheduled warning/timeout pair for a room's current turn.
// A room holds at most one live handle; replacing it cancels the old pair, so
// a superseded timer can never fire against a later turn.
type turnTimer struct {
	warning *time.Timer
	timeout *time.Timer
	once    sync.Once
}

// newTurnTimer schedules onWarning at timeout-3s (skipped for very short
// timeouts) and onTimeout at the full duration. Callbacks run on their own
// goroutines and must re-check room state themselves.
func newTurnTimer(timeout time.Duration, onWarning, onTimeout func()) *turnTimer {
	t := &turnTimer{}
	if timeout > turnWarningLead {
		t.warning = time.AfterFunc(timeout-turnWarningLead, onWarning)
	}
	t.timeout = time.AfterFunc(timeout, onTimeout)
	return t
}

// Cancel stops both timers. Safe to call more than once and after firing.
func (t *turnTimer) Cancel() {
	t.once.Do(func() {
		if t.warning != nil {
			t.warning.Stop()
		}
		t.timeout.Stop()
	})
}
