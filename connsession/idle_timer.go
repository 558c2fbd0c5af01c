package connsession

import (
	"time"

	"github.com/dmitrymomot/httprelay/conntimer"
)

// timerHandle adapts conntimer.Timer (component C2) into the session's
// idle-timeout policy: every read/write completion re-arms the deadline,
// and a zero duration disables the timer entirely rather than firing
// immediately.
type timerHandle struct {
	d   time.Duration
	t   *conntimer.Timer
	off chan conntimer.Result // never fires; used when d == 0
}

func newTimerHandle(d time.Duration) *timerHandle {
	h := &timerHandle{d: d, off: make(chan conntimer.Result)}
	if d > 0 {
		h.t = conntimer.New()
		h.t.ExpiresFromNow(d)
	}
	return h
}

// touch re-arms the deadline after activity. No-op when disabled.
func (h *timerHandle) touch() {
	if h.t != nil {
		h.t.ExpiresFromNow(h.d)
	}
}

// fired returns the channel the run loop selects on for idle-timeout.
func (h *timerHandle) fired() <-chan conntimer.Result {
	if h.t == nil {
		return h.off
	}
	return h.t.Wait()
}

func (h *timerHandle) stop() {
	if h.t != nil {
		h.t.Cancel()
	}
}
