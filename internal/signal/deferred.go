package signal

import (
	"sync"
	"time"
)

// Hysteresis delays showing an indicator and keeps it visible for a minimum
// duration once shown, so short operations never flicker
type Hysteresis struct {
	Delay   time.Duration
	MinShow time.Duration
}

// DeferState is the input and output of Hysteresis.Step
type DeferState struct {
	Busy       bool
	BusySince  time.Time
	Shown      bool
	ShownSince time.Time
}

// Step advances state to now given the current busy flag. recheck is how long
// until the result may change without a busy transition; zero means never.
func (h Hysteresis) Step(state DeferState, busy bool, now time.Time) (next DeferState, recheck time.Duration) {
	next = state
	if busy != next.Busy {
		next.Busy = busy
		if busy {
			next.BusySince = now
		}
	}

	if !next.Shown {
		if !next.Busy {
			return next, 0
		}
		if elapsed := now.Sub(next.BusySince); elapsed < h.Delay {
			return next, h.Delay - elapsed
		}
		next.Shown = true
		next.ShownSince = now
		return next, 0
	}

	if next.Busy {
		return next, 0
	}
	if elapsed := now.Sub(next.ShownSince); elapsed < h.MinShow {
		return next, h.MinShow - elapsed
	}
	next.Shown = false
	return next, 0
}

// Deferred follows a busy signal through Hysteresis and publishes the
// resulting visibility on Visible
type Deferred struct {
	Visible *Signal[bool]

	mu          sync.Mutex
	h           Hysteresis
	state       DeferState
	timer       *time.Timer
	now         func() time.Time
	unsubscribe func()
	stopped     bool
}

// NewDeferred starts following busy
func NewDeferred(busy *Signal[bool], h Hysteresis) *Deferred {
	d := &Deferred{
		Visible: New(false),
		h:       h,
		now:     time.Now,
	}
	d.unsubscribe = busy.Subscribe(d.update)
	d.update(busy.Get())
	return d
}

// Stop detaches from the busy signal and cancels any pending timer
func (d *Deferred) Stop() {
	d.unsubscribe()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Deferred) update(busy bool) {
	d.mu.Lock()
	// a timer callback may still be running when Stop returns
	if d.stopped {
		d.mu.Unlock()
		return
	}
	next, recheck := d.h.Step(d.state, busy, d.now())
	changed := next.Shown != d.state.Shown
	d.state = next

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if recheck > 0 {
		d.timer = time.AfterFunc(recheck, func() {
			d.mu.Lock()
			current := d.state.Busy
			d.mu.Unlock()
			d.update(current)
		})
	}
	d.mu.Unlock()

	if changed {
		d.Visible.Set(next.Shown)
	}
}
