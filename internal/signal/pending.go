package signal

import "sync"

// Pending counts in-flight operations. Busy is true while at least one runs.
type Pending struct {
	mu    sync.Mutex
	count int
	Busy  *Signal[bool]
}

// NewPending creates an idle pending counter
func NewPending() *Pending {
	return &Pending{Busy: New(false)}
}

// Track runs fn while counted as in flight
func (p *Pending) Track(fn func() error) error {
	p.add(1)
	defer p.add(-1)
	return fn()
}

// Count returns the number of in-flight operations
func (p *Pending) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func (p *Pending) add(delta int) {
	p.mu.Lock()
	before := p.count > 0
	p.count += delta
	after := p.count > 0
	// Set under the lock so concurrent transitions are published in order
	if before != after {
		p.Busy.Set(after)
	}
	p.mu.Unlock()
}
