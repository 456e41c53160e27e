package reconcile

import (
	"sync"
	"time"
)

// DefaultTrustWindow is how long an unconfirmed local add survives stale reads.
const DefaultTrustWindow = 30 * time.Second

// PendingSet tracks locally applied adds the backend has not confirmed yet.
// Each key carries an expiry; expired keys are dropped by Prune.
type PendingSet struct {
	mu      sync.RWMutex
	window  time.Duration
	expires map[string]time.Time
}

// NewPendingSet returns a set with the given trust window. A non-positive
// window falls back to DefaultTrustWindow.
func NewPendingSet(window time.Duration) *PendingSet {
	if window <= 0 {
		window = DefaultTrustWindow
	}
	return &PendingSet{
		window:  window,
		expires: make(map[string]time.Time),
	}
}

// Window returns the trust window.
func (p *PendingSet) Window() time.Duration {
	return p.window
}

// Put records key as added at now. Re-adding refreshes the expiry.
func (p *PendingSet) Put(key string, now time.Time) {
	p.mu.Lock()
	p.expires[key] = now.Add(p.window)
	p.mu.Unlock()
}

// Delete forgets key.
func (p *PendingSet) Delete(key string) {
	p.mu.Lock()
	delete(p.expires, key)
	p.mu.Unlock()
}

// Active reports whether key is pending and still inside its window.
func (p *PendingSet) Active(key string, now time.Time) bool {
	p.mu.RLock()
	exp, ok := p.expires[key]
	p.mu.RUnlock()
	return ok && !now.After(exp)
}

// Prune drops every key whose window has elapsed and returns how many went.
func (p *PendingSet) Prune(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for key, exp := range p.expires {
		if now.After(exp) {
			delete(p.expires, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys, expired or not.
func (p *PendingSet) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.expires)
}

// Reset forgets all keys.
func (p *PendingSet) Reset() {
	p.mu.Lock()
	p.expires = make(map[string]time.Time)
	p.mu.Unlock()
}
