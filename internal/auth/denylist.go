package auth

import (
	"sync"
	"time"
)

// Denylist remembers revoked token ids until the tokens would have expired
// on their own. Entries are pruned whenever a new one is added and on Prune.
type Denylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewDenylist creates an empty denylist.
func NewDenylist() *Denylist {
	return &Denylist{entries: make(map[string]time.Time), now: time.Now}
}

// Revoke denies the token id until expiresAt.
func (d *Denylist) Revoke(id string, expiresAt time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.prune(now)
	if expiresAt.After(now) {
		d.entries[id] = expiresAt
	}
}

// Prune drops expired entries and returns how many were dropped.
func (d *Denylist) Prune() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prune(d.now())
}

func (d *Denylist) prune(now time.Time) int {
	dropped := 0
	for k, exp := range d.entries {
		if !exp.After(now) {
			delete(d.entries, k)
			dropped++
		}
	}
	return dropped
}

// Revoked reports whether the token id is currently denied.
func (d *Denylist) Revoked(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	exp, ok := d.entries[id]
	return ok && exp.After(d.now())
}

// Len returns the number of remembered entries, expired ones included.
func (d *Denylist) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
