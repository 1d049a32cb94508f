// Package locker provides per-key mutual exclusion for single-node
// deployments. Cycle opening and bulk membership inserts for the same group
// must not interleave; both take the group's lock for the duration of the
// operation.
package locker

import "sync"

// Locker hands out one mutex per key.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty Locker.
func New() *Locker {
	return &Locker{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking until it is free, and returns
// the matching unlock function. Entries are dropped once unreferenced so the
// map does not grow with every group ever locked.
func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
