// SPDX-License-Identifier: MPL-2.0

package bottle

import (
	"sync"

	"github.com/google/uuid"
)

// Locks is a keyed mutex table. Read-modify-write sequences on one bottle
// (recipe.apply, bottle.delete) hold its lock; different bottles never
// contend. Entries are dropped when their last holder unlocks.
type Locks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until id is free and returns the matching unlock function.
func (l *Locks) Lock(id uuid.UUID) (unlock func()) {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[uuid.UUID]*lockEntry)
	}
	e, ok := l.entries[id]
	if !ok {
		e = &lockEntry{}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, id)
			}
			l.mu.Unlock()
		})
	}
}

// held reports how many callers hold or wait for id.
func (l *Locks) held(id uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[id]; ok {
		return e.refs
	}
	return 0
}
