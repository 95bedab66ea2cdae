// SPDX-License-Identifier: MPL-2.0

package bottle

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLocks_SerializesSameID(t *testing.T) {
	t.Parallel()

	var locks Locks
	id := uuid.New()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			unlock := locks.Lock(id)
			defer unlock()
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		})
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside.Load())
	}
	if locks.held(id) != 0 {
		t.Errorf("entry for %s not released", id)
	}
}

func TestLocks_IndependentIDs(t *testing.T) {
	t.Parallel()

	var locks Locks
	a, b := uuid.New(), uuid.New()

	unlockA := locks.Lock(a)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(b)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lock on a different id blocked")
	}
}

func TestLocks_UnlockIsIdempotent(t *testing.T) {
	t.Parallel()

	var locks Locks
	id := uuid.New()
	unlock := locks.Lock(id)
	unlock()
	unlock()

	relock := locks.Lock(id)
	if locks.held(id) != 1 {
		t.Errorf("held = %d, want 1", locks.held(id))
	}
	relock()
}
