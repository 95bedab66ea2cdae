// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Base holds lifecycle state shared by socket servers. Servers embed it and
// call Begin, MarkRunning, Fail, BeginStop and Finish from their own Start/Stop.
//
// A Base is single-use: once stopped or failed, create a new server.
type Base struct {
	state atomic.Int32

	// guards lastErr and errCh closing
	mu        sync.Mutex
	lastErr   error
	errClosed bool

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	readyCh chan struct{}
	errCh   chan error

	slots  chan struct{}
	active atomic.Int64
	served atomic.Uint64
}

func New(opts ...Option) *Base {
	b := &Base{
		readyCh: make(chan struct{}),
		errCh:   make(chan error, 1),
	}
	b.state.Store(int32(StateCreated))

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// State is a lock-free read of the current state.
func (b *Base) State() State {
	return State(b.state.Load())
}

func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err delivers errors raised by background goroutines after startup.
// It is closed by Finish.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the error that moved the server to StateFailed.
func (b *Base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Begin moves Created -> Starting. It fails when ctx is already done, in which
// case the server ends up Failed, or when Begin was called before.
func (b *Base) Begin(ctx context.Context) error {
	// Checked before the CAS so a cancelled start never reaches Running.
	if err := ctx.Err(); err != nil {
		b.Fail(fmt.Errorf("context cancelled before start: %w", err))
		return b.LastError()
	}

	if !b.transition(StateCreated, StateStarting) {
		return fmt.Errorf("%w: start while %s", ErrWrongState, b.State())
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	return nil
}

// MarkRunning moves Starting -> Running and releases WaitReady callers.
func (b *Base) MarkRunning() {
	if b.transition(StateStarting, StateRunning) {
		close(b.readyCh)
	}
}

// Fail records err, cancels the lifecycle context and moves to Failed.
func (b *Base) Fail(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()

	b.state.Store(int32(StateFailed))

	if b.cancel != nil {
		b.cancel()
	}
	b.Report(err)
}

// BeginStop moves Starting/Running -> Stopping and cancels the lifecycle
// context. It returns false when there is nothing to stop; a server that never
// started goes straight to Stopped.
func (b *Base) BeginStop() bool {
	for {
		current := b.State()
		switch current {
		case StateCreated:
			if b.transition(StateCreated, StateStopped) {
				return false
			}
		case StateStarting, StateRunning:
			if b.transition(current, StateStopping) {
				if b.cancel != nil {
					b.cancel()
				}
				return true
			}
		default:
			return false
		}
	}
}

// Finish waits for tracked goroutines, marks the server Stopped and closes Err.
func (b *Base) Finish() {
	b.wg.Wait()
	b.state.Store(int32(StateStopped))

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.errClosed {
		b.errClosed = true
		close(b.errCh)
	}
}

// WaitReady blocks until the server is Running or ctx is done.
func (b *Base) WaitReady(ctx context.Context) error {
	select {
	case <-b.readyCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for server ready: %w", ctx.Err())
	}
}

// Ready is closed once the server reaches Running.
func (b *Base) Ready() <-chan struct{} {
	return b.readyCh
}

// Wait blocks until every goroutine started with Go has returned.
func (b *Base) Wait() {
	b.wg.Wait()
}

// Context is cancelled when the server stops or fails. Nil before Begin.
func (b *Base) Context() context.Context {
	return b.ctx
}

// Go runs fn on a tracked goroutine with the lifecycle context.
func (b *Base) Go(fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(b.ctx)
	}()
}

// Report forwards err to Err without blocking; it is dropped when the buffer is full.
func (b *Base) Report(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.errClosed {
		return
	}
	select {
	case b.errCh <- err:
	default:
	}
}

// Acquire reserves a connection slot, blocking while the WithMaxConns cap is
// reached. It returns false when the server stops first. Every successful
// Acquire must be paired with Release.
func (b *Base) Acquire() bool {
	if b.slots != nil {
		select {
		case b.slots <- struct{}{}:
		case <-b.ctx.Done():
			return false
		}
	}
	b.active.Add(1)
	b.served.Add(1)
	return true
}

func (b *Base) Release() {
	b.active.Add(-1)
	if b.slots != nil {
		<-b.slots
	}
}

// Active is the number of connections currently held.
func (b *Base) Active() int64 {
	return b.active.Load()
}

// Served is the number of connections accepted since start.
func (b *Base) Served() uint64 {
	return b.served.Load()
}
