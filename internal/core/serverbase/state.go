// SPDX-License-Identifier: MPL-2.0

package serverbase

import "errors"

// State is the lifecycle position of a server. It only moves forward:
//
//	Created -> Starting -> Running -> Stopping -> Stopped
//
// with Failed reachable from any non-terminal state, and Created -> Stopped
// for a server that is stopped without ever starting.
type State int32

const (
	StateCreated State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
	StateFailed
)

// ErrWrongState is returned when a lifecycle call does not fit the current state,
// such as starting a server twice.
var ErrWrongState = errors.New("server lifecycle call out of order")

var stateNames = [...]string{
	StateCreated:  "created",
	StateStarting: "starting",
	StateRunning:  "running",
	StateStopping: "stopping",
	StateStopped:  "stopped",
	StateFailed:   "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// IsTerminal reports whether the server can no longer be used.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}

// transition moves from -> to atomically. It reports false when another
// goroutine changed the state first.
func (b *Base) transition(from, to State) bool {
	return b.state.CompareAndSwap(int32(from), int32(to))
}
