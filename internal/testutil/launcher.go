// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/siliconalloy/alloy/internal/runtime"
	"github.com/siliconalloy/alloy/pkg/types"
)

// RecordingLauncher implements runtime.Launcher without starting processes.
// Each call is recorded; Respond decides the outcome and defaults to exit 0.
type RecordingLauncher struct {
	mu       sync.Mutex
	requests []runtime.Request

	// Respond is called with the zero-based call index and the request.
	Respond func(call int, req runtime.Request) (runtime.Result, error)
}

func (l *RecordingLauncher) Launch(_ context.Context, req runtime.Request) (runtime.Result, error) {
	l.mu.Lock()
	call := len(l.requests)
	req.Args = slices.Clone(req.Args)
	req.Env = req.Env.Clone()
	l.requests = append(l.requests, req)
	respond := l.Respond
	l.mu.Unlock()

	if respond == nil {
		return runtime.Result{ExitCode: types.ExitCode(0)}, nil
	}
	return respond(call, req)
}

// Requests returns a copy of the recorded requests in call order.
func (l *RecordingLauncher) Requests() []runtime.Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.requests)
}
