// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// MustWriteFile writes data to path, creating missing parent directories.
func MustWriteFile(t testing.TB, path string, data []byte, perm os.FileMode) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, data, perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func MustClose(t testing.TB, c io.Closer) {
	t.Helper()
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

// MustStop stops a server. Shutdown errors are logged only: the test under
// way has already checked what it cares about.
func MustStop(t testing.TB, s interface{ Stop() error }) {
	t.Helper()
	if err := s.Stop(); err != nil {
		t.Logf("stop: %v", err)
	}
}

// FixedClock returns a time source that always reports at. Store tests pass
// it as the creation clock so timestamps are predictable.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
