// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// exitScript exits with the code in $ALLOY_FAKE_EXIT (default 0) and records
// its arguments, working directory and WINEPREFIX to $ALLOY_FAKE_LOG when set.
const exitScript = `#!/bin/sh
if [ -n "$ALLOY_FAKE_LOG" ]; then
	printf '%s|%s|%s\n' "$(pwd)" "$WINEPREFIX" "$*" >> "$ALLOY_FAKE_LOG"
fi
exit "${ALLOY_FAKE_EXIT:-0}"
`

// FakeRuntimeTree creates <root>/wine-<arch>-<version>/bin/{wine64,winecfg}
// as executable shell scripts and returns the wine64 path.
func FakeRuntimeTree(t testing.TB, root, arch, version string) string {
	t.Helper()
	bin := filepath.Join(root, "wine-"+arch+"-"+version, "bin")
	wine64 := filepath.Join(bin, "wine64")
	MustWriteFile(t, wine64, []byte(exitScript), 0o755)
	MustWriteFile(t, filepath.Join(bin, "winecfg"), []byte(exitScript), 0o755)
	return wine64
}
