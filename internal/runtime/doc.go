// SPDX-License-Identifier: MPL-2.0

// Package runtime discovers installed wine runtimes, selects one for a new
// bottle, and launches processes through it.
//
// Discovery scans <root>/wine-<arch>-<version>/bin/wine64. The daemon wraps
// the result in a Catalog snapshot once at startup; Catalog.Select never
// fails and falls back to a conventional path under the root.
//
// Launches go through the Launcher interface. NativeLauncher executes on the
// host behind an optional translator prefix and layers the environment as
// documented on EnvBuilder.
package runtime
