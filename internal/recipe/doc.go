// SPDX-License-Identifier: MPL-2.0

// Package recipe discovers and parses recipe manifests.
//
// A manifest is YAML. Steps are written loosely on disk and normalized into
// the closed Step set at load time:
//
//	id: vcredist
//	name: Visual C++ runtime
//	steps:
//	  - run: vc_redist.x64.exe            # bare program
//	  - run: {file: setup.exe, args: [/S]} # command, file or path
//	  - wait_for_exit: true
//	  - winecfg: {version: win10}
//	  - env: {DXVK_HUD: fps, WINEESYNC: 1}
//	  - copy: {from: dxvk.conf, to: drive_c/game/dxvk.conf}
//
// Documents are checked against the embedded recipe_schema.cue before
// normalization. Relative program and copy sources resolve under the
// recipe's resources/ directory.
package recipe
