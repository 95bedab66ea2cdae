// SPDX-License-Identifier: MPL-2.0

// Package provision applies recipes to bottles.
//
// Steps run one at a time against an in-memory copy of the bottle record.
// Run launches the resolved program itself, through the launcher's
// translator prefix; WineCfg launches the runtime's winecfg next to wine64.
// Both use the bottle prefix as working directory and WINEPREFIX.
package provision
