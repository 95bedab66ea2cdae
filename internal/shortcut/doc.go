// SPDX-License-Identifier: MPL-2.0

// Package shortcut writes macOS application bundles that start a Windows
// executable inside a bottle. A bundle is a directory named "<name>.app"
// holding an Info.plist and a zsh launcher script; it carries no copy of
// the bottle, only its paths and environment at creation time.
package shortcut
