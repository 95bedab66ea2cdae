// SPDX-License-Identifier: MPL-2.0

// Package daemon holds the long-lived state of the bottle daemon and maps
// RPC method names onto the bottle store, runtime catalog, recipe catalog
// and provisioner.
//
// The runtime catalog is a snapshot taken at construction: runtimes
// installed while the daemon runs stay invisible until it restarts.
// Recipes, by contrast, are re-read from disk on every call.
package daemon
