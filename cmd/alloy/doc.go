// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for alloy.
//
// Client commands talk to a running daemon over its unix socket; the daemon
// itself is started in the foreground with "alloy daemon".
package cmd
