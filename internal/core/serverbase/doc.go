// SPDX-License-Identifier: MPL-2.0

// Package serverbase provides the lifecycle state machine used by the daemon's
// socket server: atomic state reads, a cancellable lifecycle context, tracked
// goroutines and connection accounting.
package serverbase
