// SPDX-License-Identifier: MPL-2.0

// Package issue classifies errors and turns them into user guidance.
//
// Daemon components classify failures with the kind sentinels in kind.go
// (ErrNotFound, ErrInvalidInput, ...); KindOf maps an error to the stable string
// carried in RPC error payloads. The client side wraps failures in an
// ActionableError and may render a Markdown catalog entry with glamour.
package issue
