// SPDX-License-Identifier: MPL-2.0

package serverbase

// Option configures a Base.
type Option func(*Base)

// WithErrorBuffer sets the capacity of the async error channel (default 1).
func WithErrorBuffer(size int) Option {
	return func(b *Base) {
		b.errCh = make(chan error, size)
	}
}

// WithMaxConns caps the number of connections handled at once. Zero means no cap.
func WithMaxConns(n int) Option {
	return func(b *Base) {
		if n > 0 {
			b.slots = make(chan struct{}, n)
		}
	}
}
