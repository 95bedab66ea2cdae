// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize caps documents handed to the CUE evaluator (1MB).
// Config files and recipe manifests are tiny; anything larger is a mistake.
const DefaultMaxFileSize int64 = 1 << 20

// Option adjusts a single Parse or ValidateValue call.
type Option func(*parseOptions)

type parseOptions struct {
	maxFileSize int64
	// concrete requires every field to have a value after unification.
	concrete bool
	filename string
}

func applyOptions(opts []Option) parseOptions {
	o := parseOptions{maxFileSize: DefaultMaxFileSize, concrete: true, filename: "<input>"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) { o.maxFileSize = size }
}

// WithConcrete(false) accepts documents that leave schema fields open, as
// the config file does.
func WithConcrete(concrete bool) Option {
	return func(o *parseOptions) { o.concrete = concrete }
}

// WithFilename names the document in error positions.
func WithFilename(name string) Option {
	return func(o *parseOptions) {
		if name != "" {
			o.filename = name
		}
	}
}
