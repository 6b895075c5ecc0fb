package config

import "context"

// key is an unexported type for context keys defined in this package,
// mirroring neat.context.go's collision-avoidance pattern.
type key int

var optionsKey key

// NewContext returns a new Context carrying opts.
func NewContext(ctx context.Context, opts *Options) context.Context {
	return context.WithValue(ctx, optionsKey, opts)
}

// FromContext returns the Options value stored in ctx, if any.
func FromContext(ctx context.Context) (*Options, bool) {
	o, ok := ctx.Value(optionsKey).(*Options)
	return o, ok
}
