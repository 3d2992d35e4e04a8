package convert

import "fmt"

const (
	DefaultAbsTolerance = 0.01
	DefaultRelTolerance = 1e-4
)

// Options tune the area cross-check.
type Options struct {
	AbsTolerance float64
	RelTolerance float64
	StrictArea   bool
}

type Option func(*Options)

// WithAreaTolerance sets the absolute (m^2) and relative tolerances. Negative
// values are ignored.
func WithAreaTolerance(abs, rel float64) Option {
	return func(o *Options) {
		if abs >= 0 {
			o.AbsTolerance = abs
		}
		if rel >= 0 {
			o.RelTolerance = rel
		}
	}
}

// WithStrictArea turns area mismatches into errors.
func WithStrictArea(strict bool) Option {
	return func(o *Options) { o.StrictArea = strict }
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{AbsTolerance: DefaultAbsTolerance, RelTolerance: DefaultRelTolerance}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Apply returns an Option that restores o.
func (o Options) Apply() Option {
	return func(dst *Options) { *dst = o }
}

// Fingerprint is a stable text form used in cache keys.
func (o Options) Fingerprint() string {
	return fmt.Sprintf("abs=%g;rel=%g;strict=%t", o.AbsTolerance, o.RelTolerance, o.StrictArea)
}
