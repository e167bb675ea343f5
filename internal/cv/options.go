package cv

import "image"

// Option tunes a MatchBest call
type Option func(*matchOptions)

type matchOptions struct {
	region *image.Rectangle
	logf   func(string)
}

// WithRegion restricts the search to a sub-rectangle of the screenshot
func WithRegion(r image.Rectangle) Option {
	return func(opts *matchOptions) {
		opts.region = &r
	}
}

// WithLogger receives one line per skipped template
func WithLogger(logf func(string)) Option {
	return func(opts *matchOptions) {
		opts.logf = logf
	}
}

func buildOptions(opts []Option) matchOptions {
	var o matchOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.logf == nil {
		o.logf = func(string) {}
	}
	return o
}
