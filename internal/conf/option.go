// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package conf

import "github.com/hashicorp/go-hclog"

// Option - how Options are passed as arguments.
type Option func(*options)

type options struct {
	withLogger hclog.Logger
}

func getOpts(opt ...Option) options {
	opts := options{}
	for _, o := range opt {
		if o != nil {
			o(&opts)
		}
	}
	return opts
}

// WithLogger provides a logger used to warn about deprecated options.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) {
		o.withLogger = l
	}
}
