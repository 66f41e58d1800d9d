// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package db

import (
	"github.com/hashicorp/go-dbw"
	"github.com/hashicorp/go-hclog"
)

// GetOpts - iterate the inbound Options and return a struct.
func GetOpts(opt ...Option) Options {
	opts := getDefaultOptions()
	for _, o := range opt {
		if o != nil {
			o(&opts)
		}
	}
	return opts
}

// Option - how Options are passed as arguments.
type Option func(*Options)

// Options - how Options are represented.
type Options struct {
	withLookup             bool
	withLimit              int
	withOrder              string
	withDebug              bool
	withTable              string
	withMaxOpenConnections int
	withMaxIdleConnections *int
	withGormFormatter      hclog.Logger
}

func getDefaultOptions() Options {
	return Options{}
}

// WithLookup enables a lookup after a write operation.
func WithLookup(enable bool) Option {
	return func(o *Options) {
		o.withLookup = enable
	}
}

// WithLimit provides an option to provide a limit.  Intentionally allowing
// negative integers.   If WithLimit < 0, then unlimited results are returned.
// If WithLimit == 0, then default limits are used for results.
func WithLimit(limit int) Option {
	return func(o *Options) {
		o.withLimit = limit
	}
}

// WithOrder provides an option to provide an order when searching and looking
// up.
func WithOrder(order string) Option {
	return func(o *Options) {
		o.withOrder = order
	}
}

// WithDebug specifies the given operation should invoke debug mode in Gorm
func WithDebug(with bool) Option {
	return func(o *Options) {
		o.withDebug = with
	}
}

// WithTable specifies a table name to use for the operation.
func WithTable(name string) Option {
	return func(o *Options) {
		o.withTable = name
	}
}

// WithMaxOpenConnections specifies and optional max open connections for the
// database.  A value of zero equals unlimited connections
func WithMaxOpenConnections(max int) Option {
	return func(o *Options) {
		o.withMaxOpenConnections = max
	}
}

// WithMaxIdleConnections specifies an optional max idle connections for the
// database.
func WithMaxIdleConnections(max *int) Option {
	return func(o *Options) {
		o.withMaxIdleConnections = max
	}
}

// WithGormFormatter specifies an optional hclog to use for gorm's log
// formmater
func WithGormFormatter(l hclog.Logger) Option {
	return func(o *Options) {
		o.withGormFormatter = l
	}
}

func dbwOpts(opts Options) []dbw.Option {
	var out []dbw.Option
	if opts.withLookup {
		out = append(out, dbw.WithLookup(true))
	}
	if opts.withLimit != 0 {
		out = append(out, dbw.WithLimit(opts.withLimit))
	}
	if opts.withOrder != "" {
		out = append(out, dbw.WithOrder(opts.withOrder))
	}
	if opts.withDebug {
		out = append(out, dbw.WithDebug(true))
	}
	if opts.withTable != "" {
		out = append(out, dbw.WithTable(opts.withTable))
	}
	return out
}
