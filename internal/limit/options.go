// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limit

import "errors"

// getOpts - iterate the inbound Options and return a struct
func getOpts(opt ...Option) (options, error) {
	opts := getDefaultOptions()
	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// Option - how Options are passed as arguments.
type Option func(*options) error

// options = how options are represented
type options struct {
	withRegionId    *string
	withDescription *string
	withLimit       int
	withModel       string
}

func getDefaultOptions() options {
	return options{
		withModel: FlatModelName,
	}
}

// WithRegionId provides an optional region id.
func WithRegionId(id string) Option {
	return func(o *options) error {
		o.withRegionId = &id
		return nil
	}
}

// WithDescription provides an optional description.
func WithDescription(desc string) Option {
	return func(o *options) error {
		o.withDescription = &desc
		return nil
	}
}

// WithLimit provides an option to provide a limit. Intentionally allowing
// negative integers. If WithLimit < 0, then unlimited results are returned.
// If WithLimit == 0, then default limits are used for results.
func WithLimit(l int) Option {
	return func(o *options) error {
		o.withLimit = l
		return nil
	}
}

// WithModel names the enforcement model reported by the repository.
func WithModel(name string) Option {
	return func(o *options) error {
		if name == "" {
			return errors.New("missing model name")
		}
		o.withModel = name
		return nil
	}
}
