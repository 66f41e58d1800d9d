// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

// Package opts registers every option group known to the server.
package opts

import (
	"context"

	"github.com/quotagate/quotagate/internal/conf"
	"github.com/quotagate/quotagate/internal/conf/ldap"
	"github.com/quotagate/quotagate/internal/conf/unifiedlimit"
	"github.com/quotagate/quotagate/internal/errors"
)

// NewRegistry returns a registry with every option group registered.
func NewRegistry(ctx context.Context, opt ...conf.Option) (*conf.Registry, error) {
	const op = "opts.NewRegistry"
	r := conf.NewRegistry(opt...)
	for _, register := range []func(context.Context, *conf.Registry) error{
		conf.RegisterDefaultOpts,
		ldap.RegisterOpts,
		unifiedlimit.RegisterOpts,
	} {
		if err := register(ctx, r); err != nil {
			return nil, errors.Wrap(ctx, err, op)
		}
	}
	return r, nil
}

// ListOpts returns the declared options of every group, for documentation
// and sample config generation.
func ListOpts() map[string][]*conf.Opt {
	out := map[string][]*conf.Opt{
		conf.DefaultGroupName: conf.DefaultOpts,
	}
	for _, m := range []map[string][]*conf.Opt{ldap.ListOpts(), unifiedlimit.ListOpts()} {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
