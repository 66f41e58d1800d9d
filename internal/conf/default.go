// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package conf

import "context"

// DefaultGroupName holds options that are not owned by a specific backend.
const DefaultGroupName = "DEFAULT"

// ListLimit caps the number of entities returned by list operations unless
// a backend group overrides it.
var ListLimit = IntOpt("list_limit",
	"The maximum number of entities that will be returned in a collection. Can be overridden per backend. Unset means no limit.",
	WithMin(1))

// DefaultOpts is every option of the DEFAULT group.
var DefaultOpts = []*Opt{
	ListLimit,
}

// RegisterDefaultOpts registers DefaultOpts with r.
func RegisterDefaultOpts(ctx context.Context, r *Registry) error {
	return r.Register(ctx, DefaultGroupName, DefaultOpts...)
}
