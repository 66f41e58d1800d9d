// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

// Package unifiedlimit declares the options of the unified limits API.
package unifiedlimit

import (
	"context"

	"github.com/quotagate/quotagate/internal/conf"
)

const GroupName = "unified_limit"

// FlatModel treats every project limit as independent of any other project.
const FlatModel = "flat"

var (
	EnforcementModel = conf.StrOpt("enforcement_model",
		"The enforcement model to use when validating limits associated to projects.",
		conf.WithDefault(FlatModel),
		conf.WithChoices(FlatModel))

	ListLimit = conf.IntOpt("list_limit",
		"Maximum number of entities that will be returned in a unified limit collection. Falls back to `[DEFAULT] list_limit` when unset.",
		conf.WithMin(1))
)

var AllOpts = []*conf.Opt{
	EnforcementModel,
	ListLimit,
}

// RegisterOpts registers AllOpts with r under GroupName.
func RegisterOpts(ctx context.Context, r *conf.Registry) error {
	return r.Register(ctx, GroupName, AllOpts...)
}

// ListOpts returns AllOpts keyed by GroupName.
func ListOpts() map[string][]*conf.Opt {
	return map[string][]*conf.Opt{GroupName: AllOpts}
}

// EffectiveListLimit returns the list limit for unified limit collections:
// the group's own list_limit when set, else the DEFAULT group's. Zero means
// no limit.
func EffectiveListLimit(ctx context.Context, r *conf.Registry) (int, error) {
	if r.IsSet(GroupName, ListLimit.Name) {
		return r.Int(ctx, GroupName, ListLimit.Name)
	}
	if r.IsSet(conf.DefaultGroupName, conf.ListLimit.Name) {
		return r.Int(ctx, conf.DefaultGroupName, conf.ListLimit.Name)
	}
	return 0, nil
}
