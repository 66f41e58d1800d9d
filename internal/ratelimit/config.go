// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ratelimit

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/hashicorp/go-rate"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/quotagate/quotagate/internal/types/action"
	"github.com/quotagate/quotagate/internal/types/resource"
)

// Defaults used when creating default rate.Limits.
const (
	DefaultInTotalRequestLimit       = 30000
	DefaultIpAddressRequestLimit     = 30000
	DefaultAuthTokenRequestLimit     = 3000
	DefaultPeriod                    = time.Second * 30
	DefaultInTotalListRequestLimit   = 1500
	DefaultIpAddressListRequestLimit = 1500
	DefaultAuthTokenListRequestLimit = 150
	DefaultListPeriod                = time.Second * 30

	// Authentication attempts are bounded separately since every request
	// turns into a bind against the directory.
	DefaultAuthenticateRequestLimit = 100
	DefaultAuthenticatePeriod       = time.Minute
)

const (
	quotasPerInTotal   = 1
	quotasPerIpAddress = 1000
	quotasPerAuthToken = 1000
)

// DefaultLimiterMaxQuotas returns the default maximum number of quotas that
// can be tracked by the rate limiter. The total is derived from the number
// of registered endpoints and is shared by all of them.
func DefaultLimiterMaxQuotas() int {
	var endpointCount int
	for _, res := range limitedResources() {
		actions, err := action.ActionSetForResource(res)
		if err != nil {
			continue
		}
		endpointCount += len(actions)
	}
	return (endpointCount * quotasPerInTotal) +
		(endpointCount * quotasPerAuthToken) +
		(endpointCount * quotasPerIpAddress)
}

// Config is used to configure rate limits. Each config is used to specify
// the maximum number of requests that can be made in a time period for the
// corresponding resources and actions.
type Config struct {
	Resources []string      `hcl:"resources"`
	Actions   []string      `hcl:"actions"`
	Per       string        `hcl:"per"`
	Limit     int           `hcl:"limit"`
	PeriodHCL string        `hcl:"period"`
	Period    time.Duration `hcl:"-"`
	Unlimited bool          `hcl:"unlimited"`
}

// Configs is an ordered set of Config.
type Configs []*Config

// Equal checks if a set of Configs is equal to another set of Configs.
func (c Configs) Equal(o Configs) bool {
	return reflect.DeepEqual(c, o)
}

func limitedResources() []resource.Type {
	var out []resource.Type
	for _, res := range action.RegisteredResources() {
		switch res {
		case resource.Unknown, resource.All:
			continue
		}
		out = append(out, res)
	}
	return out
}

func key(res resource.Type, a action.Type, per rate.LimitPer) string {
	return fmt.Sprintf("%s:%s:%s", res.String(), a.String(), per)
}

func defaultLimit(res resource.Type, a action.Type, per rate.LimitPer) rate.Limit {
	l := &rate.Limited{
		Resource: res.String(),
		Action:   a.String(),
		Per:      per,
		Period:   DefaultPeriod,
	}
	switch {
	case a == action.Authenticate:
		l.MaxRequests = DefaultAuthenticateRequestLimit
		l.Period = DefaultAuthenticatePeriod
	case a == action.List:
		l.Period = DefaultListPeriod
		switch per {
		case rate.LimitPerTotal:
			l.MaxRequests = DefaultInTotalListRequestLimit
		case rate.LimitPerIPAddress:
			l.MaxRequests = DefaultIpAddressListRequestLimit
		default:
			l.MaxRequests = DefaultAuthTokenListRequestLimit
		}
	default:
		switch per {
		case rate.LimitPerTotal:
			l.MaxRequests = DefaultInTotalRequestLimit
		case rate.LimitPerIPAddress:
			l.MaxRequests = DefaultIpAddressRequestLimit
		default:
			l.MaxRequests = DefaultAuthTokenRequestLimit
		}
	}
	return l
}

// Limits creates a slice of rate.Limit from the Configs. Every registered
// resource and action combination receives a default limit for each of the
// total, ip-address and auth-token buckets; the Configs are then applied in
// order, so later entries override earlier ones.
func (c Configs) Limits(ctx context.Context) ([]rate.Limit, error) {
	const op = "ratelimit.(Configs).Limits"

	allResources := limitedResources()
	limits := make(map[string]rate.Limit)
	order := make([]string, 0)
	set := func(k string, l rate.Limit) {
		if _, ok := limits[k]; !ok {
			order = append(order, k)
		}
		limits[k] = l
	}

	for _, res := range allResources {
		validActions, err := action.ActionSetForResource(res)
		if err != nil {
			return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidConfigValue))
		}
		for _, aStr := range validActions.Strings() {
			a := action.Map[aStr]
			for _, per := range []rate.LimitPer{rate.LimitPerTotal, rate.LimitPerIPAddress, rate.LimitPerAuthToken} {
				set(key(res, a, per), defaultLimit(res, a, per))
			}
		}
	}

	for _, cc := range c {
		if cc == nil {
			continue
		}
		per := rate.LimitPer(cc.Per)
		if !per.IsValid() {
			return nil, errors.New(ctx, errors.InvalidConfigValue, op, fmt.Sprintf("unknown per %q", cc.Per))
		}
		if !cc.Unlimited && (cc.Limit <= 0 || cc.Period <= 0) {
			return nil, errors.New(ctx, errors.InvalidConfigValue, op, "limit and period must be greater than zero")
		}

		var resourceSet []resource.Type
		switch {
		case len(cc.Resources) == 1 && cc.Resources[0] == resource.All.String():
			resourceSet = allResources
		default:
			for _, r := range cc.Resources {
				rr, ok := resource.Map[r]
				if !ok || rr == resource.Unknown || rr == resource.All {
					return nil, errors.New(ctx, errors.InvalidConfigValue, op, fmt.Sprintf("unknown resource %s", r))
				}
				resourceSet = append(resourceSet, rr)
			}
		}
		if len(resourceSet) == 0 {
			return nil, errors.New(ctx, errors.InvalidConfigValue, op, "missing resources")
		}

		for _, res := range resourceSet {
			validActions, err := action.ActionSetForResource(res)
			if err != nil {
				return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidConfigValue))
			}
			var acts []action.Type
			switch {
			case len(cc.Actions) == 1 && cc.Actions[0] == action.All.String():
				for _, aStr := range validActions.Strings() {
					acts = append(acts, action.Map[aStr])
				}
			default:
				for _, aStr := range cc.Actions {
					a, ok := action.Map[aStr]
					if !ok || !validActions.HasAction(a) {
						return nil, errors.New(ctx, errors.InvalidConfigValue, op, fmt.Sprintf("action %s not valid for resource %s", aStr, res.String()))
					}
					acts = append(acts, a)
				}
			}
			if len(acts) == 0 {
				return nil, errors.New(ctx, errors.InvalidConfigValue, op, "missing actions")
			}

			for _, a := range acts {
				switch {
				case cc.Unlimited:
					set(key(res, a, per), &rate.Unlimited{
						Resource: res.String(),
						Action:   a.String(),
						Per:      per,
					})
				default:
					set(key(res, a, per), &rate.Limited{
						Resource:    res.String(),
						Action:      a.String(),
						Per:         per,
						MaxRequests: uint64(cc.Limit),
						Period:      cc.Period,
					})
				}
			}
		}
	}

	out := make([]rate.Limit, 0, len(order))
	for _, k := range order {
		out = append(out, limits[k])
	}
	return out, nil
}
