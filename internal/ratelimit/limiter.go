// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ratelimit

import (
	"context"
	"net/http"

	"github.com/hashicorp/go-rate"
	"github.com/quotagate/quotagate/internal/errors"
)

// Limiter is satisfied by both *rate.Limiter and rate.NopLimiter.
type Limiter interface {
	Allow(resource, action, ip, authToken string) (bool, *rate.Quota, error)
	SetPolicyHeader(resource, action string, h http.Header) error
	SetUsageHeader(q *rate.Quota, h http.Header)
	Shutdown() error
}

var (
	_ Limiter = (*rate.Limiter)(nil)
	_ Limiter = rate.NopLimiter
)

// NewLimiter creates a rate.Limiter that reports its quota storage usage
// through the package gauges.
func NewLimiter(ctx context.Context, limits []rate.Limit, maxEntries int) (*rate.Limiter, error) {
	const op = "ratelimit.NewLimiter"
	l, err := rate.NewLimiter(
		limits,
		maxEntries,
		rate.WithQuotaStorageUsageMetric(rateLimitQuotaUsage),
		rate.WithQuotaStorageCapacityMetric(rateLimitQuotaStorageCapacity),
	)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidConfigValue))
	}
	return l, nil
}

// Build returns the limiter described by configs. A disabled limiter is a
// rate.NopLimiter and may not carry any configs.
func Build(ctx context.Context, configs Configs, maxQuotas int, disabled bool) (Limiter, error) {
	const op = "ratelimit.Build"
	if disabled {
		if len(configs) > 0 {
			return nil, errors.New(ctx, errors.InvalidConfigValue, op, "disabled rate limiter with rate limit configs")
		}
		return rate.NopLimiter, nil
	}
	if maxQuotas <= 0 {
		maxQuotas = DefaultLimiterMaxQuotas()
	}
	limits, err := configs.Limits(ctx)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	l, err := NewLimiter(ctx, limits, maxQuotas)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	return l, nil
}
