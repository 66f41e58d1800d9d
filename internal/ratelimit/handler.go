// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ratelimit

import (
	"fmt"
	"math"
	"net"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-rate"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/quotagate/quotagate/internal/requests"
	"github.com/quotagate/quotagate/internal/types/action"
	"github.com/quotagate/quotagate/internal/types/resource"
)

// Endpoint is the resource and action served for a request.
type Endpoint struct {
	Resource resource.Type
	Action   action.Type
}

// EndpointFunc resolves the Endpoint of a request. It returns false for
// requests that are not rate limited.
type EndpointFunc func(*http.Request) (Endpoint, bool)

// Handler enforces the limiter returned by getLimiter on every request that
// endpointFn resolves. Requests over quota receive a 429, and requests that
// cannot be tracked because the quota store is full receive a 503. Both carry
// a Retry-After header.
func Handler(logger hclog.Logger, getLimiter func() Limiter, endpointFn EndpointFunc, next http.Handler) http.Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ep, ok := endpointFn(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		limiter := getLimiter()
		res, act := ep.Resource.String(), ep.Action.String()

		if err := limiter.SetPolicyHeader(res, act, w.Header()); err != nil {
			logger.Error("failed to set rate limit policy header", "resource", res, "action", act, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		ip, authToken := callerKeys(r)
		allowed, quota, err := limiter.Allow(res, act, ip, authToken)
		if err != nil {
			var errFull *rate.ErrLimiterFull
			switch {
			case errors.As(err, &errFull):
				logger.Warn("rate limiter quota storage is full", "resource", res, "action", act)
				w.Header().Set("Retry-After", retryAfter(errFull.RetryIn.Seconds()))
				w.WriteHeader(http.StatusServiceUnavailable)
			default:
				logger.Error("failed to check rate limit", "resource", res, "action", act, "error", err)
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}
		if quota != nil {
			limiter.SetUsageHeader(quota, w.Header())
		}
		if !allowed {
			if quota != nil {
				w.Header().Set("Retry-After", retryAfter(quota.ResetsIn().Seconds()))
			}
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// callerKeys returns the ip address and token keys that requests are
// counted against. Unauthenticated callers are tracked by address only.
func callerKeys(r *http.Request) (string, string) {
	var ip, token string
	if rc, ok := requests.RequestContextFromCtx(r.Context()); ok {
		ip = rc.ClientIp
		if rc.Identity != nil {
			token = rc.Identity.UserId
		}
	}
	if ip == "" {
		ip = r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
	}
	if token == "" {
		token = ip
	}
	return ip, token
}

func retryAfter(seconds float64) string {
	return fmt.Sprintf("%.0f", math.Ceil(seconds))
}
