// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package controller

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quotagate/quotagate/globals"
	"github.com/quotagate/quotagate/internal/cmd/base"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers/ldap_auth"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers/limits"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers/registered_limits"
	"github.com/quotagate/quotagate/internal/daemon/controller/internal/metric"
	daemonmetric "github.com/quotagate/quotagate/internal/daemon/metric"
	"github.com/quotagate/quotagate/internal/ratelimit"
	"github.com/quotagate/quotagate/internal/requests"
)

const metricsPath = "/metrics"

// newApiHandler builds the router for the api listeners. Requests pass
// through the request context, metrics and rate limit layers before they
// reach a service.
func (c *Controller) newApiHandler(ctx context.Context) (http.Handler, error) {
	const op = "controller.(Controller).newApiHandler"
	logger := c.logger.Named("api")

	limitService, err := limits.NewService(ctx, c.LimitRepoFn, c.ListLimitFn, c.acl)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create limit handler service: %w", op, err)
	}
	registeredLimitService, err := registered_limits.NewService(ctx, c.LimitRepoFn, c.ListLimitFn, c.acl)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create registered limit handler service: %w", op, err)
	}
	ldapAuthService, err := ldap_auth.NewService(ctx, c.DirectoryFn, c.acl)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create ldap auth handler service: %w", op, err)
	}

	r := chi.NewRouter()
	limitService.Routes(r, logger)
	registeredLimitService.Routes(r, logger)
	ldapAuthService.Routes(r, logger)
	r.Handle(metricsPath, c.metricsHandler())

	matcher := daemonmetric.NewPathMatcher(endpointTemplates()...)
	var h http.Handler = r
	h = ratelimit.Handler(logger, c.getRateLimiter, newEndpointFunc(matcher), h)
	h = metric.InstrumentApiHandler(matcher, h)
	h = c.wrapHandlerWithRequestContext(logger, h)
	return h, nil
}

func (c *Controller) metricsHandler() http.Handler {
	if g, ok := c.conf.PrometheusRegisterer.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// wrapHandlerWithRequestContext attaches the caller identity and request
// metadata to the request context and echoes the request id.
func (c *Controller) wrapHandlerWithRequestContext(logger hclog.Logger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		id, err := uuid.GenerateUUID()
		if err != nil {
			logger.Error("unable to generate request id", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		rc := &requests.RequestContext{
			Identity:  requests.IdentityFromHeaders(r.Header),
			RequestId: "req-" + id,
			ClientIp:  clientIp(r),
			Method:    r.Method,
			Path:      r.URL.Path,
			BaseUrl:   c.baseUrl(r),
		}
		w.Header().Set(requests.HeaderRequestId, rc.RequestId)
		logger.Debug("request", "method", rc.Method, "path", rc.Path, "request_id", rc.RequestId, "client_ip", rc.ClientIp)

		h.ServeHTTP(w, r.WithContext(requests.NewRequestContext(r.Context(), rc)))
	})
}

// baseUrl returns the scheme and host used to build links. The configured
// public address wins over the host the request was sent to.
func (c *Controller) baseUrl(r *http.Request) string {
	if c.conf.RawConfig != nil && c.conf.RawConfig.Controller != nil {
		if addr := c.conf.RawConfig.Controller.PublicAddr; addr != "" {
			if !strings.Contains(addr, "://") {
				addr = "http://" + addr
			}
			return strings.TrimSuffix(addr, "/")
		}
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func clientIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// wrapHandlerWithListenerLimits bounds the size and duration of requests
// according to the listener configuration.
func wrapHandlerWithListenerLimits(h http.Handler, ln *base.ServerListener) http.Handler {
	maxRequestSize := globals.DefaultMaxRequestSize
	maxRequestDuration := globals.DefaultMaxRequestDuration
	if ln != nil && ln.Config != nil {
		if ln.Config.MaxRequestSize != 0 {
			maxRequestSize = ln.Config.MaxRequestSize
		}
		if ln.Config.MaxRequestDuration != 0 {
			maxRequestDuration = ln.Config.MaxRequestDuration
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), maxRequestDuration)
		defer cancel()
		// A negative size disables the limit.
		if maxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
		}
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}
