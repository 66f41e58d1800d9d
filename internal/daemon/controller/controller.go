// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package controller

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/quotagate/quotagate/internal/cmd/base"
	"github.com/quotagate/quotagate/internal/conf/opts"
	"github.com/quotagate/quotagate/internal/conf/unifiedlimit"
	"github.com/quotagate/quotagate/internal/daemon/controller/common"
	"github.com/quotagate/quotagate/internal/daemon/controller/internal/metric"
	"github.com/quotagate/quotagate/internal/db"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/quotagate/quotagate/internal/identity/ldap"
	"github.com/quotagate/quotagate/internal/limit"
	"github.com/quotagate/quotagate/internal/perms"
	"github.com/quotagate/quotagate/internal/ratelimit"
	ua "go.uber.org/atomic"
)

const shutdownTimeout = 10 * time.Second

type Controller struct {
	conf   *Config
	logger hclog.Logger

	baseContext context.Context
	baseCancel  context.CancelFunc
	started     *ua.Bool

	apiListeners []*base.ServerListener
	apiHandler   http.Handler
	serversWg    *sync.WaitGroup

	rateLimiter   ratelimit.Limiter
	rateLimiterMu sync.RWMutex

	acl perms.ACL

	// Repo factory methods
	LimitRepoFn common.LimitRepoFactory
	ListLimitFn common.ListLimitFn
	DirectoryFn common.DirectoryFactory
}

func New(ctx context.Context, conf *Config) (*Controller, error) {
	const op = "controller.New"
	switch {
	case conf == nil:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing config")
	case conf.Server == nil:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing base server")
	case conf.RawConfig == nil:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing raw config")
	case conf.Database == nil:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing database")
	}

	c := &Controller{
		conf:      conf,
		logger:    conf.Logger,
		started:   ua.NewBool(false),
		serversWg: new(sync.WaitGroup),
		acl:       perms.DefaultACL(),
	}
	if c.logger == nil {
		c.logger = hclog.NewNullLogger()
	}
	c.logger = c.logger.Named("controller")
	if conf.ACL != nil {
		c.acl = *conf.ACL
	}
	c.baseContext, c.baseCancel = context.WithCancel(context.Background())

	if conf.Registry == nil {
		r, err := opts.NewRegistry(ctx)
		if err != nil {
			return nil, errors.Wrap(ctx, err, op)
		}
		if err := conf.RawConfig.LoadRegistry(ctx, r); err != nil {
			return nil, errors.Wrap(ctx, err, op)
		}
		conf.Registry = r
	}

	for _, ln := range conf.Listeners {
		for _, purpose := range ln.Config.Purpose {
			if purpose == base.ApiPurpose {
				c.apiListeners = append(c.apiListeners, ln)
			}
		}
	}
	if len(c.apiListeners) == 0 {
		return nil, fmt.Errorf("no api listeners found")
	}

	if err := c.initializeRateLimiter(conf.RawConfig); err != nil {
		return nil, fmt.Errorf("error initializing rate limiter: %w", err)
	}

	model, err := conf.Registry.String(ctx, unifiedlimit.GroupName, unifiedlimit.EnforcementModel.Name)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	// Check the model up front so a bad value fails startup rather than
	// every request.
	if _, err := limit.LookupModel(ctx, model); err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}

	dbase := conf.Database
	c.LimitRepoFn = func() (limit.Provider, error) {
		rw := db.New(dbase)
		return limit.NewRepository(c.baseContext, rw, rw, limit.WithModel(model))
	}
	c.ListLimitFn = func(ctx context.Context) (int, error) {
		return unifiedlimit.EffectiveListLimit(ctx, conf.Registry)
	}
	c.DirectoryFn = c.newDirectoryFn(ctx)

	metric.InitializeApiCollectors(conf.PrometheusRegisterer, pathsToMethods())
	ratelimit.InitializeMetrics(conf.PrometheusRegisterer)

	c.apiHandler, err = c.newApiHandler(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating api handler: %w", err)
	}

	return c, nil
}

// newDirectoryFn returns a factory that builds the directory client on first
// use. A failure is retried on the next call since the directory options
// cannot change without a restart.
func (c *Controller) newDirectoryFn(ctx context.Context) common.DirectoryFactory {
	var (
		mu  sync.Mutex
		dir ldap.Authenticator
	)
	logger := c.logger.Named("ldap")
	return func() (ldap.Authenticator, error) {
		mu.Lock()
		defer mu.Unlock()
		if dir != nil {
			return dir, nil
		}
		lc, err := ldap.NewConfig(ctx, c.conf.Registry, ldap.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		d, err := ldap.NewDirectory(ctx, lc, ldap.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		dir = d
		return dir, nil
	}
}

func (c *Controller) Start() error {
	const op = "controller.(Controller).Start"
	if c.started.Swap(true) {
		c.logger.Debug("already started, skipping", "op", op)
		return nil
	}

	for _, ln := range c.apiListeners {
		handler := wrapHandlerWithListenerLimits(c.apiHandler, ln)
		ln.HTTPServer = &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       5 * time.Minute,
			ErrorLog:          c.logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
			BaseContext:       func(net.Listener) context.Context { return c.baseContext },
		}
		c.serversWg.Add(1)
		go func(ln *base.ServerListener) {
			defer c.serversWg.Done()
			if err := ln.HTTPServer.Serve(ln.ApiListener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				c.logger.Error("api listener stopped", "addr", ln.ApiListener.Addr().String(), "error", err)
			}
		}(ln)
	}
	return nil
}

func (c *Controller) Shutdown() error {
	const op = "controller.(Controller).Shutdown"
	if !c.started.Load() {
		c.logger.Debug("already shut down, skipping", "op", op)
	}
	defer c.started.Store(false)
	c.baseCancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var shutdownErr error
	for _, ln := range c.apiListeners {
		if ln.HTTPServer == nil {
			continue
		}
		if err := ln.HTTPServer.Shutdown(ctx); err != nil {
			shutdownErr = stderrors.Join(shutdownErr, fmt.Errorf("error shutting down api server: %w", err))
		}
	}
	c.serversWg.Wait()

	if l := c.getRateLimiter(); l != nil {
		if err := l.Shutdown(); err != nil {
			shutdownErr = stderrors.Join(shutdownErr, fmt.Errorf("error shutting down rate limiter: %w", err))
		}
	}
	return shutdownErr
}

// ApiHandler returns the handler served on the api listeners.
func (c *Controller) ApiHandler() http.Handler {
	return c.apiHandler
}
