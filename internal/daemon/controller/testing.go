// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package controller

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/quotagate/quotagate/internal/cmd/base"
	"github.com/quotagate/quotagate/internal/cmd/config"
	"github.com/quotagate/quotagate/internal/conf"
	"github.com/quotagate/quotagate/internal/db"
	"github.com/quotagate/quotagate/internal/perms"
	"github.com/stretchr/testify/require"
)

// TestController wraps a base.Server and Controller to provide a
// fully-programmatic controller for tests. Error checking (for instance, for
// valid config) is not stringent at the moment.
type TestController struct {
	b        *base.Server
	c        *Controller
	t        *testing.T
	apiAddrs []string // The address the Controller API is listening on
	client   *http.Client
	ctx      context.Context
	cancel   context.CancelFunc
	dbUrl    string
}

// Server returns the underlying base server
func (tc *TestController) Server() *base.Server {
	return tc.b
}

// Controller returns the underlying controller
func (tc *TestController) Controller() *Controller {
	return tc.c
}

func (tc *TestController) Config() *Config {
	return tc.c.conf
}

func (tc *TestController) Context() context.Context {
	return tc.ctx
}

// Client returns an http client suitable for calls to the api addresses.
func (tc *TestController) Client() *http.Client {
	return tc.client
}

func (tc *TestController) DbConn() *db.DB {
	return tc.b.Database
}

// DbUrl returns the url of the test database.
func (tc *TestController) DbUrl() string {
	return tc.dbUrl
}

// ApiAddrs returns the base urls of the api listeners, such as
// http://127.0.0.1:39117.
func (tc *TestController) ApiAddrs() []string {
	if tc.apiAddrs != nil {
		return tc.apiAddrs
	}
	for _, ln := range tc.c.apiListeners {
		tc.apiAddrs = append(tc.apiAddrs, fmt.Sprintf("http://%s", ln.ApiListener.Addr().String()))
	}
	return tc.apiAddrs
}

// Shutdown runs any cleanup functions; be sure to run this after your test is
// done
func (tc *TestController) Shutdown() {
	if tc.b != nil {
		close(tc.b.ShutdownCh)
	}

	tc.cancel()

	if tc.c != nil {
		if err := tc.c.Shutdown(); err != nil {
			tc.t.Error(err)
		}
	}
	if tc.b != nil {
		if err := tc.b.RunShutdownFuncs(); err != nil {
			tc.t.Error(err)
		}
	}
}

type TestControllerOpts struct {
	// ConfigHcl is the HCL to be parsed to generate the initial config.
	// Overrides Config if both are set.
	ConfigHcl string

	// Config; if not provided a dev one will be created
	Config *config.Config

	// Registry overrides the option registry built from the config.
	Registry *conf.Registry

	// ACL overrides the default policy
	ACL *perms.ACL

	// DisableAutoStart will create the controller without starting it
	DisableAutoStart bool

	// Logger to use
	Logger hclog.Logger
}

// NewTestController creates a controller backed by a migrated test database
// and serving on random local ports. It is shut down when t completes.
func NewTestController(t *testing.T, opts *TestControllerOpts) *TestController {
	const op = "controller.NewTestController"
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	tc := &TestController{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
		client: cleanhttp.DefaultClient(),
	}
	t.Cleanup(tc.Shutdown)

	if opts == nil {
		opts = new(TestControllerOpts)
	}

	var err error
	switch {
	case opts.ConfigHcl != "":
		opts.Config, err = config.Parse(opts.ConfigHcl)
		require.NoError(t, err, op)
	case opts.Config == nil:
		opts.Config, err = config.DevController()
		require.NoError(t, err, op)
	}

	tc.b = base.NewServer(&base.Command{
		Context:    ctx,
		ShutdownCh: make(chan struct{}),
	})
	tc.b.PrometheusRegisterer = prometheus.NewRegistry()
	tc.b.Logger = opts.Logger
	if tc.b.Logger == nil {
		tc.b.Logger = hclog.New(&hclog.LoggerOptions{
			Level: hclog.Trace,
			Name:  t.Name(),
		})
	}

	conn, url := db.TestSetup(t)
	tc.b.Database = conn
	tc.b.DbType, err = conn.DbType()
	require.NoError(t, err, op)
	tc.dbUrl = url

	// Ensure the listeners use random port allocation
	for _, listener := range opts.Config.Listeners {
		listener.RandomPort = true
	}
	require.NoError(t, tc.b.SetupListeners(nil, opts.Config.SharedConfig), op)

	tc.c, err = New(ctx, &Config{
		Server:    tc.b,
		RawConfig: opts.Config,
		Registry:  opts.Registry,
		ACL:       opts.ACL,
	})
	require.NoError(t, err, op)

	if !opts.DisableAutoStart {
		require.NoError(t, tc.c.Start(), op)
	}
	return tc
}
