// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-secure-stdlib/configutil/v2"
	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"github.com/hashicorp/hcl"
	"github.com/hashicorp/hcl/hcl/ast"
	"github.com/quotagate/quotagate/internal/conf"
	"github.com/quotagate/quotagate/internal/conf/opts"
	"github.com/quotagate/quotagate/internal/db"
	"github.com/quotagate/quotagate/internal/ratelimit"
)

const (
	devConfig = `
disable_mlock = true

controller {
	name = "dev-controller"
	description = "A default controller created in dev mode"
}

listener "tcp" {
	purpose = "api"
	tls_disable = true
}

database {
	dialect = "sqlite"
}
`
)

// Config is the parsed server configuration file.
type Config struct {
	*configutil.SharedConfig `hcl:"-"`

	DevController bool        `hcl:"-"`
	Controller    *Controller `hcl:"controller"`
	Database      *Database   `hcl:"database"`

	// Options holds the raw values of every option group block, keyed by
	// group then option name. They are applied with LoadRegistry.
	Options map[string]map[string]any `hcl:"-"`
}

type Controller struct {
	Name        string `hcl:"name"`
	Description string `hcl:"description"`
	PublicAddr  string `hcl:"public_addr"`

	ApiRateLimits           ratelimit.Configs `hcl:"-"`
	ApiRateLimitDisable     bool              `hcl:"api_rate_limit_disable"`
	ApiRateLimiterMaxQuotas int               `hcl:"api_rate_limiter_max_quotas"`
}

type Database struct {
	Url                string `hcl:"url"`
	Dialect            string `hcl:"dialect"`
	MaxOpenConnections int    `hcl:"max_open_connections"`
	MaxIdleConnections *int   `hcl:"max_idle_connections"`
}

// DevController is a Config that is used for dev mode of the server. The
// database url is left for the caller to fill in.
func DevController() (*Config, error) {
	parsed, err := Parse(devConfig)
	if err != nil {
		return nil, fmt.Errorf("error parsing dev config: %w", err)
	}
	parsed.DevController = true
	return parsed, nil
}

func New() *Config {
	return &Config{
		SharedConfig: new(configutil.SharedConfig),
		Options:      map[string]map[string]any{},
	}
}

// LoadFile loads the configuration from the given file.
func LoadFile(path string) (*Config, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(d))
}

func Parse(d string) (*Config, error) {
	obj, err := hcl.Parse(d)
	if err != nil {
		return nil, err
	}

	result := New()
	if err := hcl.DecodeObject(result, obj); err != nil {
		return nil, err
	}

	sharedConfig, err := configutil.ParseConfig(d)
	if err != nil {
		return nil, err
	}
	result.SharedConfig = sharedConfig

	list, ok := obj.Node.(*ast.ObjectList)
	if !ok {
		return nil, fmt.Errorf("error parsing: file doesn't contain a root object")
	}

	if result.Controller != nil {
		if result.Controller.ApiRateLimits, err = parseApiRateLimits(list); err != nil {
			return nil, err
		}
		switch {
		case result.Controller.ApiRateLimiterMaxQuotas < 0:
			return nil, fmt.Errorf("controller api_rate_limiter_max_quotas must not be negative")
		case result.Controller.ApiRateLimiterMaxQuotas == 0:
			result.Controller.ApiRateLimiterMaxQuotas = ratelimit.DefaultLimiterMaxQuotas()
		}
	}

	if result.Database != nil {
		if result.Database.Url, err = resolveReference(result.Database.Url); err != nil {
			return nil, fmt.Errorf("error parsing database url: %w", err)
		}
		if result.Database.Dialect == "" {
			result.Database.Dialect = db.Postgres.String()
		}
		if _, err := db.StringToDbType(result.Database.Dialect); err != nil {
			return nil, fmt.Errorf("error parsing database dialect: %w", err)
		}
	}

	for group := range opts.ListOpts() {
		values, err := parseOptionGroup(list, group)
		if err != nil {
			return nil, err
		}
		if len(values) > 0 {
			result.Options[group] = values
		}
	}

	return result, nil
}

func parseApiRateLimits(list *ast.ObjectList) (ratelimit.Configs, error) {
	var limits ratelimit.Configs
	for _, controller := range list.Filter("controller").Items {
		inner, ok := controller.Val.(*ast.ObjectType)
		if !ok {
			continue
		}
		for _, item := range inner.List.Filter("api_rate_limit").Items {
			rl := new(ratelimit.Config)
			if err := hcl.DecodeObject(rl, item.Val); err != nil {
				return nil, fmt.Errorf("error decoding controller api_rate_limit: %w", err)
			}
			if rl.PeriodHCL != "" {
				period, err := parseutil.ParseDurationSecond(rl.PeriodHCL)
				if err != nil {
					return nil, fmt.Errorf("error parsing controller api_rate_limit period %q: %w", rl.PeriodHCL, err)
				}
				rl.Period = period
			}
			limits = append(limits, rl)
		}
	}
	return limits, nil
}

// parseOptionGroup merges every top level block named group into a single
// map. String values are resolved through env:// and file:// references.
func parseOptionGroup(list *ast.ObjectList, group string) (map[string]any, error) {
	items := list.Filter(group).Items
	if len(items) == 0 {
		return nil, nil
	}
	out := map[string]any{}
	for _, item := range items {
		if len(item.Keys) > 0 {
			return nil, fmt.Errorf("%q block does not take a label", group)
		}
		var m map[string]any
		if err := hcl.DecodeObject(&m, item.Val); err != nil {
			return nil, fmt.Errorf("error decoding %q block: %w", group, err)
		}
		for k, v := range m {
			if s, ok := v.(string); ok {
				resolved, err := resolveReference(s)
				if err != nil {
					return nil, fmt.Errorf("error resolving %s.%s: %w", group, k, err)
				}
				v = resolved
			}
			out[k] = v
		}
	}
	return out, nil
}

// resolveReference reads env:// and file:// references. Anything else,
// including sqlite "file:" DSNs, is returned unchanged.
func resolveReference(s string) (string, error) {
	if !strings.HasPrefix(s, "env://") && !strings.HasPrefix(s, "file://") {
		return s, nil
	}
	resolved, err := parseutil.ParsePath(s)
	if err != nil && !errors.Is(err, parseutil.ErrNotAUrl) && !errors.Is(err, parseutil.ErrNotParsed) {
		return s, err
	}
	return resolved, nil
}

// LoadRegistry applies the option group values to r. Every group is loaded
// and the errors of all groups are returned together.
func (c *Config) LoadRegistry(ctx context.Context, r *conf.Registry) error {
	groups := make([]string, 0, len(c.Options))
	for g := range c.Options {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var mErr *multierror.Error
	for _, g := range groups {
		if err := r.Load(ctx, g, c.Options[g]); err != nil {
			mErr = multierror.Append(mErr, err)
		}
	}
	return mErr.ErrorOrNil()
}

// Sanitized returns a copy of the config with all values that are considered
// sensitive stripped. The database url is reduced to its scheme and option
// group values are left to the registry, which knows which are secret.
func (c *Config) Sanitized() map[string]any {
	// Create shared config if it doesn't exist (e.g. in tests) so that map
	// keys are actually populated
	if c.SharedConfig == nil {
		c.SharedConfig = new(configutil.SharedConfig)
	}
	result := map[string]any{}
	for k, v := range c.SharedConfig.Sanitized() {
		result[k] = v
	}

	if c.Controller != nil {
		result["controller"] = map[string]any{
			"name":                        c.Controller.Name,
			"description":                 c.Controller.Description,
			"public_addr":                 c.Controller.PublicAddr,
			"api_rate_limit_disable":      c.Controller.ApiRateLimitDisable,
			"api_rate_limiter_max_quotas": c.Controller.ApiRateLimiterMaxQuotas,
			"api_rate_limits":             len(c.Controller.ApiRateLimits),
		}
	}
	if c.Database != nil {
		url := ""
		if c.Database.Url != "" {
			url = "****"
			if scheme, _, ok := strings.Cut(c.Database.Url, "://"); ok {
				url = scheme + "://****"
			}
		}
		result["database"] = map[string]any{
			"dialect":              c.Database.Dialect,
			"url":                  url,
			"max_open_connections": c.Database.MaxOpenConnections,
		}
	}
	groups := make([]string, 0, len(c.Options))
	for g := range c.Options {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	result["option_groups"] = groups

	return result
}
