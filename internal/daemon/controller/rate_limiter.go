// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package controller

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-rate"
	"github.com/quotagate/quotagate/internal/cmd/config"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/quotagate/quotagate/internal/ratelimit"
)

type rateLimiterConfig struct {
	maxSize  int
	configs  ratelimit.Configs
	disabled bool
	limits   []rate.Limit
}

func newRateLimiterConfig(ctx context.Context, configs ratelimit.Configs, maxSize int, disabled bool) (*rateLimiterConfig, error) {
	const op = "controller.newRateLimiterConfig"
	if disabled {
		if len(configs) > 0 {
			return nil, errors.New(ctx, errors.InvalidConfigValue, op, "disabled rate limiter with rate limit configs")
		}
		return &rateLimiterConfig{disabled: true}, nil
	}
	limits, err := configs.Limits(ctx)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	return &rateLimiterConfig{
		maxSize: maxSize,
		configs: configs,
		limits:  limits,
	}, nil
}

func (c *rateLimiterConfig) equal(o *rateLimiterConfig) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.maxSize == o.maxSize &&
		c.disabled == o.disabled &&
		c.configs.Equal(o.configs)
}

// summary groups the effective limits by resource then action, in the form
// logged when the limiter changes.
func (c *rateLimiterConfig) summary() map[string]map[string][]string {
	out := make(map[string]map[string][]string)
	for _, l := range c.limits {
		var entry string
		switch v := l.(type) {
		case *rate.Limited:
			entry = fmt.Sprintf("%s:%d/%s", v.Per, v.MaxRequests, v.Period)
		case *rate.Unlimited:
			entry = fmt.Sprintf("%s:unlimited", v.Per)
		default:
			continue
		}
		actions, ok := out[l.GetResource()]
		if !ok {
			actions = make(map[string][]string)
			out[l.GetResource()] = actions
		}
		actions[l.GetAction()] = append(actions[l.GetAction()], entry)
	}
	for _, actions := range out {
		for _, entries := range actions {
			sort.Strings(entries)
		}
	}
	return out
}

func (c *rateLimiterConfig) log(logger hclog.Logger) {
	if logger == nil {
		return
	}
	if c.disabled {
		logger.Info("controller api rate limiter", "disabled", true)
		return
	}
	logger.Info("controller api rate limiter", "disabled", false, "max_size", c.maxSize, "limits", c.summary())
}

func (c *Controller) initializeRateLimiter(conf *config.Config) error {
	const op = "controller.(Controller).initializeRateLimiter"
	switch {
	case conf == nil:
		return errors.New(c.baseContext, errors.InvalidParameter, op, "nil config")
	case conf.Controller == nil:
		return errors.New(c.baseContext, errors.InvalidParameter, op, "nil config.Controller")
	}

	c.rateLimiterMu.Lock()
	defer c.rateLimiterMu.Unlock()

	rlc, err := newRateLimiterConfig(
		c.baseContext,
		conf.Controller.ApiRateLimits,
		conf.Controller.ApiRateLimiterMaxQuotas,
		conf.Controller.ApiRateLimitDisable,
	)
	if err != nil {
		return err
	}

	limiter, err := newLimiter(c.baseContext, rlc)
	if err != nil {
		return errors.Wrap(c.baseContext, err, op)
	}
	c.rateLimiter = limiter
	c.conf.rateLimiterConfig = rlc
	rlc.log(c.logger)
	return nil
}

// ReloadRateLimiter replaces the rate limiter when the rate limit settings
// of newConfig differ from the current ones. The current limiter is kept
// when the new settings are invalid.
func (c *Controller) ReloadRateLimiter(newConfig *config.Config) error {
	const op = "controller.(Controller).ReloadRateLimiter"
	switch {
	case newConfig == nil:
		return errors.New(c.baseContext, errors.InvalidParameter, op, "nil config")
	case newConfig.Controller == nil:
		return errors.New(c.baseContext, errors.InvalidParameter, op, "nil config.Controller")
	}

	rlc, err := newRateLimiterConfig(
		c.baseContext,
		newConfig.Controller.ApiRateLimits,
		newConfig.Controller.ApiRateLimiterMaxQuotas,
		newConfig.Controller.ApiRateLimitDisable,
	)
	if err != nil {
		return err
	}

	c.rateLimiterMu.Lock()
	defer c.rateLimiterMu.Unlock()

	if c.conf.rateLimiterConfig.equal(rlc) {
		return nil
	}

	limiter, err := newLimiter(c.baseContext, rlc)
	if err != nil {
		return errors.Wrap(c.baseContext, err, op)
	}
	prev := c.rateLimiter
	c.rateLimiter = limiter
	c.conf.rateLimiterConfig = rlc
	if prev != nil {
		if err := prev.Shutdown(); err != nil && c.logger != nil {
			c.logger.Warn("error shutting down previous rate limiter", "error", err)
		}
	}
	rlc.log(c.logger)
	return nil
}

func (c *Controller) getRateLimiter() ratelimit.Limiter {
	c.rateLimiterMu.RLock()
	defer c.rateLimiterMu.RUnlock()
	return c.rateLimiter
}

func newLimiter(ctx context.Context, rlc *rateLimiterConfig) (ratelimit.Limiter, error) {
	if rlc.disabled {
		return rate.NopLimiter, nil
	}
	return ratelimit.NewLimiter(ctx, rlc.limits, rlc.maxSize)
}
