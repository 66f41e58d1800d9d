// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package controller

import (
	"github.com/quotagate/quotagate/internal/cmd/base"
	"github.com/quotagate/quotagate/internal/cmd/config"
	"github.com/quotagate/quotagate/internal/conf"
	"github.com/quotagate/quotagate/internal/perms"
)

type Config struct {
	// The base Server object, containing the listeners, logger and database
	*base.Server
	// The underlying configuration, passed in here to avoid duplicating values
	// everywhere
	RawConfig *config.Config
	// Registry holds the option groups loaded from RawConfig
	Registry *conf.Registry
	// ACL is the policy applied to every API request. The zero value
	// denies everything; perms.DefaultACL is used when it is nil.
	ACL *perms.ACL

	// This is derived from the config.Config. It tracks the state of the
	// rate limiter's configuration, and is updated if the config changes via a
	// SIGHUP.
	rateLimiterConfig *rateLimiterConfig
}
