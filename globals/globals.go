// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package globals

import "time"

const (
	// MetricNamespace prefixes every collector exposed on /metrics.
	MetricNamespace = "quotagate"

	// EnvPrefix prefixes the environment variables read by the cli.
	EnvPrefix = "QUOTAGATE_"

	MinimumSupportedPostgresVersion = "15"

	DefaultListenAddress = "127.0.0.1:9300"
)

var (
	// DefaultMaxRequestDuration is the amount of time we'll wait for a request
	DefaultMaxRequestDuration = 90 * time.Second

	// DefaultMaxRequestSize is the maximum size of a request we allow by default
	DefaultMaxRequestSize = int64(1024 * 1024)
)
