// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/quotagate/quotagate/globals"
)

const rateLimitSubSystem = "controller_api_ratelimiter"

var (
	rateLimitQuotaUsage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: globals.MetricNamespace,
			Subsystem: rateLimitSubSystem,
			Name:      "quota_storage_usage",
			Help:      "Gauge of the number of quotas currently stored by the API rate limiter.",
		},
	)

	rateLimitQuotaStorageCapacity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: globals.MetricNamespace,
			Subsystem: rateLimitSubSystem,
			Name:      "quota_storage_capacity",
			Help:      "Gauge of the maximum number of quotas the API rate limiter can store.",
		},
	)
)

// InitializeMetrics registers the rate limiter gauges with r.
func InitializeMetrics(r prometheus.Registerer) {
	if r == nil {
		return
	}
	r.MustRegister(rateLimitQuotaUsage, rateLimitQuotaStorageCapacity)
}
