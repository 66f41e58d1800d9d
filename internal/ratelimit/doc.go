// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

// Package ratelimit provides the rate limit configuration and http middleware
// for use by the controller's http API.
package ratelimit
