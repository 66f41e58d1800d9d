// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

// Package common holds the factories shared by the API handlers.
package common

import (
	"context"

	"github.com/quotagate/quotagate/internal/identity/ldap"
	"github.com/quotagate/quotagate/internal/limit"
)

// LimitRepoFactory returns the unified limit provider.
type LimitRepoFactory func() (limit.Provider, error)

// ListLimitFn returns the maximum number of entities a list may return. Zero
// means no limit.
type ListLimitFn func(context.Context) (int, error)

// DirectoryFactory returns the directory used to authenticate users.
type DirectoryFactory func() (ldap.Authenticator, error)
