// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ldap

import (
	"context"
	"testing"

	"github.com/quotagate/quotagate/internal/conf"
	ldapopts "github.com/quotagate/quotagate/internal/conf/ldap"
	"github.com/quotagate/quotagate/internal/conf/opts"
	"github.com/stretchr/testify/require"
)

// TestRegistry returns a registry with the ldap group loaded from values.
func TestRegistry(t testing.TB, values map[string]any) *conf.Registry {
	t.Helper()
	ctx := context.Background()
	r, err := opts.NewRegistry(ctx)
	require.NoError(t, err)
	require.NoError(t, r.Load(ctx, ldapopts.GroupName, values))
	return r
}

// TestConfig returns the Config of a registry loaded from values.
func TestConfig(t testing.TB, values map[string]any) *Config {
	t.Helper()
	c, err := NewConfig(context.Background(), TestRegistry(t, values))
	require.NoError(t, err)
	return c
}
