// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package unifiedlimit_test

import (
	"context"
	"testing"

	"github.com/quotagate/quotagate/internal/conf"
	"github.com/quotagate/quotagate/internal/conf/unifiedlimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveListLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	newRegistry := func(t *testing.T) *conf.Registry {
		r := conf.NewRegistry()
		require.NoError(t, conf.RegisterDefaultOpts(ctx, r))
		require.NoError(t, unifiedlimit.RegisterOpts(ctx, r))
		return r
	}

	t.Run("unset", func(t *testing.T) {
		n, err := unifiedlimit.EffectiveListLimit(ctx, newRegistry(t))
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
	t.Run("default-group", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Set(ctx, conf.DefaultGroupName, "list_limit", 50))
		n, err := unifiedlimit.EffectiveListLimit(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, 50, n)
	})
	t.Run("group-overrides", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Set(ctx, conf.DefaultGroupName, "list_limit", 50))
		require.NoError(t, r.Set(ctx, unifiedlimit.GroupName, "list_limit", 5))
		n, err := unifiedlimit.EffectiveListLimit(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	})
	t.Run("enforcement-model", func(t *testing.T) {
		r := newRegistry(t)
		m, err := r.String(ctx, unifiedlimit.GroupName, "enforcement_model")
		require.NoError(t, err)
		assert.Equal(t, unifiedlimit.FlatModel, m)
		require.Error(t, r.Set(ctx, unifiedlimit.GroupName, "enforcement_model", "strict_two_level"))
	})
}
