// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limit

import (
	"context"
	"testing"

	"github.com/quotagate/quotagate/internal/db"
	"github.com/stretchr/testify/require"
)

// TestRegisteredLimit creates a registered limit in the db.
func TestRegisteredLimit(t testing.TB, conn *db.DB, serviceId, resourceName string, defaultLimit int, opt ...Option) *RegisteredLimit {
	t.Helper()
	ctx := context.Background()
	rl, err := NewRegisteredLimit(ctx, serviceId, resourceName, defaultLimit, opt...)
	require.NoError(t, err)
	rl.Id, err = newId(ctx)
	require.NoError(t, err)
	require.NoError(t, db.New(conn).Create(ctx, rl))
	return rl
}

// TestLimit creates a limit for projectId overriding rl in the db.
func TestLimit(t testing.TB, conn *db.DB, rl *RegisteredLimit, projectId string, resourceLimit int, opt ...Option) *Limit {
	t.Helper()
	ctx := context.Background()
	if rl.RegionId != nil {
		opt = append([]Option{WithRegionId(*rl.RegionId)}, opt...)
	}
	l, err := NewLimit(ctx, projectId, rl.ServiceId, rl.ResourceName, resourceLimit, opt...)
	require.NoError(t, err)
	l.Id, err = newId(ctx)
	require.NoError(t, err)
	l.RegisteredLimitId = rl.Id
	require.NoError(t, db.New(conn).Create(ctx, l))
	return l
}
