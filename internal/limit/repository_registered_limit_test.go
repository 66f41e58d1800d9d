// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limit

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quotagate/quotagate/internal/db"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/quotagate/quotagate/internal/hints"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepo(t *testing.T, opt ...Option) (*Repository, *db.DB) {
	t.Helper()
	conn, _ := db.TestSetup(t)
	rw := db.New(conn)
	repo, err := NewRepository(context.Background(), rw, rw, opt...)
	require.NoError(t, err)
	return repo, conn
}

func strPtr(s string) *string { return &s }

func TestNewRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn, _ := db.TestSetup(t)
	rw := db.New(conn)

	_, err := NewRepository(ctx, nil, rw)
	assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))
	_, err = NewRepository(ctx, rw, nil)
	assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))
	_, err = NewRepository(ctx, rw, rw, WithModel("strict-two-level"))
	assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))

	repo, err := NewRepository(ctx, rw, rw)
	require.NoError(t, err)
	assert.Equal(t, db.DefaultLimit, repo.defaultLimit)
	m, err := repo.GetModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, FlatModelName, m.Name)
	assert.NotEmpty(t, m.Description)
}

func TestRepository_CreateRegisteredLimits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo, _ := testRepo(t)

	created, err := repo.CreateRegisteredLimits(ctx, []*RegisteredLimit{
		{ServiceId: "compute", ResourceName: "cores", DefaultLimit: 10},
		{ServiceId: "compute", RegionId: strPtr("east"), ResourceName: "cores", DefaultLimit: 5, Description: strPtr("east cores")},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, rl := range created {
		assert.Len(t, rl.Id, 32)
		found, err := repo.GetRegisteredLimit(ctx, rl.Id)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(rl, found))
	}

	t.Run("duplicate", func(t *testing.T) {
		_, err := repo.CreateRegisteredLimits(ctx, []*RegisteredLimit{
			{ServiceId: "compute", ResourceName: "cores", DefaultLimit: 1},
		})
		require.Error(t, err)
		assert.True(t, errors.Match(errors.T(errors.NotUnique), err))
	})
	t.Run("duplicate-in-batch-is-atomic", func(t *testing.T) {
		_, err := repo.CreateRegisteredLimits(ctx, []*RegisteredLimit{
			{ServiceId: "network", ResourceName: "ports", DefaultLimit: 1},
			{ServiceId: "network", ResourceName: "ports", DefaultLimit: 2},
		})
		require.Error(t, err)
		h := hints.New()
		h.AddFilter("service_id", "network")
		found, err := repo.ListRegisteredLimits(ctx, h)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := repo.CreateRegisteredLimits(ctx, []*RegisteredLimit{{ServiceId: "compute", DefaultLimit: 1}})
		assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))
		_, err = repo.CreateRegisteredLimits(ctx, nil)
		assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))
		_, err = repo.CreateRegisteredLimits(ctx, []*RegisteredLimit{{Id: "set", ServiceId: "compute", ResourceName: "ram"}})
		assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))
	})
}

func TestRepository_UpdateRegisteredLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo, conn := testRepo(t)

	t.Run("default-limit-and-description", func(t *testing.T) {
		rl := TestRegisteredLimit(t, conn, "compute", "cores", 10, WithDescription("old"))
		got, err := repo.UpdateRegisteredLimit(ctx, rl.Id, &RegisteredLimit{DefaultLimit: 20}, []string{DefaultLimitField, DescriptionField})
		require.NoError(t, err)
		assert.Equal(t, 20, got.DefaultLimit)
		assert.Nil(t, got.Description)
		assert.Equal(t, "cores", got.ResourceName)
	})
	t.Run("identity-unreferenced", func(t *testing.T) {
		rl := TestRegisteredLimit(t, conn, "compute", "ram", 10)
		got, err := repo.UpdateRegisteredLimit(ctx, rl.Id, &RegisteredLimit{RegionId: strPtr("west"), ResourceName: "memory"}, []string{RegionIdField, ResourceNameField})
		require.NoError(t, err)
		assert.Equal(t, "memory", got.ResourceName)
		require.NotNil(t, got.RegionId)
		assert.Equal(t, "west", *got.RegionId)
	})
	t.Run("identity-referenced", func(t *testing.T) {
		rl := TestRegisteredLimit(t, conn, "volume", "gigabytes", 10)
		TestLimit(t, conn, rl, "project-a", 5)
		_, err := repo.UpdateRegisteredLimit(ctx, rl.Id, &RegisteredLimit{ServiceId: "block"}, []string{ServiceIdField})
		require.Error(t, err)
		assert.True(t, errors.Match(errors.T(errors.StillReferenced), err))

		got, err := repo.UpdateRegisteredLimit(ctx, rl.Id, &RegisteredLimit{DefaultLimit: 7}, []string{DefaultLimitField})
		require.NoError(t, err)
		assert.Equal(t, 7, got.DefaultLimit)
	})
	t.Run("errors", func(t *testing.T) {
		rl := TestRegisteredLimit(t, conn, "image", "images", 10)
		_, err := repo.UpdateRegisteredLimit(ctx, rl.Id, &RegisteredLimit{}, nil)
		assert.True(t, errors.Match(errors.T(errors.EmptyFieldMask), err))
		_, err = repo.UpdateRegisteredLimit(ctx, rl.Id, &RegisteredLimit{}, []string{"Id"})
		assert.True(t, errors.Match(errors.T(errors.InvalidFieldMask), err))
		_, err = repo.UpdateRegisteredLimit(ctx, rl.Id, &RegisteredLimit{DefaultLimit: -5}, []string{DefaultLimitField})
		assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))
		_, err = repo.UpdateRegisteredLimit(ctx, "0123456789abcdef0123456789abcdef", &RegisteredLimit{DefaultLimit: 1}, []string{DefaultLimitField})
		assert.True(t, errors.Match(errors.T(errors.RecordNotFound), err))
	})
	t.Run("duplicate", func(t *testing.T) {
		TestRegisteredLimit(t, conn, "dns", "zones", 10)
		rl := TestRegisteredLimit(t, conn, "dns", "records", 10)
		_, err := repo.UpdateRegisteredLimit(ctx, rl.Id, &RegisteredLimit{ResourceName: "zones"}, []string{ResourceNameField})
		assert.True(t, errors.Match(errors.T(errors.NotUnique), err))
	})
}

func TestRepository_ListRegisteredLimits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo, conn := testRepo(t)
	TestRegisteredLimit(t, conn, "compute", "cores", 10)
	TestRegisteredLimit(t, conn, "compute", "ram", 10, WithRegionId("east"))
	TestRegisteredLimit(t, conn, "volume", "gigabytes", 10)

	all, err := repo.ListRegisteredLimits(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	h := hints.New()
	h.AddFilter("service_id", "compute")
	found, err := repo.ListRegisteredLimits(ctx, h)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	h.AddFilter("region_id", "east")
	found, err = repo.ListRegisteredLimits(ctx, h)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ram", found[0].ResourceName)

	h = hints.New()
	h.AddFilter("project_id", "ignored")
	found, err = repo.ListRegisteredLimits(ctx, h)
	require.NoError(t, err)
	assert.Len(t, found, 3)

	t.Run("truncated", func(t *testing.T) {
		h := hints.New()
		h.SetLimit(2)
		found, err := repo.ListRegisteredLimits(ctx, h)
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.True(t, h.Truncated())

		h.SetLimit(3)
		found, err = repo.ListRegisteredLimits(ctx, h)
		require.NoError(t, err)
		assert.Len(t, found, 3)
		assert.False(t, h.Truncated())
	})

	t.Run("repo-default-limit", func(t *testing.T) {
		capped, err := NewRepository(ctx, db.New(conn), db.New(conn), WithLimit(2))
		require.NoError(t, err)

		h := hints.New()
		found, err := capped.ListRegisteredLimits(ctx, h)
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.True(t, h.Truncated())
		require.NotNil(t, h.Limit)
		assert.Equal(t, 2, h.Limit.Limit)

		h = hints.New()
		h.AddFilter("service_id", "compute")
		found, err = capped.ListRegisteredLimits(ctx, h)
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.False(t, h.Truncated())
		assert.Nil(t, h.Limit)

		unlimited, err := NewRepository(ctx, db.New(conn), db.New(conn), WithLimit(-1))
		require.NoError(t, err)
		h = hints.New()
		found, err = unlimited.ListRegisteredLimits(ctx, h)
		require.NoError(t, err)
		assert.Len(t, found, 3)
		assert.False(t, h.Truncated())
	})
}

func TestRepository_DeleteRegisteredLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo, conn := testRepo(t)

	rl := TestRegisteredLimit(t, conn, "compute", "cores", 10)
	require.NoError(t, repo.DeleteRegisteredLimit(ctx, rl.Id))
	_, err := repo.GetRegisteredLimit(ctx, rl.Id)
	assert.True(t, errors.Match(errors.T(errors.RecordNotFound), err))

	err = repo.DeleteRegisteredLimit(ctx, rl.Id)
	assert.True(t, errors.Match(errors.T(errors.RecordNotFound), err))
	err = repo.DeleteRegisteredLimit(ctx, "")
	assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))

	referenced := TestRegisteredLimit(t, conn, "compute", "ram", 10)
	TestLimit(t, conn, referenced, "project-a", 1)
	err = repo.DeleteRegisteredLimit(ctx, referenced.Id)
	assert.True(t, errors.Match(errors.T(errors.StillReferenced), err))
}
