// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package db_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/quotagate/quotagate/internal/db"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRegisteredLimit struct {
	Id           string `gorm:"primary_key"`
	ServiceId    string
	RegionId     *string
	ResourceName string
	DefaultLimit int
}

func (*testRegisteredLimit) TableName() string { return "registered_limit" }

func TestDb_DoTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn, _ := db.TestSetup(t)
	rw := db.New(conn)

	t.Run("commit", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		info, err := rw.DoTx(ctx, db.StdRetryCnt, db.ExpBackoff{}, func(r db.Reader, w db.Writer) error {
			return w.Create(ctx, &testRegisteredLimit{
				Id:           "0123456789abcdef0123456789abcdef",
				ServiceId:    "compute",
				ResourceName: "cores",
				DefaultLimit: 10,
			})
		})
		require.NoError(err)
		assert.Equal(0, info.Retries)

		found := &testRegisteredLimit{Id: "0123456789abcdef0123456789abcdef"}
		require.NoError(rw.LookupById(ctx, found))
		assert.Equal("cores", found.ResourceName)
		assert.Nil(found.RegionId)
	})
	t.Run("rollback", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		_, err := rw.DoTx(ctx, db.StdRetryCnt, db.ExpBackoff{}, func(r db.Reader, w db.Writer) error {
			if err := w.Create(ctx, &testRegisteredLimit{
				Id:           "fedcba9876543210fedcba9876543210",
				ServiceId:    "compute",
				ResourceName: "ram",
				DefaultLimit: 10,
			}); err != nil {
				return err
			}
			return stderrors.New("fail")
		})
		require.Error(err)
		found := &testRegisteredLimit{Id: "fedcba9876543210fedcba9876543210"}
		err = rw.LookupById(ctx, found)
		require.Error(err)
		assert.True(errors.IsNotFoundError(err))
	})
	t.Run("retries-conflicts", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		attempts := 0
		info, err := rw.DoTx(ctx, 2, db.ConstBackoff{DurationMs: 1}, func(r db.Reader, w db.Writer) error {
			attempts++
			return errors.New(ctx, errors.Conflict, "test", "busy")
		})
		require.Error(err)
		assert.True(errors.Match(errors.T(errors.MaxRetries), err))
		assert.Equal(3, attempts)
		assert.Equal(3, info.Retries)
	})
	t.Run("unique", func(t *testing.T) {
		_, err := rw.DoTx(ctx, db.StdRetryCnt, db.ExpBackoff{}, func(r db.Reader, w db.Writer) error {
			return w.Create(ctx, &testRegisteredLimit{
				Id:           "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
				ServiceId:    "compute",
				ResourceName: "cores",
				DefaultLimit: 5,
			})
		})
		require.Error(t, err)
		assert.True(t, errors.IsUniqueError(err))
	})
}

func TestDb_SearchWhere(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn, _ := db.TestSetup(t)
	rw := db.New(conn)
	region := "RegionOne"
	for _, rl := range []*testRegisteredLimit{
		{Id: "11111111111111111111111111111111", ServiceId: "compute", ResourceName: "cores", DefaultLimit: 1},
		{Id: "22222222222222222222222222222222", ServiceId: "compute", RegionId: &region, ResourceName: "cores", DefaultLimit: 2},
		{Id: "33333333333333333333333333333333", ServiceId: "volume", ResourceName: "gigabytes", DefaultLimit: 3},
	} {
		require.NoError(t, rw.Create(ctx, rl))
	}

	var found []*testRegisteredLimit
	require.NoError(t, rw.SearchWhere(ctx, &found, "service_id = ?", []any{"compute"}, db.WithOrder("id")))
	require.Len(t, found, 2)
	assert.Equal(t, "RegionOne", *found[1].RegionId)

	found = nil
	require.NoError(t, rw.SearchWhere(ctx, &found, "", nil, db.WithLimit(1)))
	assert.Len(t, found, 1)

	err := rw.SearchWhere(ctx, &found, "", []any{"compute"})
	require.Error(t, err)
	assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))
}
