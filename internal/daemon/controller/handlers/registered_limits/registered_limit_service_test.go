// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package registered_limits_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers/registered_limits"
	"github.com/quotagate/quotagate/internal/db"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/quotagate/quotagate/internal/limit"
	"github.com/quotagate/quotagate/internal/perms"
	"github.com/quotagate/quotagate/internal/requests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

const testBaseUrl = "http://quotagate.test"

var (
	adminIdentity  = &requests.Identity{Authenticated: true, UserId: "u-admin", ProjectId: "p-admin", Roles: []string{"admin"}}
	readerIdentity = &requests.Identity{Authenticated: true, UserId: "u-reader", ProjectId: "p-reader", Roles: []string{"reader"}}
)

func ctxFor(id *requests.Identity) context.Context {
	return requests.NewRequestContext(context.Background(), &requests.RequestContext{Identity: id, BaseUrl: testBaseUrl})
}

func testService(t *testing.T, listLimit int) (registered_limits.Service, *db.DB) {
	t.Helper()
	conn, _ := db.TestSetup(t)
	rw := db.New(conn)
	repoFn := func() (limit.Provider, error) {
		return limit.NewRepository(context.Background(), rw, rw)
	}
	var listFn func(context.Context) (int, error)
	if listLimit > 0 {
		listFn = func(context.Context) (int, error) { return listLimit, nil }
	}
	s, err := registered_limits.NewService(context.Background(), repoFn, listFn, perms.DefaultACL())
	require.NoError(t, err)
	return s, conn
}

func assertApiStatus(t *testing.T, err error, want codes.Code) {
	t.Helper()
	require.Error(t, err)
	apiErr := handlers.ToApiError(err)
	assert.Truef(t, errors.Is(apiErr, handlers.ApiErrorWithCode(want)), "got %v, wanted %v", apiErr, want)
}

func TestNewService(t *testing.T) {
	_, err := registered_limits.NewService(context.Background(), nil, nil, perms.DefaultACL())
	assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))
}

func TestCreate(t *testing.T) {
	t.Parallel()
	s, _ := testService(t, 0)

	body := map[string]any{
		"registered_limits": []any{
			map[string]any{"service_id": "compute", "resource_name": "cores", "default_limit": float64(10)},
			map[string]any{"service_id": "compute", "region_id": "east", "resource_name": "ram", "default_limit": float64(-1), "description": "ram in MB"},
		},
	}
	got, err := s.CreateRegisteredLimits(ctxFor(adminIdentity), &registered_limits.CreateRegisteredLimitsRequest{Body: body})
	require.NoError(t, err)
	require.Len(t, got.RegisteredLimits, 2)
	assert.Equal(t, "cores", got.RegisteredLimits[0].ResourceName)
	assert.Nil(t, got.RegisteredLimits[0].RegionId)
	assert.Nil(t, got.RegisteredLimits[0].Links)
	require.NotNil(t, got.RegisteredLimits[1].RegionId)
	assert.Equal(t, "east", *got.RegisteredLimits[1].RegionId)
	assert.Equal(t, -1, got.RegisteredLimits[1].DefaultLimit)

	cases := []struct {
		name string
		ctx  context.Context
		body map[string]any
		want codes.Code
	}{
		{
			name: "unauthenticated",
			ctx:  ctxFor(&requests.Identity{}),
			body: body,
			want: codes.Unauthenticated,
		},
		{
			name: "not-admin",
			ctx:  ctxFor(readerIdentity),
			body: body,
			want: codes.PermissionDenied,
		},
		{
			name: "empty-list",
			ctx:  ctxFor(adminIdentity),
			body: map[string]any{"registered_limits": []any{}},
			want: codes.InvalidArgument,
		},
		{
			name: "missing-resource-name",
			ctx:  ctxFor(adminIdentity),
			body: map[string]any{"registered_limits": []any{map[string]any{"service_id": "compute", "default_limit": float64(1)}}},
			want: codes.InvalidArgument,
		},
		{
			name: "limit-below-unlimited",
			ctx:  ctxFor(adminIdentity),
			body: map[string]any{"registered_limits": []any{map[string]any{"service_id": "compute", "resource_name": "gpus", "default_limit": float64(-2)}}},
			want: codes.InvalidArgument,
		},
		{
			name: "unknown-property",
			ctx:  ctxFor(adminIdentity),
			body: map[string]any{"registered_limits": []any{map[string]any{"service_id": "compute", "resource_name": "gpus", "default_limit": float64(1), "project_id": "p"}}},
			want: codes.InvalidArgument,
		},
		{
			name: "duplicate",
			ctx:  ctxFor(adminIdentity),
			body: map[string]any{"registered_limits": []any{map[string]any{"service_id": "compute", "resource_name": "cores", "default_limit": float64(3)}}},
			want: codes.AlreadyExists,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateRegisteredLimits(tc.ctx, &registered_limits.CreateRegisteredLimitsRequest{Body: tc.body})
			assertApiStatus(t, err, tc.want)
		})
	}
}

func TestList(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	limit.TestRegisteredLimit(t, conn, "compute", "cores", 10)
	limit.TestRegisteredLimit(t, conn, "compute", "ram", 2048, limit.WithRegionId("east"))
	limit.TestRegisteredLimit(t, conn, "volume", "gigabytes", 100)

	ctx := ctxFor(readerIdentity)
	got, err := s.ListRegisteredLimits(ctx, &registered_limits.ListRegisteredLimitsRequest{Query: url.Values{}})
	require.NoError(t, err)
	assert.Len(t, got.RegisteredLimits, 3)
	assert.False(t, got.Truncated)
	assert.Equal(t, testBaseUrl+registered_limits.CollectionPath, got.Links.Self)
	for _, rl := range got.RegisteredLimits {
		require.NotNil(t, rl.Links)
		assert.Equal(t, testBaseUrl+registered_limits.CollectionPath+"/"+rl.Id, rl.Links.Self)
	}

	got, err = s.ListRegisteredLimits(ctx, &registered_limits.ListRegisteredLimitsRequest{Query: url.Values{"service_id": {"compute"}}})
	require.NoError(t, err)
	assert.Len(t, got.RegisteredLimits, 2)
	assert.Contains(t, got.Links.Self, "service_id=compute")

	got, err = s.ListRegisteredLimits(ctx, &registered_limits.ListRegisteredLimitsRequest{Query: url.Values{"region_id": {"east"}}})
	require.NoError(t, err)
	require.Len(t, got.RegisteredLimits, 1)
	assert.Equal(t, "ram", got.RegisteredLimits[0].ResourceName)

	got, err = s.ListRegisteredLimits(ctx, &registered_limits.ListRegisteredLimitsRequest{Query: url.Values{"filter": {`"/item/resource_name" == "gigabytes"`}}})
	require.NoError(t, err)
	require.Len(t, got.RegisteredLimits, 1)
	assert.Equal(t, "volume", got.RegisteredLimits[0].ServiceId)

	_, err = s.ListRegisteredLimits(ctx, &registered_limits.ListRegisteredLimitsRequest{Query: url.Values{"filter": {`"/item/resource_name" ==`}}})
	assertApiStatus(t, err, codes.InvalidArgument)

	_, err = s.ListRegisteredLimits(ctxFor(&requests.Identity{}), &registered_limits.ListRegisteredLimitsRequest{Query: url.Values{}})
	assertApiStatus(t, err, codes.Unauthenticated)
}

func TestList_Truncated(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 2)
	limit.TestRegisteredLimit(t, conn, "compute", "cores", 10)
	limit.TestRegisteredLimit(t, conn, "compute", "ram", 2048)
	limit.TestRegisteredLimit(t, conn, "volume", "gigabytes", 100)

	got, err := s.ListRegisteredLimits(ctxFor(readerIdentity), &registered_limits.ListRegisteredLimitsRequest{Query: url.Values{}})
	require.NoError(t, err)
	assert.Len(t, got.RegisteredLimits, 2)
	assert.True(t, got.Truncated)
}

func TestList_FilterBeforeTruncation(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 1)
	limit.TestRegisteredLimit(t, conn, "compute", "cores", 10)
	limit.TestRegisteredLimit(t, conn, "compute", "ram", 2048)
	limit.TestRegisteredLimit(t, conn, "volume", "gigabytes", 100)
	limit.TestRegisteredLimit(t, conn, "volume", "snapshots", 10)

	ctx := ctxFor(readerIdentity)
	for _, name := range []string{"cores", "ram", "gigabytes", "snapshots"} {
		t.Run(name, func(t *testing.T) {
			filter := fmt.Sprintf(`"/item/resource_name" == %q`, name)
			got, err := s.ListRegisteredLimits(ctx, &registered_limits.ListRegisteredLimitsRequest{Query: url.Values{"filter": {filter}}})
			require.NoError(t, err)
			require.Len(t, got.RegisteredLimits, 1)
			assert.Equal(t, name, got.RegisteredLimits[0].ResourceName)
			assert.False(t, got.Truncated)
		})
	}

	got, err := s.ListRegisteredLimits(ctx, &registered_limits.ListRegisteredLimitsRequest{Query: url.Values{"filter": {`"/item/service_id" == "volume"`}}})
	require.NoError(t, err)
	require.Len(t, got.RegisteredLimits, 1)
	assert.Equal(t, "volume", got.RegisteredLimits[0].ServiceId)
	assert.True(t, got.Truncated)
}

func TestGet(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	rl := limit.TestRegisteredLimit(t, conn, "compute", "cores", 10, limit.WithDescription("cores"))

	got, err := s.GetRegisteredLimit(ctxFor(readerIdentity), &registered_limits.GetRegisteredLimitRequest{Id: rl.Id})
	require.NoError(t, err)
	assert.Equal(t, rl.Id, got.RegisteredLimit.Id)
	assert.Equal(t, 10, got.RegisteredLimit.DefaultLimit)
	require.NotNil(t, got.RegisteredLimit.Description)
	assert.Equal(t, "cores", *got.RegisteredLimit.Description)
	require.NotNil(t, got.RegisteredLimit.Links)

	_, err = s.GetRegisteredLimit(ctxFor(readerIdentity), &registered_limits.GetRegisteredLimitRequest{Id: "missing"})
	assertApiStatus(t, err, codes.NotFound)
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	rl := limit.TestRegisteredLimit(t, conn, "compute", "cores", 10, limit.WithDescription("cores"))
	referenced := limit.TestRegisteredLimit(t, conn, "compute", "ram", 1024)
	limit.TestLimit(t, conn, referenced, "p-reader", 2048)

	ctx := ctxFor(adminIdentity)
	got, err := s.UpdateRegisteredLimit(ctx, &registered_limits.UpdateRegisteredLimitRequest{
		Id:   rl.Id,
		Body: map[string]any{"registered_limit": map[string]any{"default_limit": float64(20), "description": nil}},
	})
	require.NoError(t, err)
	assert.Equal(t, 20, got.RegisteredLimit.DefaultLimit)
	assert.Nil(t, got.RegisteredLimit.Description)
	assert.Equal(t, "compute", got.RegisteredLimit.ServiceId)

	_, err = s.UpdateRegisteredLimit(ctx, &registered_limits.UpdateRegisteredLimitRequest{
		Id:   rl.Id,
		Body: map[string]any{"registered_limit": map[string]any{}},
	})
	assertApiStatus(t, err, codes.InvalidArgument)

	_, err = s.UpdateRegisteredLimit(ctx, &registered_limits.UpdateRegisteredLimitRequest{
		Id:   referenced.Id,
		Body: map[string]any{"registered_limit": map[string]any{"resource_name": "memory"}},
	})
	assertApiStatus(t, err, codes.FailedPrecondition)

	_, err = s.UpdateRegisteredLimit(ctx, &registered_limits.UpdateRegisteredLimitRequest{
		Id:   "missing",
		Body: map[string]any{"registered_limit": map[string]any{"default_limit": float64(1)}},
	})
	assertApiStatus(t, err, codes.NotFound)

	_, err = s.UpdateRegisteredLimit(ctxFor(readerIdentity), &registered_limits.UpdateRegisteredLimitRequest{
		Id:   rl.Id,
		Body: map[string]any{"registered_limit": map[string]any{"default_limit": float64(1)}},
	})
	assertApiStatus(t, err, codes.PermissionDenied)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	rl := limit.TestRegisteredLimit(t, conn, "compute", "cores", 10)
	referenced := limit.TestRegisteredLimit(t, conn, "compute", "ram", 1024)
	limit.TestLimit(t, conn, referenced, "p-reader", 2048)

	ctx := ctxFor(adminIdentity)
	_, err := s.DeleteRegisteredLimit(ctxFor(readerIdentity), &registered_limits.DeleteRegisteredLimitRequest{Id: rl.Id})
	assertApiStatus(t, err, codes.PermissionDenied)

	_, err = s.DeleteRegisteredLimit(ctx, &registered_limits.DeleteRegisteredLimitRequest{Id: rl.Id})
	require.NoError(t, err)
	_, err = s.DeleteRegisteredLimit(ctx, &registered_limits.DeleteRegisteredLimitRequest{Id: rl.Id})
	assertApiStatus(t, err, codes.NotFound)

	_, err = s.DeleteRegisteredLimit(ctx, &registered_limits.DeleteRegisteredLimitRequest{Id: referenced.Id})
	assertApiStatus(t, err, codes.FailedPrecondition)
}

func TestRoutes(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	rl := limit.TestRegisteredLimit(t, conn, "compute", "cores", 10)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requests.NewRequestContext(req.Context(), &requests.RequestContext{
				Identity: requests.IdentityFromHeaders(req.Header),
				BaseUrl:  testBaseUrl,
			})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	s.Routes(r, hclog.NewNullLogger())

	do := func(method, path, body string, admin bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(requests.HeaderIdentityStatus, "Confirmed")
		req.Header.Set(requests.HeaderProjectId, "p-1")
		if admin {
			req.Header.Set(requests.HeaderRoles, "admin,member")
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, registered_limits.CollectionPath+"/"+rl.Id, "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var get registered_limits.GetRegisteredLimitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &get))
	assert.Equal(t, rl.Id, get.RegisteredLimit.Id)

	rec = do(http.MethodPost, registered_limits.CollectionPath, `{"registered_limits":[{"service_id":"volume","resource_name":"gigabytes","default_limit":5}]}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = do(http.MethodPost, registered_limits.CollectionPath, `not json`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodPatch, registered_limits.CollectionPath+"/"+rl.Id, `{"registered_limit":{"default_limit":11}}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodDelete, registered_limits.CollectionPath+"/"+rl.Id, "", false)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(http.MethodDelete, registered_limits.CollectionPath+"/"+rl.Id, "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	rec = do(http.MethodGet, registered_limits.CollectionPath+"/"+rl.Id, "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
