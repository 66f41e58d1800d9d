// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limits_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers/limits"
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
	memberIdentity = &requests.Identity{Authenticated: true, UserId: "u-member", ProjectId: "p-1", Roles: []string{"member"}}
	systemIdentity = &requests.Identity{Authenticated: true, UserId: "u-system", SystemScope: "all", Roles: []string{"reader"}}
)

func ctxFor(id *requests.Identity) context.Context {
	return requests.NewRequestContext(context.Background(), &requests.RequestContext{Identity: id, BaseUrl: testBaseUrl})
}

func testService(t *testing.T, listLimit int) (limits.Service, *db.DB) {
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
	s, err := limits.NewService(context.Background(), repoFn, listFn, perms.DefaultACL())
	require.NoError(t, err)
	return s, conn
}

func assertApiStatus(t *testing.T, err error, want codes.Code) {
	t.Helper()
	require.Error(t, err)
	apiErr := handlers.ToApiError(err)
	assert.Truef(t, errors.Is(apiErr, handlers.ApiErrorWithCode(want)), "got %v, wanted %v", apiErr, want)
}

func projects(ls []*limits.Limit) []string {
	var out []string
	for _, l := range ls {
		out = append(out, l.ProjectId)
	}
	sort.Strings(out)
	return out
}

// seed creates limits for projects p-1 and p-2 over two registered limits.
func seed(t *testing.T, conn *db.DB) (p1Cores, p2Cores *limit.Limit) {
	t.Helper()
	cores := limit.TestRegisteredLimit(t, conn, "compute", "cores", 10)
	ram := limit.TestRegisteredLimit(t, conn, "compute", "ram", 1024)
	p1Cores = limit.TestLimit(t, conn, cores, "p-1", 20)
	limit.TestLimit(t, conn, ram, "p-1", 2048)
	p2Cores = limit.TestLimit(t, conn, cores, "p-2", 30)
	return p1Cores, p2Cores
}

func TestNewService(t *testing.T) {
	_, err := limits.NewService(context.Background(), nil, nil, perms.DefaultACL())
	assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))
}

func TestGetLimitModel(t *testing.T) {
	t.Parallel()
	s, _ := testService(t, 0)
	got, err := s.GetLimitModel(ctxFor(memberIdentity), &limits.GetLimitModelRequest{})
	require.NoError(t, err)
	assert.Equal(t, limit.FlatModelName, got.Model.Name)
	assert.NotEmpty(t, got.Model.Description)

	_, err = s.GetLimitModel(ctxFor(&requests.Identity{}), &limits.GetLimitModelRequest{})
	assertApiStatus(t, err, codes.Unauthenticated)
}

func TestList_OwnProjectOnly(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	seed(t, conn)

	got, err := s.ListLimits(ctxFor(memberIdentity), &limits.ListLimitsRequest{Query: url.Values{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p-1", "p-1"}, projects(got.Limits))

	got, err = s.ListLimits(ctxFor(memberIdentity), &limits.ListLimitsRequest{Query: url.Values{"resource_name": {"cores"}}})
	require.NoError(t, err)
	require.Len(t, got.Limits, 1)
	assert.Equal(t, "p-1", got.Limits[0].ProjectId)
	require.NotNil(t, got.Limits[0].Links)
	assert.Equal(t, testBaseUrl+limits.CollectionPath+"/"+got.Limits[0].Id, got.Limits[0].Links.Self)
}

func TestList_ProjectFilter(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	seed(t, conn)

	q := url.Values{"project_id": {"p-2"}}
	got, err := s.ListLimits(ctxFor(systemIdentity), &limits.ListLimitsRequest{Query: q})
	require.NoError(t, err)
	assert.Equal(t, []string{"p-2"}, projects(got.Limits))

	got, err = s.ListLimits(ctxFor(memberIdentity), &limits.ListLimitsRequest{Query: q})
	require.NoError(t, err)
	assert.Empty(t, got.Limits)
	assert.Contains(t, got.Links.Self, "project_id=p-2")

	got, err = s.ListLimits(ctxFor(adminIdentity), &limits.ListLimitsRequest{Query: q})
	require.NoError(t, err)
	assert.Empty(t, got.Limits)
}

func TestList_NoProjectSeesAll(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	seed(t, conn)

	got, err := s.ListLimits(ctxFor(systemIdentity), &limits.ListLimitsRequest{Query: url.Values{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p-1", "p-1", "p-2"}, projects(got.Limits))

	got, err = s.ListLimits(ctxFor(systemIdentity), &limits.ListLimitsRequest{Query: url.Values{"filter": {`"/item/project_id" == "p-2"`}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p-2"}, projects(got.Limits))
}

func TestList_Truncated(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 2)
	seed(t, conn)

	got, err := s.ListLimits(ctxFor(systemIdentity), &limits.ListLimitsRequest{Query: url.Values{}})
	require.NoError(t, err)
	assert.Len(t, got.Limits, 2)
	assert.True(t, got.Truncated)

	got, err = s.ListLimits(ctxFor(memberIdentity), &limits.ListLimitsRequest{Query: url.Values{}})
	require.NoError(t, err)
	assert.Len(t, got.Limits, 2)
	assert.False(t, got.Truncated)
}

func TestList_FilterBeforeTruncation(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 2)
	_, p2 := seed(t, conn)

	got, err := s.ListLimits(ctxFor(systemIdentity), &limits.ListLimitsRequest{Query: url.Values{"filter": {`"/item/project_id" == "p-2"`}}})
	require.NoError(t, err)
	require.Len(t, got.Limits, 1)
	assert.Equal(t, p2.Id, got.Limits[0].Id)
	assert.False(t, got.Truncated)

	s, conn = testService(t, 1)
	seed(t, conn)
	got, err = s.ListLimits(ctxFor(systemIdentity), &limits.ListLimitsRequest{Query: url.Values{"filter": {`"/item/project_id" == "p-1"`}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p-1"}, projects(got.Limits))
	assert.True(t, got.Truncated)
}

func TestGet(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	p1, p2 := seed(t, conn)

	got, err := s.GetLimit(ctxFor(memberIdentity), &limits.GetLimitRequest{Id: p1.Id})
	require.NoError(t, err)
	assert.Equal(t, p1.Id, got.Limit.Id)
	assert.Equal(t, p1.RegisteredLimitId, got.Limit.RegisteredLimitId)

	_, err = s.GetLimit(ctxFor(memberIdentity), &limits.GetLimitRequest{Id: p2.Id})
	assertApiStatus(t, err, codes.PermissionDenied)
	assert.Contains(t, handlers.ToApiError(err).Inner.Message, "The authenticated project should match the project_id")

	_, err = s.GetLimit(ctxFor(adminIdentity), &limits.GetLimitRequest{Id: p2.Id})
	require.NoError(t, err)

	h := http.Header{}
	h.Set(requests.HeaderIdentityStatus, "Confirmed")
	h.Set(requests.HeaderUserId, "u-1")
	h.Set(requests.HeaderProjectId, "p-1")
	h.Set(requests.HeaderRoles, "member")
	h.Set(requests.HeaderIsAdminProject, "True")
	adminProjectMember := requests.IdentityFromHeaders(h)
	_, err = s.GetLimit(ctxFor(adminProjectMember), &limits.GetLimitRequest{Id: p2.Id})
	assertApiStatus(t, err, codes.PermissionDenied)

	_, err = s.GetLimit(ctxFor(systemIdentity), &limits.GetLimitRequest{Id: p2.Id})
	require.NoError(t, err)

	_, err = s.GetLimit(ctxFor(memberIdentity), &limits.GetLimitRequest{Id: "missing"})
	assertApiStatus(t, err, codes.NotFound)
}

func TestCreate(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	limit.TestRegisteredLimit(t, conn, "compute", "cores", 10)
	limit.TestRegisteredLimit(t, conn, "compute", "cores", 8, limit.WithRegionId("east"))

	body := map[string]any{
		"limits": []any{
			map[string]any{"project_id": "p-1", "service_id": "compute", "resource_name": "cores", "resource_limit": float64(5)},
			map[string]any{"project_id": "p-1", "service_id": "compute", "region_id": "east", "resource_name": "cores", "resource_limit": float64(4), "description": "east"},
		},
	}
	got, err := s.CreateLimits(ctxFor(adminIdentity), &limits.CreateLimitsRequest{Body: body})
	require.NoError(t, err)
	require.Len(t, got.Limits, 2)
	for _, l := range got.Limits {
		assert.NotEmpty(t, l.Id)
		assert.NotEmpty(t, l.RegisteredLimitId)
		assert.Nil(t, l.Links)
	}

	cases := []struct {
		name string
		ctx  context.Context
		body map[string]any
		want codes.Code
	}{
		{
			name: "not-admin",
			ctx:  ctxFor(memberIdentity),
			body: body,
			want: codes.PermissionDenied,
		},
		{
			name: "admin-project-member",
			ctx:  ctxFor(&requests.Identity{Authenticated: true, ProjectId: "p-1", Roles: []string{"member"}, IsAdminProject: true}),
			body: body,
			want: codes.PermissionDenied,
		},
		{
			name: "missing-project",
			ctx:  ctxFor(adminIdentity),
			body: map[string]any{"limits": []any{map[string]any{"service_id": "compute", "resource_name": "cores", "resource_limit": float64(5)}}},
			want: codes.InvalidArgument,
		},
		{
			name: "no-registered-limit",
			ctx:  ctxFor(adminIdentity),
			body: map[string]any{"limits": []any{map[string]any{"project_id": "p-1", "service_id": "compute", "resource_name": "gpus", "resource_limit": float64(5)}}},
			want: codes.InvalidArgument,
		},
		{
			name: "duplicate",
			ctx:  ctxFor(adminIdentity),
			body: map[string]any{"limits": []any{map[string]any{"project_id": "p-1", "service_id": "compute", "resource_name": "cores", "resource_limit": float64(6)}}},
			want: codes.AlreadyExists,
		},
		{
			name: "wrong-wrapper",
			ctx:  ctxFor(adminIdentity),
			body: map[string]any{"limit": []any{}},
			want: codes.InvalidArgument,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateLimits(tc.ctx, &limits.CreateLimitsRequest{Body: tc.body})
			assertApiStatus(t, err, tc.want)
		})
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	p1, _ := seed(t, conn)
	ctx := ctxFor(adminIdentity)

	got, err := s.UpdateLimit(ctx, &limits.UpdateLimitRequest{
		Id:   p1.Id,
		Body: map[string]any{"limit": map[string]any{"resource_limit": float64(-1), "description": "unlimited"}},
	})
	require.NoError(t, err)
	assert.Equal(t, -1, got.Limit.ResourceLimit)
	require.NotNil(t, got.Limit.Description)
	assert.Equal(t, "unlimited", *got.Limit.Description)
	require.NotNil(t, got.Limit.Links)

	_, err = s.UpdateLimit(ctx, &limits.UpdateLimitRequest{
		Id:   p1.Id,
		Body: map[string]any{"limit": map[string]any{"project_id": "p-9"}},
	})
	assertApiStatus(t, err, codes.InvalidArgument)

	_, err = s.UpdateLimit(ctx, &limits.UpdateLimitRequest{
		Id:   p1.Id,
		Body: map[string]any{"limit": map[string]any{}},
	})
	assertApiStatus(t, err, codes.InvalidArgument)

	_, err = s.UpdateLimit(ctxFor(memberIdentity), &limits.UpdateLimitRequest{
		Id:   p1.Id,
		Body: map[string]any{"limit": map[string]any{"resource_limit": float64(1)}},
	})
	assertApiStatus(t, err, codes.PermissionDenied)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	p1, _ := seed(t, conn)

	_, err := s.DeleteLimit(ctxFor(memberIdentity), &limits.DeleteLimitRequest{Id: p1.Id})
	assertApiStatus(t, err, codes.PermissionDenied)

	_, err = s.DeleteLimit(ctxFor(adminIdentity), &limits.DeleteLimitRequest{Id: p1.Id})
	require.NoError(t, err)
	_, err = s.DeleteLimit(ctxFor(adminIdentity), &limits.DeleteLimitRequest{Id: p1.Id})
	assertApiStatus(t, err, codes.NotFound)
}

func TestRoutes(t *testing.T) {
	t.Parallel()
	s, conn := testService(t, 0)
	p1, p2 := seed(t, conn)

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

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(requests.HeaderIdentityStatus, "Confirmed")
		req.Header.Set(requests.HeaderProjectId, "p-1")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, limits.CollectionPath+"/model", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var model limits.GetLimitModelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
	assert.Equal(t, limit.FlatModelName, model.Model.Name)

	rec = do(http.MethodGet, limits.CollectionPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list limits.ListLimitsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{"p-1", "p-1"}, projects(list.Limits))
	assert.NotContains(t, rec.Body.String(), "truncated")

	rec = do(http.MethodGet, limits.CollectionPath+"/"+p1.Id, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, limits.CollectionPath+"/"+p2.Id, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var apiErr handlers.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, codes.PermissionDenied.String(), apiErr.Kind)

	rec = do(http.MethodPost, limits.CollectionPath, `{"limits":[]}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
