// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package requests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromHeaders(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		want    *Identity
	}{
		{
			name:    "unconfirmed",
			headers: map[string]string{HeaderIdentityStatus: "Invalid", HeaderUserId: "u1"},
			want:    &Identity{},
		},
		{
			name: "project-member",
			headers: map[string]string{
				HeaderIdentityStatus: "Confirmed",
				HeaderUserId:         "u1",
				HeaderProjectId:      "p1",
				HeaderRoles:          "reader, member,reader",
			},
			want: &Identity{Authenticated: true, UserId: "u1", ProjectId: "p1", Roles: []string{"member", "reader"}},
		},
		{
			name: "system-admin-project",
			headers: map[string]string{
				HeaderIdentityStatus: "confirmed",
				HeaderUserId:         "u2",
				HeaderSystemScope:    "all",
				HeaderIsAdminProject: "True",
			},
			want: &Identity{Authenticated: true, UserId: "u2", SystemScope: "all", IsAdminProject: true},
		},
		{
			name: "admin-project-member",
			headers: map[string]string{
				HeaderIdentityStatus: "Confirmed",
				HeaderUserId:         "u3",
				HeaderProjectId:      "p1",
				HeaderRoles:          "member",
				HeaderIsAdminProject: "True",
			},
			want: &Identity{Authenticated: true, UserId: "u3", ProjectId: "p1", Roles: []string{"member"}, IsAdminProject: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			assert.Equal(t, tt.want, IdentityFromHeaders(h))
		})
	}
}

func TestIdentity_IsAdministrator(t *testing.T) {
	t.Parallel()
	assert.False(t, (*Identity)(nil).IsAdministrator())
	assert.False(t, (&Identity{Roles: []string{"member"}}).IsAdministrator())
	assert.True(t, (&Identity{Roles: []string{"Admin"}}).IsAdministrator())
	assert.False(t, (&Identity{IsAdminProject: true, Roles: []string{"member"}}).IsAdministrator())
	assert.True(t, (&Identity{SystemScope: "all"}).IsSystemScoped())
}

func TestRequestContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, ok := RequestContextFromCtx(ctx)
	assert.False(t, ok)
	assert.False(t, IdentityFromCtx(ctx).Authenticated)

	ctx = NewRequestContext(ctx, &RequestContext{Identity: &Identity{Authenticated: true, ProjectId: "p1"}, Method: http.MethodGet})
	rc, ok := RequestContextFromCtx(ctx)
	require.True(t, ok)
	assert.Equal(t, http.MethodGet, rc.Method)
	assert.Equal(t, "p1", IdentityFromCtx(ctx).ProjectId)
}
