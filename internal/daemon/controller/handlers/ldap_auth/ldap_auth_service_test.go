// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ldap_auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers/ldap_auth"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/quotagate/quotagate/internal/identity/ldap"
	"github.com/quotagate/quotagate/internal/perms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type fakeDirectory struct {
	users map[string]*ldap.User
}

func (f *fakeDirectory) Authenticate(ctx context.Context, login, password string) (*ldap.User, error) {
	const op = "ldap_auth_test.(fakeDirectory).Authenticate"
	u, ok := f.users[login]
	if !ok || password != "password" {
		return nil, errors.New(ctx, errors.AuthAttemptFailed, op, "invalid credentials")
	}
	return u, nil
}

func testService(t *testing.T) ldap_auth.Service {
	t.Helper()
	dir := &fakeDirectory{users: map[string]*ldap.User{
		"alice": {Id: "alice", Name: "alice", Email: "alice@example.com", Enabled: true},
		"bob":   {Id: "bob", Name: "bob", Enabled: false},
	}}
	s, err := ldap_auth.NewService(context.Background(), func() (ldap.Authenticator, error) { return dir, nil }, perms.DefaultACL())
	require.NoError(t, err)
	return s
}

func body(login, password string) map[string]any {
	return map[string]any{"auth": map[string]any{"login_name": login, "password": password}}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	s := testService(t)
	ctx := context.Background()

	got, err := s.Authenticate(ctx, &ldap_auth.AuthenticateRequest{Body: body("alice", "password")})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.User.Email)

	tests := []struct {
		name string
		body map[string]any
		want codes.Code
	}{
		{name: "bad-password", body: body("alice", "nope"), want: codes.Unauthenticated},
		{name: "disabled", body: body("bob", "password"), want: codes.Unauthenticated},
		{name: "empty-password", body: body("alice", ""), want: codes.InvalidArgument},
		{name: "missing-auth", body: map[string]any{"login_name": "alice"}, want: codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Authenticate(ctx, &ldap_auth.AuthenticateRequest{Body: tt.body})
			require.Error(t, err)
			apiErr := handlers.ToApiError(err)
			assert.Truef(t, errors.Is(apiErr, handlers.ApiErrorWithCode(tt.want)), "got %v", apiErr)
		})
	}
}

func TestRoutes(t *testing.T) {
	t.Parallel()
	r := chi.NewRouter()
	testService(t).Routes(r, hclog.NewNullLogger())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, ldap_auth.AuthenticatePath, strings.NewReader(`{"auth":{"login_name":"alice","password":"password"}}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"alice"`)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, ldap_auth.AuthenticatePath, strings.NewReader(`{"auth":{"login_name":"alice","password":"bad"}}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
