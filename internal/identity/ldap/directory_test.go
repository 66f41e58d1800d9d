// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ldap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/jimlambrt/gldap"
	"github.com/jimlambrt/gldap/testdirectory"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDirectory(t *testing.T, extra map[string]any) (*Directory, *testdirectory.Directory) {
	t.Helper()
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "test-logger",
		Level: hclog.Error,
	})
	td := testdirectory.Start(t,
		testdirectory.WithDefaults(t, &testdirectory.Defaults{AllowAnonymousBind: true}),
		testdirectory.WithLogger(t, logger),
	)

	groups := []*gldap.Entry{
		testdirectory.NewGroup(t, "enabled_users", []string{"alice"}),
	}
	users := testdirectory.NewUsers(t, []string{"alice", "bob"}, testdirectory.WithMembersOf(t, "enabled_users"))
	td.SetUsers(users...)
	td.SetGroups(groups...)

	certFile := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(certFile, []byte(td.Cert()), 0o600))

	values := map[string]any{
		"url":                 fmt.Sprintf("ldaps://%s:%d", td.Host(), td.Port()),
		"suffix":              "dc=example,dc=org",
		"user_tree_dn":        testdirectory.DefaultUserDN,
		"group_tree_dn":       testdirectory.DefaultGroupDN,
		"user_name_attribute": "cn",
		"user_id_attribute":   "name",
		"user_mail_attribute": "email",
		"tls_cacertfile":      certFile,
		"pool_retry_max":      1,
		"pool_retry_delay":    0.01,
	}
	for k, v := range extra {
		values[k] = v
	}
	c, err := NewConfig(context.Background(), TestRegistry(t, values))
	require.NoError(t, err)
	d, err := NewDirectory(context.Background(), c, WithLogger(logger))
	require.NoError(t, err)
	return d, td
}

func TestNewDirectory(t *testing.T) {
	t.Parallel()
	_, err := NewDirectory(context.Background(), nil)
	assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))

	d, err := NewDirectory(context.Background(), &Config{UsePool: true, PoolSize: 2})
	require.NoError(t, err)
	assert.NotNil(t, d.queryPool)
	assert.Nil(t, d.authPool)
}

func TestDirectory_Authenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d, _ := testDirectory(t, nil)

	u, err := d.Authenticate(ctx, "alice", "password")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Id)
	assert.Equal(t, "alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.True(t, u.Enabled)
	assert.Equal(t, fmt.Sprintf("cn=alice,%s", testdirectory.DefaultUserDN), u.DN)

	tests := []struct {
		name     string
		login    string
		password string
		wantCode errors.Code
	}{
		{name: "missing-login", password: "password", wantCode: errors.InvalidParameter},
		{name: "empty-password", login: "alice", wantCode: errors.AuthAttemptFailed},
		{name: "bad-password", login: "alice", password: "wrong", wantCode: errors.AuthAttemptFailed},
		{name: "unknown-user", login: "eve", password: "password", wantCode: errors.AuthAttemptFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Authenticate(ctx, tt.login, tt.password)
			require.Error(t, err)
			assert.Truef(t, errors.Match(errors.T(tt.wantCode), err), "unexpected error: %v", err)
		})
	}
}

func TestDirectory_AuthenticateEnabledEmulation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d, _ := testDirectory(t, map[string]any{
		"user_enabled_emulation":    true,
		"user_enabled_emulation_dn": fmt.Sprintf("cn=enabled_users,%s", testdirectory.DefaultGroupDN),
	})

	alice, err := d.Authenticate(ctx, "alice", "password")
	require.NoError(t, err)
	assert.True(t, alice.Enabled)

	bob, err := d.Authenticate(ctx, "bob", "password")
	require.NoError(t, err)
	assert.False(t, bob.Enabled)
}

func TestDirectory_Check(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d, _ := testDirectory(t, nil)
	require.NoError(t, d.Check(ctx))

	down := *d.conf
	down.URLs = []string{fmt.Sprintf("ldap://127.0.0.1:%d", testdirectory.FreePort(t))}
	dd, err := NewDirectory(ctx, &down)
	require.NoError(t, err)
	err = dd.Check(ctx)
	require.Error(t, err)
	assert.True(t, errors.Match(errors.T(errors.DirectoryUnavailable), err))
}
