// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ldap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jimlambrt/gldap/testdirectory"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Parallel()
	c := TestConfig(t, nil)
	assert.Equal(t, []string{"ldap://localhost"}, c.URLs)
	assert.Equal(t, "cn=example,cn=com", c.UserTreeDN)
	assert.Equal(t, "cn=example,cn=com", c.GroupTreeDN)
	assert.Equal(t, "cn", c.UserIdAttribute)
	assert.Equal(t, "sn", c.UserNameAttribute)
	assert.Equal(t, "", c.DerefAliases)
	assert.False(t, c.InsecureTLS)
	assert.False(t, c.StartTLS)
	assert.True(t, c.UsePool)
	assert.Equal(t, 10, c.PoolSize)
	assert.Equal(t, 100, c.AuthPoolSize)
	assert.Equal(t, 3, c.RetryMax)
	assert.Equal(t, 100*time.Millisecond, c.RetryDelay)
	assert.Zero(t, c.RequestTimeout)
	assert.Equal(t, []string{"default_project_id"}, c.UserAttributeIgnore)
	assert.Empty(t, c.Certificates)

	cc := c.clientConfig()
	assert.Equal(t, c.URLs, cc.URLs)
	assert.Equal(t, "sn", cc.UserAttr)
	assert.Equal(t, "({{.UserAttr}}={{.Username}})", cc.UserFilter)
	assert.Equal(t, "(member={{.UserDN}})", cc.GroupFilter)
	assert.True(t, cc.DiscoverDN)
	assert.False(t, cc.IncludeUserGroups)
}

func TestNewConfig(t *testing.T) {
	t.Parallel()
	c := TestConfig(t, map[string]any{
		"url":                               "ldap://b.example.com, ldap://a.example.com,ldap://b.example.com",
		"suffix":                            "dc=example,dc=org",
		"user_tree_dn":                      "ou=people,dc=example,dc=org",
		"user_filter":                       "memberOf=cn=staff,dc=example,dc=org",
		"alias_dereferencing":               "always",
		"use_tls":                           true,
		"tls_req_cert":                      "allow",
		"pool_connection_timeout":           5,
		"user_enabled_emulation":            true,
		"user_additional_attribute_mapping": "telephoneNumber:phone, bogus, :empty",
		"group_members_are_ids":             true,
		"group_member_attribute":            "memberUid",
	})
	assert.Equal(t, []string{"ldap://b.example.com", "ldap://a.example.com"}, c.URLs)
	assert.Equal(t, "dc=example,dc=org", c.GroupTreeDN)
	assert.Equal(t, "always", c.DerefAliases)
	assert.True(t, c.StartTLS)
	assert.True(t, c.InsecureTLS)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, "cn=enabled_users,ou=people,dc=example,dc=org", c.UserEnabledEmulationDN)
	assert.Equal(t, map[string]string{"telephoneNumber": "phone"}, c.UserAdditionalAttributes)

	cc := c.clientConfig()
	assert.Equal(t, "(&({{.UserAttr}}={{.Username}})(memberOf=cn=staff,dc=example,dc=org))", cc.UserFilter)
	assert.Equal(t, "(memberUid={{.Username}})", cc.GroupFilter)
	assert.Equal(t, 5, cc.RequestTimeout)
	assert.True(t, cc.IncludeUserGroups)
}

func TestNewConfig_Certificates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	td := testdirectory.Start(t, testdirectory.WithLogger(t, hclog.NewNullLogger()))

	dir := t.TempDir()
	cert := td.Cert()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pem"), []byte(cert), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.crt"), []byte(cert), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("nope"), 0o600))

	c := TestConfig(t, map[string]any{"tls_cacertdir": dir})
	assert.Len(t, c.Certificates, 2)

	c = TestConfig(t, map[string]any{"tls_cacertfile": filepath.Join(dir, "a.pem"), "tls_cacertdir": dir})
	assert.Len(t, c.Certificates, 1)

	bad := filepath.Join(dir, "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a cert"), 0o600))
	_, err := NewConfig(ctx, TestRegistry(t, map[string]any{"tls_cacertfile": bad}))
	assert.True(t, errors.Match(errors.T(errors.InvalidConfigValue), err))

	_, err = NewConfig(ctx, TestRegistry(t, map[string]any{"tls_cacertfile": filepath.Join(dir, "missing.pem")}))
	assert.True(t, errors.Match(errors.T(errors.InvalidConfigValue), err))
}

func TestNewConfig_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, err := NewConfig(ctx, nil)
	assert.True(t, errors.Match(errors.T(errors.InvalidParameter), err))

	_, err = NewConfig(ctx, TestRegistry(t, map[string]any{"url": " , "}))
	assert.True(t, errors.Match(errors.T(errors.InvalidConfigValue), err))
}

func TestNewConfig_UnsupportedOptions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Warn})

	_, err := NewConfig(ctx, TestRegistry(t, nil), WithLogger(logger))
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	_, err = NewConfig(ctx, TestRegistry(t, map[string]any{
		"query_scope":              "sub",
		"pool_connection_lifetime": 60,
	}), WithLogger(logger))
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "option=query_scope")
	assert.Contains(t, out, "option=pool_connection_lifetime")
	assert.NotContains(t, out, "user_objectclass")
}
