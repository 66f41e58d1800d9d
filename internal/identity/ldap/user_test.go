// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ldap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_mapUser(t *testing.T) {
	t.Parallel()
	base := func() *Config {
		return &Config{
			UserIdAttribute:          "uid",
			UserNameAttribute:        "cn",
			UserMailAttribute:        "mail",
			UserDescriptionAttribute: "description",
			UserDefaultProjectIdAttr: "projectId",
			UserEnabledAttribute:     "enabled",
			UserEnabledDefault:       "True",
		}
	}
	attrs := map[string][]string{
		"UID":         {"alice-id"},
		"cn":          {"Alice"},
		"mail":        {"alice@example.com"},
		"description": {"first user"},
		"projectId":   {"p-1"},
		"phone":       {"555-1234"},
	}

	tests := []struct {
		name   string
		conf   func(*Config)
		attrs  map[string][]string
		groups []string
		want   *User
	}{
		{
			name:  "all-attributes",
			attrs: attrs,
			want: &User{
				Id:               "alice-id",
				Name:             "Alice",
				Email:            "alice@example.com",
				Description:      "first user",
				DefaultProjectId: "p-1",
				Enabled:          true,
				DN:               "cn=alice",
			},
		},
		{
			name:  "missing-id-and-name-use-login",
			attrs: map[string][]string{},
			want:  &User{Id: "alice", Name: "alice", Enabled: true, DN: "cn=alice"},
		},
		{
			name:  "enabled-false",
			attrs: map[string][]string{"enabled": {"FALSE"}},
			want:  &User{Id: "alice", Name: "alice", Enabled: false, DN: "cn=alice"},
		},
		{
			name:  "enabled-invert",
			conf:  func(c *Config) { c.UserEnabledInvert = true },
			attrs: map[string][]string{"enabled": {"true"}},
			want:  &User{Id: "alice", Name: "alice", Enabled: false, DN: "cn=alice"},
		},
		{
			name:  "enabled-invert-default-not-inverted",
			conf:  func(c *Config) { c.UserEnabledInvert = true },
			attrs: map[string][]string{},
			want:  &User{Id: "alice", Name: "alice", Enabled: true, DN: "cn=alice"},
		},
		{
			name:  "mask-bit-set-is-disabled",
			conf:  func(c *Config) { c.UserEnabledMask = 2; c.UserEnabledAttribute = "userAccountControl" },
			attrs: map[string][]string{"userAccountControl": {"514"}},
			want:  &User{Id: "alice", Name: "alice", Enabled: false, DN: "cn=alice"},
		},
		{
			name:  "mask-bit-clear-is-enabled",
			conf:  func(c *Config) { c.UserEnabledMask = 2; c.UserEnabledAttribute = "userAccountControl" },
			attrs: map[string][]string{"userAccountControl": {"512"}},
			want:  &User{Id: "alice", Name: "alice", Enabled: true, DN: "cn=alice"},
		},
		{
			name: "mask-uses-default",
			conf: func(c *Config) {
				c.UserEnabledMask = 2
				c.UserEnabledAttribute = "userAccountControl"
				c.UserEnabledDefault = "512"
			},
			attrs: map[string][]string{},
			want:  &User{Id: "alice", Name: "alice", Enabled: true, DN: "cn=alice"},
		},
		{
			name: "emulation-member",
			conf: func(c *Config) {
				c.UserEnabledEmulation = true
				c.UserEnabledEmulationDN = "cn=enabled_users,dc=example"
			},
			attrs:  map[string][]string{"enabled": {"false"}},
			groups: []string{"CN=enabled_users,dc=example"},
			want:   &User{Id: "alice", Name: "alice", Enabled: true, DN: "cn=alice"},
		},
		{
			name: "emulation-not-member",
			conf: func(c *Config) {
				c.UserEnabledEmulation = true
				c.UserEnabledEmulationDN = "cn=enabled_users,dc=example"
			},
			attrs:  map[string][]string{"enabled": {"true"}},
			groups: []string{"cn=admins,dc=example"},
			want:   &User{Id: "alice", Name: "alice", Enabled: false, DN: "cn=alice"},
		},
		{
			name: "additional-mapping-and-ignore",
			conf: func(c *Config) {
				c.UserAdditionalAttributes = map[string]string{"phone": "telephone", "missing": "gone", "mail": "contact"}
				c.UserAttributeIgnore = []string{"email", "default_project_id", "contact"}
			},
			attrs: attrs,
			want: &User{
				Id:          "alice-id",
				Name:        "Alice",
				Description: "first user",
				Enabled:     true,
				DN:          "cn=alice",
				Extra:       map[string]string{"telephone": "555-1234"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			if tt.conf != nil {
				tt.conf(c)
			}
			got := c.mapUser("alice", "cn=alice", tt.attrs, tt.groups)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAttributeMapping(t *testing.T) {
	got, bad := parseAttributeMapping([]string{"a:b", " c : d ", "nocolon", ":x", "y:"})
	assert.Equal(t, map[string]string{"a": "b", "c": "d"}, got)
	assert.Equal(t, []string{"nocolon", ":x", "y:"}, bad)
}
