// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ldap

import (
	"strconv"
	"strings"

	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"github.com/hashicorp/go-secure-stdlib/strutil"
)

// User is a directory entry mapped to the identity user model.
type User struct {
	Id               string            `json:"id"`
	Name             string            `json:"name"`
	Email            string            `json:"email,omitempty"`
	Description      string            `json:"description,omitempty"`
	DefaultProjectId string            `json:"default_project_id,omitempty"`
	Enabled          bool              `json:"enabled"`
	DN               string            `json:"-"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// attributes is a case insensitive view of entry attributes.
type attributes map[string][]string

func newAttributes(in map[string][]string) attributes {
	out := make(attributes, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}

func (a attributes) first(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v, ok := a[strings.ToLower(name)]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// mapUser builds a User for login from the entry attributes and the DNs of
// the groups the entry belongs to.
func (c *Config) mapUser(login, dn string, attrs map[string][]string, groups []string) *User {
	a := newAttributes(attrs)
	u := &User{DN: dn}
	u.Id, _ = a.first(c.UserIdAttribute)
	if u.Id == "" {
		u.Id = login
	}
	u.Name, _ = a.first(c.UserNameAttribute)
	if u.Name == "" {
		u.Name = login
	}
	u.Email, _ = a.first(c.UserMailAttribute)
	u.Description, _ = a.first(c.UserDescriptionAttribute)
	u.DefaultProjectId, _ = a.first(c.UserDefaultProjectIdAttr)
	u.Enabled = c.enabled(a, groups)

	for ldapAttr, userAttr := range c.UserAdditionalAttributes {
		if v, ok := a.first(ldapAttr); ok {
			if u.Extra == nil {
				u.Extra = map[string]string{}
			}
			u.Extra[userAttr] = v
		}
	}
	c.ignore(u)
	return u
}

func (c *Config) enabled(a attributes, groups []string) bool {
	if c.UserEnabledEmulation {
		for _, g := range groups {
			if strings.EqualFold(g, c.UserEnabledEmulationDN) {
				return true
			}
		}
		return false
	}
	raw, ok := a.first(c.UserEnabledAttribute)
	if !ok {
		raw = c.UserEnabledDefault
	}
	if c.UserEnabledMask != 0 {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return false
		}
		return v&c.UserEnabledMask != c.UserEnabledMask
	}
	v, err := parseutil.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if c.UserEnabledInvert && ok {
		return !v
	}
	return v
}

func (c *Config) ignore(u *User) {
	for _, attr := range c.UserAttributeIgnore {
		switch attr {
		case "email":
			u.Email = ""
		case "description":
			u.Description = ""
		case "default_project_id":
			u.DefaultProjectId = ""
		}
	}
	for name := range u.Extra {
		if strutil.StrListContains(c.UserAttributeIgnore, name) {
			delete(u.Extra, name)
		}
	}
}
