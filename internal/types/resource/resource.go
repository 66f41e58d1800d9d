// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package resource

// Type defines the types of resources in the system
type Type uint

const (
	Unknown         Type = 0
	All             Type = 1
	RegisteredLimit Type = 2
	Limit           Type = 3
	LdapUser        Type = 4
)

func (r Type) String() string {
	return [...]string{
		"unknown",
		"*",
		"registered-limit",
		"limit",
		"ldap-user",
	}[r]
}

// PluralString returns the collection name used in response bodies.
func (r Type) PluralString() string {
	switch r {
	case RegisteredLimit:
		return "registered_limits"
	case Limit:
		return "limits"
	case LdapUser:
		return "users"
	default:
		return r.String()
	}
}

var Map = map[string]Type{
	Unknown.String():         Unknown,
	All.String():             All,
	RegisteredLimit.String(): RegisteredLimit,
	Limit.String():           Limit,
	LdapUser.String():        LdapUser,
}
