// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package perms

import (
	"github.com/quotagate/quotagate/internal/requests"
	"github.com/quotagate/quotagate/internal/types/action"
	"github.com/quotagate/quotagate/internal/types/resource"
)

// Rule is the requirement a caller must meet for an action.
type Rule uint

const (
	RuleUnknown Rule = iota
	RuleAnonymous
	RuleAuthenticated
	RuleAdmin
)

func (r Rule) String() string {
	return [...]string{
		"unknown",
		"anonymous",
		"authenticated",
		"admin",
	}[r]
}

// Grant binds a rule to actions on a resource type.
type Grant struct {
	Resource resource.Type
	Actions  []action.Type
	Rule     Rule
}

// ACL provides an entry point into the permissions engine for determining if
// an action is allowed on a resource type for a caller.
type ACL struct {
	rules map[resource.Type]map[action.Type]Rule
}

// ACLResults provides a type for the permission's engine results.
type ACLResults struct {
	AuthenticationFinished bool
	Authorized             bool
	Rule                   Rule
}

// NewACL creates an ACL from the grants provided. Later grants override
// earlier grants for the same resource and action.
func NewACL(grants ...Grant) ACL {
	ret := ACL{rules: make(map[resource.Type]map[action.Type]Rule, len(grants))}
	for _, g := range grants {
		m, ok := ret.rules[g.Resource]
		if !ok {
			m = map[action.Type]Rule{}
			ret.rules[g.Resource] = m
		}
		for _, a := range g.Actions {
			m[a] = g.Rule
		}
	}
	return ret
}

// DefaultACL returns the policy of the unified limits API: reads are open to
// any authenticated caller and writes require admin.
func DefaultACL() ACL {
	var grants []Grant
	for _, res := range []resource.Type{resource.RegisteredLimit, resource.Limit} {
		grants = append(grants,
			Grant{Resource: res, Actions: []action.Type{action.List, action.Read}, Rule: RuleAuthenticated},
			Grant{Resource: res, Actions: []action.Type{action.Create, action.Update, action.Delete}, Rule: RuleAdmin},
		)
	}
	grants = append(grants,
		Grant{Resource: resource.Limit, Actions: []action.Type{action.ReadModel}, Rule: RuleAuthenticated},
		Grant{Resource: resource.LdapUser, Actions: []action.Type{action.Authenticate}, Rule: RuleAnonymous},
	)
	return NewACL(grants...)
}

// Allowed determines if the ACL allows the caller to perform act on res.
func (a ACL) Allowed(caller *requests.Identity, res resource.Type, act action.Type) (results ACLResults) {
	results.AuthenticationFinished = caller != nil && caller.Authenticated
	if m, ok := a.rules[res]; ok {
		results.Rule = m[act]
	}
	switch results.Rule {
	case RuleAnonymous:
		results.Authorized = true
	case RuleAuthenticated:
		results.Authorized = results.AuthenticationFinished
	case RuleAdmin:
		results.Authorized = results.AuthenticationFinished && caller.IsAdministrator()
	}
	return results
}
