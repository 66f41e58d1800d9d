// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

// Package requests carries per-request caller information through the
// context of API handlers.
package requests

import (
	"context"
	"net/http"
	"strings"

	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"github.com/hashicorp/go-secure-stdlib/strutil"
)

// Headers set by the authenticating proxy in front of the API.
const (
	HeaderIdentityStatus = "X-Identity-Status"
	HeaderUserId         = "X-User-Id"
	HeaderProjectId      = "X-Project-Id"
	HeaderDomainId       = "X-Domain-Id"
	HeaderRoles          = "X-Roles"
	HeaderSystemScope    = "X-System-Scope"
	HeaderIsAdminProject = "X-Is-Admin-Project"
	HeaderRequestId      = "X-Openstack-Request-Id"

	identityConfirmed = "Confirmed"
	AdminRole         = "admin"
)

// Identity describes the authenticated caller.
type Identity struct {
	Authenticated bool
	UserId        string
	ProjectId     string
	DomainId      string
	Roles         []string
	SystemScope   string

	// IsAdminProject reports that the token's project is the cloud admin
	// project. The proxy sets it for every project token when no admin
	// project is configured, so it never grants admin rights.
	IsAdminProject bool
}

// IsSystemScoped reports whether the caller holds a system scoped token.
func (i *Identity) IsSystemScoped() bool {
	return i != nil && i.SystemScope != ""
}

// HasRole reports whether the caller holds role. Role names are compared
// case insensitively.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// IsAdministrator reports whether the caller holds the admin role.
func (i *Identity) IsAdministrator() bool {
	return i.HasRole(AdminRole)
}

// IdentityFromHeaders reads the caller from the identity headers. Requests
// whose identity status is not Confirmed are unauthenticated.
func IdentityFromHeaders(h http.Header) *Identity {
	id := &Identity{}
	if !strings.EqualFold(strings.TrimSpace(h.Get(HeaderIdentityStatus)), identityConfirmed) {
		return id
	}
	id.Authenticated = true
	id.UserId = strings.TrimSpace(h.Get(HeaderUserId))
	id.ProjectId = strings.TrimSpace(h.Get(HeaderProjectId))
	id.DomainId = strings.TrimSpace(h.Get(HeaderDomainId))
	id.SystemScope = strings.TrimSpace(h.Get(HeaderSystemScope))
	if roles := h.Get(HeaderRoles); roles != "" {
		id.Roles = strutil.ParseDedupAndSortStrings(roles, ",")
	}
	if v := h.Get(HeaderIsAdminProject); v != "" {
		if isAdminProject, err := parseutil.ParseBool(v); err == nil {
			id.IsAdminProject = isAdminProject
		}
	}
	return id
}

// RequestContext is the information about a request kept in its context.
type RequestContext struct {
	Identity  *Identity
	RequestId string
	ClientIp  string
	Method    string
	Path      string

	// BaseUrl is the public scheme and host used to build resource links.
	BaseUrl string
}

type requestContextKey struct{}

// NewRequestContext returns a copy of ctx carrying rc.
func NewRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFromCtx returns the RequestContext stored in ctx.
func RequestContextFromCtx(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	if !ok || rc == nil {
		return nil, false
	}
	return rc, true
}

// IdentityFromCtx returns the caller stored in ctx, or an unauthenticated
// identity when there is none.
func IdentityFromCtx(ctx context.Context) *Identity {
	rc, ok := RequestContextFromCtx(ctx)
	if !ok || rc.Identity == nil {
		return &Identity{}
	}
	return rc.Identity
}
