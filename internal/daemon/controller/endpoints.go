// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package controller

import (
	"net/http"
	"sort"

	"github.com/quotagate/quotagate/internal/daemon/controller/handlers/ldap_auth"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers/limits"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers/registered_limits"
	"github.com/quotagate/quotagate/internal/daemon/metric"
	"github.com/quotagate/quotagate/internal/ratelimit"
	"github.com/quotagate/quotagate/internal/types/action"
	"github.com/quotagate/quotagate/internal/types/resource"
)

// apiEndpoints maps every route template served by the api listeners to the
// resource and action of each method it accepts.
var apiEndpoints = map[string]map[string]ratelimit.Endpoint{
	limits.CollectionPath + "/model": {
		http.MethodGet: {Resource: resource.Limit, Action: action.ReadModel},
	},
	limits.CollectionPath: {
		http.MethodPost: {Resource: resource.Limit, Action: action.Create},
		http.MethodGet:  {Resource: resource.Limit, Action: action.List},
	},
	limits.CollectionPath + "/{id}": {
		http.MethodGet:    {Resource: resource.Limit, Action: action.Read},
		http.MethodPatch:  {Resource: resource.Limit, Action: action.Update},
		http.MethodDelete: {Resource: resource.Limit, Action: action.Delete},
	},
	registered_limits.CollectionPath: {
		http.MethodPost: {Resource: resource.RegisteredLimit, Action: action.Create},
		http.MethodGet:  {Resource: resource.RegisteredLimit, Action: action.List},
	},
	registered_limits.CollectionPath + "/{id}": {
		http.MethodGet:    {Resource: resource.RegisteredLimit, Action: action.Read},
		http.MethodPatch:  {Resource: resource.RegisteredLimit, Action: action.Update},
		http.MethodDelete: {Resource: resource.RegisteredLimit, Action: action.Delete},
	},
	ldap_auth.AuthenticatePath: {
		http.MethodPost: {Resource: resource.LdapUser, Action: action.Authenticate},
	},
}

func endpointTemplates() []string {
	out := make([]string, 0, len(apiEndpoints))
	for t := range apiEndpoints {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// pathsToMethods lists the methods of every route template, for
// initializing the api collectors.
func pathsToMethods() map[string][]string {
	out := make(map[string][]string, len(apiEndpoints))
	for t, methods := range apiEndpoints {
		for m := range methods {
			out[t] = append(out[t], m)
		}
		sort.Strings(out[t])
	}
	return out
}

// newEndpointFunc resolves requests to their endpoint through the route
// templates known to m. Paths outside apiEndpoints, such as /metrics, are
// not rate limited.
func newEndpointFunc(m *metric.PathMatcher) ratelimit.EndpointFunc {
	return func(r *http.Request) (ratelimit.Endpoint, bool) {
		t, ok := m.Match(r.URL.Path)
		if !ok {
			return ratelimit.Endpoint{}, false
		}
		ep, ok := apiEndpoints[t][r.Method]
		return ep, ok
	}
}
