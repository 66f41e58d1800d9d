// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ldap_auth

import (
	"context"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/quotagate/quotagate/internal/daemon/controller/common"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/quotagate/quotagate/internal/identity/ldap"
	"github.com/quotagate/quotagate/internal/perms"
	"github.com/quotagate/quotagate/internal/types/action"
	"github.com/quotagate/quotagate/internal/types/resource"
)

// AuthenticatePath is where LDAP credentials are posted.
const AuthenticatePath = "/v3/auth/ldap"

var (
	// CollectionActions contains the set of actions that can be performed on
	// this collection
	CollectionActions = action.NewActionSet(
		action.Authenticate,
	)

	authenticateSchema = handlers.StrictObject(map[string]*openapi3.Schema{
		"auth": handlers.StrictObject(map[string]*openapi3.Schema{
			"login_name": handlers.NameString(),
			"password":   openapi3.NewStringSchema().WithMinLength(1),
		}, "login_name", "password"),
	}, "auth")
)

func init() {
	action.RegisterResource(resource.LdapUser, CollectionActions)
}

type (
	AuthenticateRequest struct {
		Body map[string]any
	}
	AuthenticateResponse struct {
		User *ldap.User `json:"user"`
	}
)

type credentials struct {
	Auth struct {
		LoginName string `json:"login_name"`
		Password  string `json:"password"`
	} `json:"auth"`
}

// Service authenticates users against the directory.
type Service struct {
	directoryFn common.DirectoryFactory
	acl         perms.ACL
}

// NewService returns an LDAP authentication service.
func NewService(ctx context.Context, directoryFn common.DirectoryFactory, acl perms.ACL) (Service, error) {
	const op = "ldap_auth.NewService"
	if directoryFn == nil {
		return Service{}, errors.New(ctx, errors.InvalidParameter, op, "missing directory")
	}
	return Service{directoryFn: directoryFn, acl: acl}, nil
}

// Routes mounts the service on r.
func (s Service) Routes(r chi.Router, logger hclog.Logger) {
	r.Post(AuthenticatePath, handlers.Endpoint(logger, http.StatusOK,
		func(req *http.Request) (*AuthenticateRequest, error) {
			body, err := handlers.DecodeBody(req)
			return &AuthenticateRequest{Body: body}, err
		}, s.Authenticate))
}

// Authenticate binds the supplied credentials and returns the directory
// user. Failed binds are reported as Unauthenticated.
func (s Service) Authenticate(ctx context.Context, req *AuthenticateRequest) (*AuthenticateResponse, error) {
	const op = "ldap_auth.(Service).Authenticate"
	if _, err := handlers.Authorize(ctx, s.acl, resource.LdapUser, action.Authenticate); err != nil {
		return nil, err
	}
	if err := handlers.Validate(authenticateSchema, req.Body); err != nil {
		return nil, err
	}
	var creds credentials
	if err := handlers.Reshape(req.Body, &creds); err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	dir, err := s.directoryFn()
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	u, err := dir.Authenticate(ctx, creds.Auth.LoginName, creds.Auth.Password)
	if err != nil {
		return nil, err
	}
	if !u.Enabled {
		return nil, errors.New(ctx, errors.AuthAttemptFailed, op, "user is disabled")
	}
	return &AuthenticateResponse{User: u}, nil
}
