// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package handlers

import (
	"context"

	"github.com/quotagate/quotagate/internal/perms"
	"github.com/quotagate/quotagate/internal/requests"
	"github.com/quotagate/quotagate/internal/types/action"
	"github.com/quotagate/quotagate/internal/types/resource"
)

// Authorize checks the caller in ctx against acl. Unauthenticated callers of
// protected actions get Unauthenticated; authenticated callers lacking the
// rule get Forbidden.
func Authorize(ctx context.Context, acl perms.ACL, res resource.Type, act action.Type) (*requests.Identity, error) {
	caller := requests.IdentityFromCtx(ctx)
	results := acl.Allowed(caller, res, act)
	switch {
	case results.Authorized:
		return caller, nil
	case !results.AuthenticationFinished:
		return nil, UnauthenticatedError()
	default:
		return nil, ForbiddenError()
	}
}
