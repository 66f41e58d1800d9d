// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limit

import (
	"context"
	"strings"

	"github.com/hashicorp/go-uuid"
	"github.com/quotagate/quotagate/internal/errors"
)

// newId returns a random uuid rendered as 32 lowercase hex characters.
func newId(ctx context.Context) (string, error) {
	const op = "limit.newId"
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", errors.Wrap(ctx, err, op)
	}
	return strings.ReplaceAll(id, "-", ""), nil
}
