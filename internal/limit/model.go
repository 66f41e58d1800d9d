// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limit

import (
	"context"
	"fmt"

	"github.com/quotagate/quotagate/internal/errors"
)

// FlatModelName is the name of the flat enforcement model.
const FlatModelName = "flat"

// Model describes how limits are enforced across the project hierarchy.
type Model struct {
	Name        string
	Description string
}

var models = map[string]Model{
	FlatModelName: {
		Name:        FlatModelName,
		Description: "Limit enforcement and validation does not take project hierarchy into consideration.",
	},
}

// LookupModel returns the enforcement model registered under name.
func LookupModel(ctx context.Context, name string) (*Model, error) {
	const op = "limit.LookupModel"
	m, ok := models[name]
	if !ok {
		return nil, errors.New(ctx, errors.InvalidParameter, op, fmt.Sprintf("unknown enforcement model %q", name))
	}
	return &m, nil
}
