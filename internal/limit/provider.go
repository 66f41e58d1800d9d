// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limit

import (
	"context"

	"github.com/quotagate/quotagate/internal/hints"
)

// Provider is the unified limit API consumed by the HTTP handlers.
type Provider interface {
	CreateRegisteredLimits(ctx context.Context, rls []*RegisteredLimit) ([]*RegisteredLimit, error)
	UpdateRegisteredLimit(ctx context.Context, id string, rl *RegisteredLimit, fieldMask []string) (*RegisteredLimit, error)
	ListRegisteredLimits(ctx context.Context, h *hints.Hints) ([]*RegisteredLimit, error)
	GetRegisteredLimit(ctx context.Context, id string) (*RegisteredLimit, error)
	DeleteRegisteredLimit(ctx context.Context, id string) error

	GetModel(ctx context.Context) (*Model, error)

	CreateLimits(ctx context.Context, ls []*Limit) ([]*Limit, error)
	UpdateLimit(ctx context.Context, id string, l *Limit, fieldMask []string) (*Limit, error)
	ListLimits(ctx context.Context, h *hints.Hints) ([]*Limit, error)
	GetLimit(ctx context.Context, id string) (*Limit, error)
	DeleteLimit(ctx context.Context, id string) error
}

var _ Provider = (*Repository)(nil)
