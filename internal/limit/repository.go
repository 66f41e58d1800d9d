// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limit

import (
	"context"

	"github.com/quotagate/quotagate/internal/db"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/quotagate/quotagate/internal/hints"
)

// Repository is the unified limit repository. It implements Provider.
type Repository struct {
	reader db.Reader
	writer db.Writer

	// defaultLimit provides a default for limiting the number of results returned from the repo
	defaultLimit int
	model        *Model
}

// NewRepository creates a new Repository. Supports the options: WithLimit
// which sets a default limit on results returned by repo operations and
// WithModel which selects the enforcement model.
func NewRepository(ctx context.Context, r db.Reader, w db.Writer, opt ...Option) (*Repository, error) {
	const op = "limit.NewRepository"
	if r == nil {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "reader is nil")
	}
	if w == nil {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "writer is nil")
	}
	opts, err := getOpts(opt...)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	if opts.withLimit == 0 {
		// zero signals the defaults should be used.
		opts.withLimit = db.DefaultLimit
	}
	model, err := LookupModel(ctx, opts.withModel)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	return &Repository{
		reader:       r,
		writer:       w,
		defaultLimit: opts.withLimit,
		model:        model,
	}, nil
}

// GetModel returns the enforcement model in use.
func (r *Repository) GetModel(_ context.Context) (*Model, error) {
	m := *r.model
	return &m, nil
}

// search runs a filtered list honoring the hints' limit, or the repository's
// default limit when the hints carry none. One extra row is requested to
// detect truncation. Hitting the default limit records it in the hints as a
// truncated limit.
func search[T any](ctx context.Context, r *Repository, h *hints.Hints, columns []string) ([]T, error) {
	const op = "limit.search"
	where, args := h.Where(columns...)
	limit := r.defaultLimit
	if h != nil && h.Limit != nil {
		limit = h.Limit.Limit
	}
	fetch := limit
	if limit > 0 {
		fetch = limit + 1
	}
	var found []T
	if err := r.reader.SearchWhere(ctx, &found, where, args, db.WithLimit(fetch), db.WithOrder("id asc")); err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	truncated := limit > 0 && len(found) > limit
	if truncated {
		found = found[:limit]
	}
	switch {
	case h == nil:
	case h.Limit != nil:
		h.Limit.Truncated = truncated
	case truncated:
		h.Limit = &hints.Limit{Limit: limit, Truncated: true}
	}
	return found, nil
}
