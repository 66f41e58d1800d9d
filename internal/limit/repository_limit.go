// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limit

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-secure-stdlib/strutil"
	"github.com/quotagate/quotagate/internal/db"
	"github.com/quotagate/quotagate/internal/errors"
	"github.com/quotagate/quotagate/internal/hints"
)

// CreateLimits inserts ls in a single transaction. Every limit must match a
// registered limit on service, region and resource.
func (r *Repository) CreateLimits(ctx context.Context, ls []*Limit) ([]*Limit, error) {
	const op = "limit.(Repository).CreateLimits"
	if len(ls) == 0 {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing limits")
	}
	items := make([]*Limit, 0, len(ls))
	for i, l := range ls {
		switch {
		case l == nil:
			return nil, errors.New(ctx, errors.InvalidParameter, op, fmt.Sprintf("missing limit at index %d", i))
		case l.Id != "":
			return nil, errors.New(ctx, errors.InvalidParameter, op, "id must be empty")
		case l.RegisteredLimitId != "":
			return nil, errors.New(ctx, errors.InvalidParameter, op, "registered limit id must be empty")
		}
		if err := l.validate(ctx, op); err != nil {
			return nil, err
		}
		cp := l.Clone()
		id, err := newId(ctx)
		if err != nil {
			return nil, errors.Wrap(ctx, err, op)
		}
		cp.Id = id
		items = append(items, cp)
	}

	var created []*Limit
	_, err := r.writer.DoTx(ctx, db.StdRetryCnt, db.ExpBackoff{},
		func(reader db.Reader, w db.Writer) error {
			created = make([]*Limit, 0, len(items))
			for _, l := range items {
				cp := l.Clone()
				rl := allocRegisteredLimit()
				err := reader.LookupWhere(ctx, rl, matchingRegisteredLimitWhere, []any{cp.ServiceId, regionKey(cp.RegionId), cp.ResourceName})
				switch {
				case errors.IsNotFoundError(err):
					return errors.New(ctx, errors.InvalidParameter, op,
						fmt.Sprintf("unable to create a limit that has no corresponding registered limit: service %q, region %q, resource %q", cp.ServiceId, regionKey(cp.RegionId), cp.ResourceName))
				case err != nil:
					return errors.Wrap(ctx, err, op)
				}
				cp.RegisteredLimitId = rl.Id
				created = append(created, cp)
			}
			if err := w.CreateItems(ctx, created); err != nil {
				return errors.Wrap(ctx, err, op)
			}
			return nil
		},
	)
	if err != nil {
		if errors.IsUniqueError(err) {
			return nil, errors.New(ctx, errors.NotUnique, op, "duplicate limit for project, service, region and resource", errors.WithWrap(err))
		}
		return nil, errors.Wrap(ctx, err, op)
	}
	return created, nil
}

// UpdateLimit updates the resource limit and description of a limit. Only
// ResourceLimit and Description are valid field mask paths.
func (r *Repository) UpdateLimit(ctx context.Context, id string, l *Limit, fieldMask []string) (*Limit, error) {
	const op = "limit.(Repository).UpdateLimit"
	switch {
	case id == "":
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing id")
	case l == nil:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing limit")
	case len(fieldMask) == 0:
		return nil, errors.New(ctx, errors.EmptyFieldMask, op, "empty field mask")
	}
	for _, f := range fieldMask {
		switch f {
		case ResourceLimitField, DescriptionField:
		default:
			return nil, errors.New(ctx, errors.InvalidFieldMask, op, fmt.Sprintf("invalid field mask: %s", f))
		}
	}

	var updated *Limit
	_, err := r.writer.DoTx(ctx, db.StdRetryCnt, db.ExpBackoff{},
		func(reader db.Reader, w db.Writer) error {
			current := allocLimit()
			current.Id = id
			if err := reader.LookupById(ctx, current); err != nil {
				if errors.IsNotFoundError(err) {
					return errors.New(ctx, errors.RecordNotFound, op, fmt.Sprintf("could not find limit: %s", id))
				}
				return errors.Wrap(ctx, err, op)
			}
			merged := current.Clone()
			if strutil.StrListContains(fieldMask, ResourceLimitField) {
				merged.ResourceLimit = l.ResourceLimit
			}
			if strutil.StrListContains(fieldMask, DescriptionField) {
				merged.Description = cloneStr(l.Description)
			}
			if err := merged.validate(ctx, op); err != nil {
				return err
			}
			rowsUpdated, err := w.Exec(ctx, updateLimitQuery, []any{merged.ResourceLimit, merged.Description, id})
			if err != nil {
				return errors.Wrap(ctx, err, op)
			}
			if rowsUpdated != 1 {
				return errors.New(ctx, errors.MultipleRecords, op, fmt.Sprintf("%d limits would have been updated", rowsUpdated))
			}
			updated = allocLimit()
			updated.Id = id
			if err := reader.LookupById(ctx, updated); err != nil {
				return errors.Wrap(ctx, err, op)
			}
			return nil
		},
	)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	return updated, nil
}

// ListLimits returns the limits matching the exact filters service_id,
// region_id, resource_name and project_id in h.
func (r *Repository) ListLimits(ctx context.Context, h *hints.Hints) ([]*Limit, error) {
	const op = "limit.(Repository).ListLimits"
	ls, err := search[*Limit](ctx, r, h, limitFilterColumns)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	return ls, nil
}

// GetLimit returns the limit with the id.
func (r *Repository) GetLimit(ctx context.Context, id string) (*Limit, error) {
	const op = "limit.(Repository).GetLimit"
	if id == "" {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing id")
	}
	l := allocLimit()
	l.Id = id
	if err := r.reader.LookupById(ctx, l); err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.New(ctx, errors.RecordNotFound, op, fmt.Sprintf("could not find limit: %s", id))
		}
		return nil, errors.Wrap(ctx, err, op, errors.WithMsg(fmt.Sprintf("failed for %s", id)))
	}
	return l, nil
}

// DeleteLimit deletes the limit with the id.
func (r *Repository) DeleteLimit(ctx context.Context, id string) error {
	const op = "limit.(Repository).DeleteLimit"
	if id == "" {
		return errors.New(ctx, errors.InvalidParameter, op, "missing id")
	}
	l := allocLimit()
	l.Id = id
	var rowsDeleted int
	_, err := r.writer.DoTx(ctx, db.StdRetryCnt, db.ExpBackoff{},
		func(_ db.Reader, w db.Writer) error {
			var err error
			rowsDeleted, err = w.Delete(ctx, l.Clone())
			if err != nil {
				return errors.Wrap(ctx, err, op)
			}
			return nil
		},
	)
	if err != nil {
		return errors.Wrap(ctx, err, op)
	}
	if rowsDeleted == 0 {
		return errors.New(ctx, errors.RecordNotFound, op, fmt.Sprintf("could not find limit: %s", id))
	}
	return nil
}
