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

// CreateRegisteredLimits inserts rls in a single transaction and returns
// the stored registered limits with their new ids. Either all are created or
// none are.
func (r *Repository) CreateRegisteredLimits(ctx context.Context, rls []*RegisteredLimit) ([]*RegisteredLimit, error) {
	const op = "limit.(Repository).CreateRegisteredLimits"
	if len(rls) == 0 {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing registered limits")
	}
	items := make([]*RegisteredLimit, 0, len(rls))
	for i, rl := range rls {
		switch {
		case rl == nil:
			return nil, errors.New(ctx, errors.InvalidParameter, op, fmt.Sprintf("missing registered limit at index %d", i))
		case rl.Id != "":
			return nil, errors.New(ctx, errors.InvalidParameter, op, "id must be empty")
		}
		if err := rl.validate(ctx, op); err != nil {
			return nil, err
		}
		cp := rl.Clone()
		id, err := newId(ctx)
		if err != nil {
			return nil, errors.Wrap(ctx, err, op)
		}
		cp.Id = id
		items = append(items, cp)
	}

	var created []*RegisteredLimit
	_, err := r.writer.DoTx(ctx, db.StdRetryCnt, db.ExpBackoff{},
		func(_ db.Reader, w db.Writer) error {
			created = make([]*RegisteredLimit, 0, len(items))
			for _, rl := range items {
				created = append(created, rl.Clone())
			}
			if err := w.CreateItems(ctx, created); err != nil {
				return errors.Wrap(ctx, err, op)
			}
			return nil
		},
	)
	if err != nil {
		if errors.IsUniqueError(err) {
			return nil, errors.New(ctx, errors.NotUnique, op, "duplicate registered limit for service, region and resource", errors.WithWrap(err))
		}
		return nil, errors.Wrap(ctx, err, op)
	}
	return created, nil
}

// UpdateRegisteredLimit updates the fields of the registered limit named in
// fieldMask. The service, region and resource of a registered limit that is
// referenced by limits cannot change.
func (r *Repository) UpdateRegisteredLimit(ctx context.Context, id string, rl *RegisteredLimit, fieldMask []string) (*RegisteredLimit, error) {
	const op = "limit.(Repository).UpdateRegisteredLimit"
	switch {
	case id == "":
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing id")
	case rl == nil:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing registered limit")
	case len(fieldMask) == 0:
		return nil, errors.New(ctx, errors.EmptyFieldMask, op, "empty field mask")
	}
	var identityChange bool
	for _, f := range fieldMask {
		switch f {
		case ServiceIdField, RegionIdField, ResourceNameField:
			identityChange = true
		case DefaultLimitField, DescriptionField:
		default:
			return nil, errors.New(ctx, errors.InvalidFieldMask, op, fmt.Sprintf("invalid field mask: %s", f))
		}
	}

	var updated *RegisteredLimit
	_, err := r.writer.DoTx(ctx, db.StdRetryCnt, db.ExpBackoff{},
		func(reader db.Reader, w db.Writer) error {
			current := allocRegisteredLimit()
			current.Id = id
			if err := reader.LookupById(ctx, current); err != nil {
				if errors.IsNotFoundError(err) {
					return errors.New(ctx, errors.RecordNotFound, op, fmt.Sprintf("could not find registered limit: %s", id))
				}
				return errors.Wrap(ctx, err, op)
			}
			if identityChange {
				referenced, err := isReferenced(ctx, reader, id)
				if err != nil {
					return errors.Wrap(ctx, err, op)
				}
				if referenced {
					return referencedError(ctx, op, id)
				}
			}
			merged := current.Clone()
			if strutil.StrListContains(fieldMask, ServiceIdField) {
				merged.ServiceId = rl.ServiceId
			}
			if strutil.StrListContains(fieldMask, RegionIdField) {
				merged.RegionId = cloneStr(rl.RegionId)
			}
			if strutil.StrListContains(fieldMask, ResourceNameField) {
				merged.ResourceName = rl.ResourceName
			}
			if strutil.StrListContains(fieldMask, DefaultLimitField) {
				merged.DefaultLimit = rl.DefaultLimit
			}
			if strutil.StrListContains(fieldMask, DescriptionField) {
				merged.Description = cloneStr(rl.Description)
			}
			if err := merged.validate(ctx, op); err != nil {
				return err
			}
			rowsUpdated, err := w.Exec(ctx, updateRegisteredLimitQuery, []any{
				merged.ServiceId,
				merged.RegionId,
				merged.ResourceName,
				merged.DefaultLimit,
				merged.Description,
				id,
			})
			if err != nil {
				return errors.Wrap(ctx, err, op)
			}
			if rowsUpdated != 1 {
				return errors.New(ctx, errors.MultipleRecords, op, fmt.Sprintf("%d registered limits would have been updated", rowsUpdated))
			}
			updated = allocRegisteredLimit()
			updated.Id = id
			if err := reader.LookupById(ctx, updated); err != nil {
				return errors.Wrap(ctx, err, op)
			}
			return nil
		},
	)
	if err != nil {
		if errors.IsUniqueError(err) {
			return nil, errors.New(ctx, errors.NotUnique, op, "duplicate registered limit for service, region and resource", errors.WithWrap(err))
		}
		return nil, errors.Wrap(ctx, err, op)
	}
	return updated, nil
}

// ListRegisteredLimits returns the registered limits matching the exact
// filters service_id, region_id and resource_name in h.
func (r *Repository) ListRegisteredLimits(ctx context.Context, h *hints.Hints) ([]*RegisteredLimit, error) {
	const op = "limit.(Repository).ListRegisteredLimits"
	rls, err := search[*RegisteredLimit](ctx, r, h, registeredLimitFilterColumns)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	return rls, nil
}

// GetRegisteredLimit returns the registered limit with the id.
func (r *Repository) GetRegisteredLimit(ctx context.Context, id string) (*RegisteredLimit, error) {
	const op = "limit.(Repository).GetRegisteredLimit"
	if id == "" {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing id")
	}
	rl := allocRegisteredLimit()
	rl.Id = id
	if err := r.reader.LookupById(ctx, rl); err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.New(ctx, errors.RecordNotFound, op, fmt.Sprintf("could not find registered limit: %s", id))
		}
		return nil, errors.Wrap(ctx, err, op, errors.WithMsg(fmt.Sprintf("failed for %s", id)))
	}
	return rl, nil
}

// DeleteRegisteredLimit deletes the registered limit with the id. A
// registered limit referenced by limits cannot be deleted.
func (r *Repository) DeleteRegisteredLimit(ctx context.Context, id string) error {
	const op = "limit.(Repository).DeleteRegisteredLimit"
	if id == "" {
		return errors.New(ctx, errors.InvalidParameter, op, "missing id")
	}
	_, err := r.writer.DoTx(ctx, db.StdRetryCnt, db.ExpBackoff{},
		func(reader db.Reader, w db.Writer) error {
			referenced, err := isReferenced(ctx, reader, id)
			if err != nil {
				return errors.Wrap(ctx, err, op)
			}
			if referenced {
				return referencedError(ctx, op, id)
			}
			rl := allocRegisteredLimit()
			rl.Id = id
			rowsDeleted, err := w.Delete(ctx, rl)
			if err != nil {
				return errors.Wrap(ctx, err, op)
			}
			if rowsDeleted == 0 {
				return errors.New(ctx, errors.RecordNotFound, op, fmt.Sprintf("could not find registered limit: %s", id))
			}
			return nil
		},
	)
	if err != nil {
		if errors.IsForeignKeyError(err) {
			return referencedError(ctx, op, id)
		}
		return errors.Wrap(ctx, err, op)
	}
	return nil
}

func isReferenced(ctx context.Context, reader db.Reader, registeredLimitId string) (bool, error) {
	const op = "limit.isReferenced"
	l := allocLimit()
	err := reader.LookupWhere(ctx, l, referencingLimitWhere, []any{registeredLimitId})
	switch {
	case err == nil:
		return true, nil
	case errors.IsNotFoundError(err):
		return false, nil
	default:
		return false, errors.Wrap(ctx, err, op)
	}
}

func referencedError(ctx context.Context, op errors.Op, id string) error {
	return errors.New(ctx, errors.StillReferenced, op, fmt.Sprintf("unable to update or delete registered limit %s because there are project limits associated with it", id))
}
