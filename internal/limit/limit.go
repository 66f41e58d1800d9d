// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limit

import (
	"context"

	"github.com/quotagate/quotagate/internal/errors"
)

// Limit overrides a registered limit for one project.
type Limit struct {
	Id                string `gorm:"primary_key"`
	ProjectId         string
	RegisteredLimitId string
	ServiceId         string
	RegionId          *string `gorm:"default:null"`
	ResourceName      string
	ResourceLimit     int
	Description       *string `gorm:"default:null"`
}

// NewLimit creates an in-memory limit. Supports the WithRegionId and
// WithDescription options.
func NewLimit(ctx context.Context, projectId, serviceId, resourceName string, resourceLimit int, opt ...Option) (*Limit, error) {
	const op = "limit.NewLimit"
	opts, err := getOpts(opt...)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	l := &Limit{
		ProjectId:     projectId,
		ServiceId:     serviceId,
		RegionId:      opts.withRegionId,
		ResourceName:  resourceName,
		ResourceLimit: resourceLimit,
		Description:   opts.withDescription,
	}
	if err := l.validate(ctx, op); err != nil {
		return nil, err
	}
	return l, nil
}

func allocLimit() *Limit {
	return &Limit{}
}

// TableName returns the table name.
func (l *Limit) TableName() string {
	return "project_limit"
}

// Clone returns a deep copy.
func (l *Limit) Clone() *Limit {
	cp := *l
	cp.RegionId = cloneStr(l.RegionId)
	cp.Description = cloneStr(l.Description)
	return &cp
}

func (l *Limit) validate(ctx context.Context, caller errors.Op) error {
	if err := validateAttr(ctx, caller, "project id", l.ProjectId); err != nil {
		return err
	}
	if err := validateAttr(ctx, caller, "service id", l.ServiceId); err != nil {
		return err
	}
	if err := validateAttr(ctx, caller, "resource name", l.ResourceName); err != nil {
		return err
	}
	if l.RegionId != nil {
		if err := validateAttr(ctx, caller, "region id", *l.RegionId); err != nil {
			return err
		}
	}
	return validateLimitValue(ctx, caller, "resource limit", l.ResourceLimit)
}
