// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limit

import (
	"context"
	"fmt"

	"github.com/quotagate/quotagate/internal/errors"
)

// Bounds shared by registered limits and limits.
const (
	Unlimited    = -1
	MaxLimit     = 2147483647
	maxAttrBytes = 255
)

// Field mask paths understood by the update operations.
const (
	ServiceIdField     = "ServiceId"
	RegionIdField      = "RegionId"
	ResourceNameField  = "ResourceName"
	DefaultLimitField  = "DefaultLimit"
	ResourceLimitField = "ResourceLimit"
	DescriptionField   = "Description"
)

// RegisteredLimit is the service-wide default quota for a resource.
type RegisteredLimit struct {
	Id           string `gorm:"primary_key"`
	ServiceId    string
	RegionId     *string `gorm:"default:null"`
	ResourceName string
	DefaultLimit int
	Description  *string `gorm:"default:null"`
}

// NewRegisteredLimit creates an in-memory registered limit. Supports the
// WithRegionId and WithDescription options.
func NewRegisteredLimit(ctx context.Context, serviceId, resourceName string, defaultLimit int, opt ...Option) (*RegisteredLimit, error) {
	const op = "limit.NewRegisteredLimit"
	opts, err := getOpts(opt...)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	rl := &RegisteredLimit{
		ServiceId:    serviceId,
		RegionId:     opts.withRegionId,
		ResourceName: resourceName,
		DefaultLimit: defaultLimit,
		Description:  opts.withDescription,
	}
	if err := rl.validate(ctx, op); err != nil {
		return nil, err
	}
	return rl, nil
}

func allocRegisteredLimit() *RegisteredLimit {
	return &RegisteredLimit{}
}

// TableName returns the table name.
func (rl *RegisteredLimit) TableName() string {
	return "registered_limit"
}

// Clone returns a deep copy.
func (rl *RegisteredLimit) Clone() *RegisteredLimit {
	cp := *rl
	cp.RegionId = cloneStr(rl.RegionId)
	cp.Description = cloneStr(rl.Description)
	return &cp
}

func (rl *RegisteredLimit) validate(ctx context.Context, caller errors.Op) error {
	if err := validateAttr(ctx, caller, "service id", rl.ServiceId); err != nil {
		return err
	}
	if err := validateAttr(ctx, caller, "resource name", rl.ResourceName); err != nil {
		return err
	}
	if rl.RegionId != nil {
		if err := validateAttr(ctx, caller, "region id", *rl.RegionId); err != nil {
			return err
		}
	}
	return validateLimitValue(ctx, caller, "default limit", rl.DefaultLimit)
}

func validateAttr(ctx context.Context, caller errors.Op, name, v string) error {
	switch {
	case v == "":
		return errors.New(ctx, errors.InvalidParameter, caller, "missing "+name)
	case len(v) > maxAttrBytes:
		return errors.New(ctx, errors.InvalidParameter, caller, fmt.Sprintf("%s is longer than %d characters", name, maxAttrBytes))
	}
	return nil
}

func validateLimitValue(ctx context.Context, caller errors.Op, name string, v int) error {
	if v < Unlimited || v > MaxLimit {
		return errors.New(ctx, errors.InvalidParameter, caller, fmt.Sprintf("%s must be between %d and %d", name, Unlimited, MaxLimit))
	}
	return nil
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// regionKey treats a missing region as the empty region for comparisons.
func regionKey(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
