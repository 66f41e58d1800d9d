// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package conf

import (
	"context"
	"fmt"

	"github.com/quotagate/quotagate/internal/errors"
)

// String returns the value of a string option. Unset options without a
// default return "".
func (r *Registry) String(ctx context.Context, groupName, name string) (string, error) {
	return get[string](ctx, r, groupName, name)
}

// Bool returns the value of a boolean option.
func (r *Registry) Bool(ctx context.Context, groupName, name string) (bool, error) {
	return get[bool](ctx, r, groupName, name)
}

// Int returns the value of an integer option.
func (r *Registry) Int(ctx context.Context, groupName, name string) (int, error) {
	v, err := get[int64](ctx, r, groupName, name)
	return int(v), err
}

// Float returns the value of a floating point option.
func (r *Registry) Float(ctx context.Context, groupName, name string) (float64, error) {
	return get[float64](ctx, r, groupName, name)
}

// List returns the value of a list option.
func (r *Registry) List(ctx context.Context, groupName, name string) ([]string, error) {
	return get[[]string](ctx, r, groupName, name)
}

func get[T any](ctx context.Context, r *Registry, groupName, name string) (T, error) {
	const op = "conf.get"
	var zero T
	v, err := r.Get(ctx, groupName, name)
	if err != nil {
		return zero, errors.Wrap(ctx, err, op)
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.New(ctx, errors.InvalidParameter, op, fmt.Sprintf("option %q in group %q is a %T, not a %T", name, groupName, v, zero))
	}
	return typed, nil
}
