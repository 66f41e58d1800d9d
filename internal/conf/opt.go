// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package conf

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"github.com/hashicorp/go-secure-stdlib/strutil"
	"github.com/quotagate/quotagate/internal/errors"
)

// Type is the value type of an Opt.
type Type uint

const (
	UnknownType Type = iota
	StrType
	BoolType
	IntType
	FloatType
	ListType
)

func (t Type) String() string {
	return [...]string{
		"unknown",
		"string",
		"boolean",
		"integer",
		"floating point",
		"list",
	}[t]
}

// Opt declares a single configuration option. Opts are immutable once
// registered.
type Opt struct {
	Name    string
	Type    Type
	Help    string
	Default any

	// Min is only meaningful for IntType options.
	Min     *int64
	Choices []string

	Secret               bool
	DeprecatedForRemoval bool
	DeprecatedReason     string
}

// OptOption configures an Opt at declaration time.
type OptOption func(*Opt)

// WithDefault sets the value returned when nothing was configured.
func WithDefault(v any) OptOption {
	return func(o *Opt) {
		o.Default = v
	}
}

// WithMin sets an inclusive lower bound for integer options.
func WithMin(min int64) OptOption {
	return func(o *Opt) {
		o.Min = &min
	}
}

// WithChoices restricts a string option to the provided values.
func WithChoices(choices ...string) OptOption {
	return func(o *Opt) {
		o.Choices = choices
	}
}

// WithSecret marks the option as holding a secret.
func WithSecret() OptOption {
	return func(o *Opt) {
		o.Secret = true
	}
}

// WithDeprecatedForRemoval marks the option as scheduled for removal.
func WithDeprecatedForRemoval(reason string) OptOption {
	return func(o *Opt) {
		o.DeprecatedForRemoval = true
		o.DeprecatedReason = reason
	}
}

func newOpt(typ Type, name, help string, opt ...OptOption) *Opt {
	o := &Opt{Name: name, Type: typ, Help: help}
	for _, fn := range opt {
		if fn != nil {
			fn(o)
		}
	}
	return o
}

// StrOpt declares a string option.
func StrOpt(name, help string, opt ...OptOption) *Opt {
	return newOpt(StrType, name, help, opt...)
}

// BoolOpt declares a boolean option.
func BoolOpt(name, help string, opt ...OptOption) *Opt {
	return newOpt(BoolType, name, help, opt...)
}

// IntOpt declares an integer option.
func IntOpt(name, help string, opt ...OptOption) *Opt {
	return newOpt(IntType, name, help, opt...)
}

// FloatOpt declares a floating point option.
func FloatOpt(name, help string, opt ...OptOption) *Opt {
	return newOpt(FloatType, name, help, opt...)
}

// ListOpt declares a list of strings option.
func ListOpt(name, help string, opt ...OptOption) *Opt {
	return newOpt(ListType, name, help, opt...)
}

// Parse converts raw into the option's type and enforces its constraints.
// raw may be the native type or a string as read from a flag or file.
func (o *Opt) Parse(ctx context.Context, raw any) (any, error) {
	const op = "conf.(Opt).Parse"
	if raw == nil {
		return nil, nil
	}
	var (
		v   any
		err error
	)
	switch o.Type {
	case StrType:
		v, err = parseStr(raw)
	case BoolType:
		v, err = parseutil.ParseBool(raw)
	case IntType:
		v, err = parseInt(raw)
	case FloatType:
		v, err = parseFloat(raw)
	case ListType:
		v, err = parseList(raw)
	default:
		return nil, errors.New(ctx, errors.InvalidConfigValue, op, fmt.Sprintf("option %q has no type", o.Name))
	}
	if err != nil {
		return nil, errors.New(ctx, errors.InvalidConfigValue, op, fmt.Sprintf("option %q expects a %s value", o.Name, o.Type), errors.WithWrap(err))
	}
	if err := o.check(ctx, v); err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	return v, nil
}

func (o *Opt) check(ctx context.Context, v any) error {
	const op = "conf.(Opt).check"
	switch val := v.(type) {
	case int64:
		if o.Min != nil && val < *o.Min {
			return errors.New(ctx, errors.InvalidConfigValue, op, fmt.Sprintf("option %q must be at least %d, got %d", o.Name, *o.Min, val))
		}
	case string:
		if len(o.Choices) > 0 && !strutil.StrListContains(o.Choices, val) {
			return errors.New(ctx, errors.InvalidConfigValue, op, fmt.Sprintf("option %q must be one of [%s], got %q", o.Name, strings.Join(o.Choices, ", "), val))
		}
	}
	return nil
}

func parseStr(raw any) (string, error) {
	if s, ok := raw.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return parseutil.ParseString(raw)
}

func parseInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	case float32:
		return parseInt(float64(v))
	default:
		return parseutil.ParseInt(raw)
	}
}

func parseFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("unable to parse %T as a float", raw)
	}
}

func parseList(raw any) ([]string, error) {
	l, err := parseutil.ParseCommaStringSlice(raw)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(l))
	for _, s := range l {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
