// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-dbw"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Op represents an operation (package.function).
// For example iam.CreateRole
type Op string

// Err provides the ability to specify a Msg, Op, Code and Wrapped error.
// Errs must have a Code and all other fields are optional. We've chosen Err
// over Error for the identifier to support the easy embedding of Errs.  Errs
// can be embedded without a conflict between the embedded Err and Err.Error().
type Err struct {
	// Code is the error's code, which can be used to get the error's
	// errorCodeInfo, which contains the error's Kind and Message
	Code Code

	// Msg for the error
	Msg string

	// Op represents the operation raising/propagating an error and is optional.
	Op Op

	// Wrapped is the error which this Err wraps and will be nil if there's no
	// error to wrap.
	Wrapped error
}

// E creates a new Err with provided code and supports the options of:
//
// * WithOp() - allows you to specify an optional Op (operation).
//
// * WithMsg() - allows you to specify an optional error msg, if the default
// msg for the error Code is not sufficient.
//
// * WithWrap() - allows you to specify an error to wrap. If the wrapped
// error is a domain error, the wrapped error code will be used as
// the returned error's code.
//
// * WithCode() - allows you to specify an optional Code, this code will be
// prioritized over a code used from WithWrap().
func E(ctx context.Context, opt ...Option) error {
	opts := GetOpts(opt...)
	var code Code
	var wrappedErr *Err
	if errors.As(opts.withErrWrapped, &wrappedErr) {
		code = wrappedErr.Code
	}
	if opts.withCode != Unknown {
		code = opts.withCode
	}

	return &Err{
		Code:    code,
		Op:      opts.withOp,
		Wrapped: opts.withErrWrapped,
		Msg:     opts.withErrMsg,
	}
}

// New creates a new Err with provided code, op and msg
// It supports the options of:
//
// * WithWrap() - allows you to specify an error to wrap
func New(ctx context.Context, c Code, op Op, msg string, opt ...Option) error {
	opt = append(opt, WithCode(c), WithOp(op), WithMsg(msg))
	return E(ctx, opt...)
}

// Wrap creates a new Err from the provided err and op,
// preserving the code from the originating error.
// It supports the options of:
//
// * WithCode() - allows you to specify an optional Code, this code will be prioritized
// over the code used from the wrapped error.
//
// * WithMsg() - allows you to specify an optional error msg, if the default
// msg for the error Code is not sufficient.
func Wrap(ctx context.Context, e error, op Op, opt ...Option) error {
	if e == nil {
		return nil
	}
	if converted := Convert(e); converted != nil {
		e = converted
	}
	opt = append(opt, WithOp(op), WithWrap(e))
	return E(ctx, opt...)
}

// Convert will convert the error to a *Err (returning it as an error)
// and attempt to add a helpful error msg as well. If that's not possible, it
// will return nil
func Convert(e error) *Err {
	if e == nil {
		return nil
	}
	// nothing to convert.
	var alreadyConverted *Err
	if errors.As(e, &alreadyConverted) {
		return alreadyConverted
	}

	if errors.Is(e, dbw.ErrRecordNotFound) {
		return E(context.TODO(), WithCode(RecordNotFound), WithWrap(e)).(*Err)
	}
	if errors.Is(e, dbw.ErrMaxRetries) {
		return E(context.TODO(), WithCode(MaxRetries), WithWrap(e)).(*Err)
	}
	if errors.Is(e, dbw.ErrInvalidFieldMask) {
		return E(context.TODO(), WithCode(InvalidFieldMask), WithWrap(e)).(*Err)
	}

	var pqError *pq.Error
	if errors.As(e, &pqError) {
		if code, ok := pgCodes[string(pqError.Code)]; ok {
			return E(context.TODO(), WithCode(code), WithMsg(pqError.Message), WithWrap(e)).(*Err)
		}
	}

	var pgxError *pgconn.PgError
	if errors.As(e, &pgxError) {
		if code, ok := pgCodes[pgxError.Code]; ok {
			return E(context.TODO(), WithCode(code), WithMsg(pgxError.Message), WithWrap(e)).(*Err)
		}
	}

	// sqlite drivers only surface the constraint in the message text
	msg := e.Error()
	for prefix, code := range sqliteMsgs {
		if strings.Contains(msg, prefix) {
			return E(context.TODO(), WithCode(code), WithMsg(msg), WithWrap(e)).(*Err)
		}
	}
	// unfortunately, we can't help.
	return nil
}

var pgCodes = map[string]Code{
	"23505": NotUnique,
	"23502": NotNull,
	"23514": CheckConstraint,
	"23503": ForeignKey,
	"23000": NotSpecificIntegrity,
	"42P01": MissingTable,
	"40001": Conflict,
	"40P01": Conflict,
}

var sqliteMsgs = map[string]Code{
	"UNIQUE constraint failed":      NotUnique,
	"NOT NULL constraint failed":    NotNull,
	"CHECK constraint failed":       CheckConstraint,
	"FOREIGN KEY constraint failed": ForeignKey,
	"no such table":                 MissingTable,
	"database is locked":            Conflict,
}

// Info about the Err
func (e *Err) Info() Info {
	if e == nil {
		return errorCodeInfo[Unknown]
	}
	if info, ok := errorCodeInfo[e.Code]; ok {
		return info
	}
	return errorCodeInfo[Unknown]
}

// Error satisfies the error interface and returns a string representation of
// the Err
func (e *Err) Error() string {
	if e == nil {
		return ""
	}
	var s strings.Builder
	if e.Op != "" {
		join(&s, ": ", string(e.Op))
	}
	if e.Msg != "" {
		join(&s, ": ", e.Msg)
	}

	var skipInfo bool
	var wrapped *Err
	if errors.As(e.Wrapped, &wrapped) {
		skipInfo = e.Code == wrapped.Code
	}
	if e.Wrapped != nil {
		join(&s, ": ", e.Wrapped.Error())
	}
	if !skipInfo && e.Code != Unknown {
		join(&s, ": ", fmt.Sprintf("%s, %s: error #%d", e.Info().Kind, e.Info().Message, e.Code))
	}
	return s.String()
}

func join(str *strings.Builder, delim string, s string) {
	if str.Len() > 0 {
		_, _ = str.WriteString(delim)
	}
	_, _ = str.WriteString(s)
}

// Unwrap implements the errors.Unwrap interface and allows callers to use the
// errors.Is() and errors.As() functions effectively for any wrapped errors.
func (e *Err) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Wrapped
}

// Is the equivalent of the std errors.Is, but allows Devs to only import
// this package for the capability.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is the equivalent of the std errors.As, and allows devs to only import
// this package for the capability.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap is the equivalent of the std errors.Unwrap, and allows devs to only
// import this package for the capability.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
