// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/hashicorp/go-hclog"
	"github.com/quotagate/quotagate/internal/errors"
	"google.golang.org/grpc/codes"
)

const (
	genericUniquenessMsg = "Invalid request.  Request attempted to make second resource with the same field values that must be unique."
	genericNotFoundMsg   = "Unable to find requested resource."
	invalidRequestMsg    = "Invalid request.  Request failed validation."

	errorFallback = `{"kind": "Internal", "message": "failed to marshal error message"}`
)

// Error is the body of every error response.
type Error struct {
	Kind    string        `json:"kind"`
	Op      string        `json:"op,omitempty"`
	Message string        `json:"message"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// ErrorDetails carries per-field errors of a rejected request.
type ErrorDetails struct {
	RequestFields []*FieldError `json:"request_fields,omitempty"`
}

// FieldError describes why a single request field was rejected.
type FieldError struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ApiError struct {
	Status int32
	Inner  *Error
}

func (e *ApiError) Error() string {
	res := fmt.Sprintf("Status: %d, Kind: %q, Error: %q", e.Status, e.Inner.Kind, e.Inner.Message)
	var dets []string
	if e.Inner.Details != nil {
		for _, rf := range e.Inner.Details.RequestFields {
			dets = append(dets, fmt.Sprintf("{name: %q, desc: %q}", rf.Name, rf.Description))
		}
	}
	if len(dets) > 0 {
		det := strings.Join(dets, ", ")
		res = fmt.Sprintf("%s, Details: {%s}", res, det)
	}
	return res
}

func (e *ApiError) Is(target error) bool {
	var tApiErr *ApiError
	if !errors.As(target, &tApiErr) {
		return false
	}
	return tApiErr.Inner.Kind == e.Inner.Kind && tApiErr.Status == e.Status
}

// ApiErrorWithCode returns an api error with the provided code.
func ApiErrorWithCode(c codes.Code) error {
	return &ApiError{
		Status: int32(runtime.HTTPStatusFromCode(c)),
		Inner: &Error{
			Kind: c.String(),
		},
	}
}

// ApiErrorWithCodeAndMessage returns an api error with the provided code and message.
func ApiErrorWithCodeAndMessage(c codes.Code, msg string, args ...any) *ApiError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &ApiError{
		Status: int32(runtime.HTTPStatusFromCode(c)),
		Inner: &Error{
			Kind:    c.String(),
			Message: msg,
		},
	}
}

// NotFoundErrorf returns an ApiError indicating a resource couldn't be found.
func NotFoundErrorf(msg string, a ...any) *ApiError {
	return &ApiError{
		Status: http.StatusNotFound,
		Inner: &Error{
			Kind:    codes.NotFound.String(),
			Message: fmt.Sprintf(msg, a...),
		},
	}
}

var unauthorizedError = &ApiError{
	Status: http.StatusForbidden,
	Inner: &Error{
		Kind:    codes.PermissionDenied.String(),
		Message: "Forbidden.",
	},
}

func ForbiddenError() error {
	return unauthorizedError
}

// ForbiddenErrorf returns a PermissionDenied ApiError with the message.
func ForbiddenErrorf(msg string, a ...any) *ApiError {
	return ApiErrorWithCodeAndMessage(codes.PermissionDenied, msg, a...)
}

var unauthenticatedError = &ApiError{
	Status: http.StatusUnauthorized,
	Inner: &Error{
		Kind:    codes.Unauthenticated.String(),
		Message: "Unauthenticated, or invalid token.",
	},
}

func UnauthenticatedError() error {
	return unauthenticatedError
}

func InvalidArgumentErrorf(msg string, fields map[string]string) *ApiError {
	apiErr := ApiErrorWithCodeAndMessage(codes.InvalidArgument, msg)
	if len(fields) > 0 {
		apiErr.Inner.Details = &ErrorDetails{}
	}
	for k, v := range fields {
		apiErr.Inner.Details.RequestFields = append(apiErr.Inner.Details.RequestFields, &FieldError{Name: k, Description: v})
	}
	if apiErr.Inner.Details != nil {
		sort.Slice(apiErr.Inner.Details.RequestFields, func(i, j int) bool {
			return apiErr.Inner.Details.RequestFields[i].Name < apiErr.Inner.Details.RequestFields[j].Name
		})
	}
	return apiErr
}

// ConflictErrorf generates an ApiErr when a pre-conditional check is violated.
// Note, this deliberately doesn't translate to the similarly named '412
// Precondition Failed' HTTP response status. The ApiErr returned is a 400 bad
// request because this is how the grpc-gateway mapping is implemented for
// failed precondition protobuf errors.
func ConflictErrorf(msg string) *ApiError {
	return ApiErrorWithCodeAndMessage(codes.FailedPrecondition, msg)
}

// Converts a known errors into an error that can presented to an end user over the API.
func backendErrorToApiError(inErr error) *ApiError {
	var apiErr *ApiError
	if errors.As(inErr, &apiErr) {
		return apiErr
	}
	var domainErr *errors.Err
	isDomainErr := errors.As(inErr, &domainErr)
	msg := inErr.Error()
	if isDomainErr && domainErr.Msg != "" {
		msg = domainErr.Msg
	}

	switch {
	case errors.Match(errors.T(errors.RecordNotFound), inErr):
		if isDomainErr && domainErr.Msg != "" {
			return NotFoundErrorf("%s", domainErr.Msg)
		}
		return NotFoundErrorf(genericNotFoundMsg)
	case errors.Match(errors.T(errors.InvalidParameter), inErr),
		errors.Match(errors.T(errors.InvalidFieldMask), inErr),
		errors.Match(errors.T(errors.EmptyFieldMask), inErr),
		errors.Match(errors.T(errors.InvalidFilter), inErr):
		return InvalidArgumentErrorf(msg, nil)
	case errors.IsUniqueError(inErr):
		return ApiErrorWithCodeAndMessage(codes.AlreadyExists, genericUniquenessMsg)
	case errors.Match(errors.T(errors.StillReferenced), inErr),
		errors.Match(errors.T(errors.Conflict), inErr):
		return ConflictErrorf(msg)
	case errors.Match(errors.T(errors.Unauthorized), inErr),
		errors.Match(errors.T(errors.AuthAttemptFailed), inErr):
		return ApiErrorWithCodeAndMessage(codes.Unauthenticated, "Unable to authenticate with the provided credentials.")
	case errors.Match(errors.T(errors.Forbidden), inErr):
		return ForbiddenErrorf("%s", msg)
	case errors.Match(errors.T(errors.DirectoryUnavailable), inErr),
		errors.Match(errors.T(errors.PoolExhausted), inErr):
		return ApiErrorWithCodeAndMessage(codes.Unavailable, "The directory is unavailable.")
	}

	var statusCode int32 = http.StatusInternalServerError
	if isDomainErr && domainErr.Code >= 400 && domainErr.Code <= 599 {
		// Domain error codes 400-599 align with http client and server error codes, use the domain error code instead of 500
		statusCode = int32(domainErr.Code)
	}
	return &ApiError{
		Status: statusCode,
		Inner:  &Error{Kind: codes.Internal.String(), Message: inErr.Error()},
	}
}

// ToApiError converts any error into the ApiError returned to the caller.
func ToApiError(e error) *ApiError {
	return backendErrorToApiError(e)
}

// WriteError renders inErr as a JSON error response. Internal errors are
// logged.
func WriteError(ctx context.Context, logger hclog.Logger, w http.ResponseWriter, inErr error) {
	const op = "handlers.WriteError"
	apiErr := backendErrorToApiError(inErr)
	if apiErr.Status == http.StatusInternalServerError && logger != nil {
		logger.Error("internal error returned", "op", op, "error", inErr)
	}
	buf, err := json.Marshal(apiErr.Inner)
	if err != nil {
		if logger != nil {
			logger.Error("failed to marshal error response", "op", op, "error", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, errorFallback)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(apiErr.Status))
	if _, err := w.Write(buf); err != nil && logger != nil {
		logger.Error("failed to send response chunk", "op", op, "error", err)
	}
}
