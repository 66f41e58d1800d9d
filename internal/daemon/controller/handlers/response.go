// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/quotagate/quotagate/internal/requests"
)

// MaxRequestBytes bounds the size of request bodies.
const MaxRequestBytes = 1 << 20

// MemberLinks are attached to single resources.
type MemberLinks struct {
	Self string `json:"self"`
}

// CollectionLinks are attached to list responses.
type CollectionLinks struct {
	Self     string  `json:"self"`
	Previous *string `json:"previous"`
	Next     *string `json:"next"`
}

// BaseUrl returns the public base url of the API for the request in ctx.
func BaseUrl(ctx context.Context) string {
	rc, ok := requests.RequestContextFromCtx(ctx)
	if !ok {
		return ""
	}
	return strings.TrimSuffix(rc.BaseUrl, "/")
}

// MemberLink returns the links for the resource at collectionPath/id.
func MemberLink(ctx context.Context, collectionPath, id string) *MemberLinks {
	return &MemberLinks{Self: BaseUrl(ctx) + collectionPath + "/" + id}
}

// CollectionLink returns the links for a collection. The self link keeps the
// query string of the request.
func CollectionLink(ctx context.Context, collectionPath, rawQuery string) CollectionLinks {
	self := BaseUrl(ctx) + collectionPath
	if rawQuery != "" {
		self += "?" + rawQuery
	}
	return CollectionLinks{Self: self}
}

// DecodeBody reads a JSON request body into a generic value suitable for
// schema validation.
func DecodeBody(r *http.Request) (map[string]any, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBytes+1))
	if err != nil {
		return nil, InvalidArgumentErrorf("Unable to read request body.", nil)
	}
	if len(raw) > MaxRequestBytes {
		return nil, InvalidArgumentErrorf("Request body is too large.", nil)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, InvalidArgumentErrorf(invalidRequestMsg, map[string]string{"body": "Request body is empty."})
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, InvalidArgumentErrorf(invalidRequestMsg, map[string]string{"body": "Request body must be a JSON object."})
	}
	return body, nil
}

// Reshape converts a validated generic body into a typed value.
func Reshape(in any, out any) error {
	buf, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}

// WriteJSON renders v with the status code.
func WriteJSON(logger hclog.Logger, w http.ResponseWriter, status int, v any) {
	const op = "handlers.WriteJSON"
	if v == nil {
		w.WriteHeader(status)
		return
	}
	buf, err := json.Marshal(v)
	if err != nil {
		WriteError(context.Background(), logger, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf); err != nil && logger != nil {
		logger.Error("failed to send response", "op", op, "error", err)
	}
}
