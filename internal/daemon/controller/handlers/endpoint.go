// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package handlers

import (
	"context"
	"net/http"

	"github.com/hashicorp/go-hclog"
)

// Endpoint adapts a service method to an http.HandlerFunc. decode builds
// the request from the incoming http.Request; the response of call is
// rendered as JSON with successStatus, or without a body for 204.
func Endpoint[Req, Resp any](
	logger hclog.Logger,
	successStatus int,
	decode func(*http.Request) (Req, error),
	call func(context.Context, Req) (Resp, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req, err := decode(r)
		if err != nil {
			WriteError(ctx, logger, w, err)
			return
		}
		resp, err := call(ctx, req)
		if err != nil {
			WriteError(ctx, logger, w, err)
			return
		}
		if successStatus == http.StatusNoContent {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		WriteJSON(logger, w, successStatus, resp)
	}
}
