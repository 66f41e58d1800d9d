// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package limits

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers"
)

const (
	collectionKey = "limits"
	memberKey     = "limit"
)

var (
	createSchema = handlers.StrictObject(map[string]*openapi3.Schema{
		collectionKey: handlers.NonEmptyArray(handlers.StrictObject(
			map[string]*openapi3.Schema{
				"project_id":     handlers.IdString(),
				"service_id":     handlers.IdString(),
				"region_id":      handlers.IdString().WithNullable(),
				"resource_name":  handlers.NameString(),
				"resource_limit": handlers.LimitValue(),
				"description":    handlers.NullableString(),
			},
			"project_id", "service_id", "resource_name", "resource_limit",
		)),
	}, collectionKey)

	updateSchema = handlers.StrictObject(map[string]*openapi3.Schema{
		memberKey: func() *openapi3.Schema {
			s := handlers.StrictObject(map[string]*openapi3.Schema{
				"resource_limit": handlers.LimitValue(),
				"description":    handlers.NullableString(),
			})
			s.MinProps = 1
			return s
		}(),
	}, memberKey)
)
