// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package registered_limits

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/quotagate/quotagate/internal/daemon/controller/handlers"
)

const (
	collectionKey = "registered_limits"
	memberKey     = "registered_limit"
)

func registeredLimitProperties() map[string]*openapi3.Schema {
	return map[string]*openapi3.Schema{
		"service_id":    handlers.IdString(),
		"region_id":     handlers.IdString().WithNullable(),
		"resource_name": handlers.NameString(),
		"default_limit": handlers.LimitValue(),
		"description":   handlers.NullableString(),
	}
}

var (
	createSchema = handlers.StrictObject(map[string]*openapi3.Schema{
		collectionKey: handlers.NonEmptyArray(handlers.StrictObject(
			registeredLimitProperties(),
			"service_id", "resource_name", "default_limit",
		)),
	}, collectionKey)

	updateSchema = handlers.StrictObject(map[string]*openapi3.Schema{
		memberKey: func() *openapi3.Schema {
			s := handlers.StrictObject(registeredLimitProperties())
			s.MinProps = 1
			return s
		}(),
	}, memberKey)
)
