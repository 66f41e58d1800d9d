// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package handlers

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Shared schema building blocks for request bodies.
const (
	maxIdLength   = 64
	maxNameLength = 255
	maxInt32      = 2147483647
	idPattern     = "^[a-zA-Z0-9-]+$"
)

// IdString is a required identifier made of letters, digits and dashes.
func IdString() *openapi3.Schema {
	return openapi3.NewStringSchema().WithMinLength(1).WithMaxLength(maxIdLength).WithPattern(idPattern)
}

// NameString is a string of 1 to 255 characters.
func NameString() *openapi3.Schema {
	return openapi3.NewStringSchema().WithMinLength(1).WithMaxLength(maxNameLength)
}

// NullableString is a string that may be null.
func NullableString() *openapi3.Schema {
	return openapi3.NewStringSchema().WithNullable()
}

// LimitValue is an int32 that may be -1 for unlimited.
func LimitValue() *openapi3.Schema {
	return openapi3.NewIntegerSchema().WithMin(-1).WithMax(maxInt32)
}

// StrictObject returns an object schema that rejects unknown properties.
func StrictObject(props map[string]*openapi3.Schema, required ...string) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	for name, p := range props {
		s = s.WithProperty(name, p)
	}
	s.Required = required
	s.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(false)}
	return s
}

// NonEmptyArray returns an array schema requiring at least one item.
func NonEmptyArray(items *openapi3.Schema) *openapi3.Schema {
	s := openapi3.NewArraySchema().WithItems(items)
	s.MinItems = 1
	return s
}

// Validate checks body against schema. All violations are reported as
// request field errors keyed by their dotted path.
func Validate(schema *openapi3.Schema, body any) error {
	err := schema.VisitJSON(body, openapi3.MultiErrors())
	if err == nil {
		return nil
	}
	fields := map[string]string{}
	collectFieldErrors(err, fields)
	return InvalidArgumentErrorf(invalidRequestMsg, fields)
}

func collectFieldErrors(err error, fields map[string]string) {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, inner := range e {
			collectFieldErrors(inner, fields)
		}
	case *openapi3.SchemaError:
		if me, ok := e.Origin.(openapi3.MultiError); ok {
			collectFieldErrors(me, fields)
			return
		}
		name := strings.Join(e.JSONPointer(), ".")
		if name == "" {
			name = "body"
		}
		if existing, ok := fields[name]; ok {
			fields[name] = existing + "; " + e.Reason
			return
		}
		fields[name] = e.Reason
	default:
		fields["body"] = err.Error()
	}
}
