// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestT(t *testing.T) {
	t.Parallel()
	stdErr := stderrors.New("test error")
	tests := []struct {
		name string
		args []any
		want *Template
	}{
		{
			name: "all fields",
			args: []any{
				"test error msg",
				Op("alice.Bob"),
				InvalidParameter,
				stdErr,
				Integrity,
			},
			want: &Template{
				Err: Err{
					Code:    InvalidParameter,
					Msg:     "test error msg",
					Op:      "alice.Bob",
					Wrapped: stdErr,
				},
				Kind: Integrity,
			},
		},
		{
			name: "multiple Kinds",
			args: []any{
				Search,
				Integrity,
			},
			want: &Template{
				Kind: Integrity,
			},
		},
		{
			name: "ignore",
			args: []any{
				32,
			},
			want: &Template{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, T(tt.args...))
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	errNotFound := New(ctx, RecordNotFound, "limit.(Repository).LookupLimit", "missing")
	tests := []struct {
		name     string
		template *Template
		err      error
		want     bool
	}{
		{name: "nil template", template: nil, err: errNotFound, want: false},
		{name: "nil err", template: T(RecordNotFound), err: nil, want: false},
		{name: "std err", template: T(RecordNotFound), err: stderrors.New("missing"), want: false},
		{name: "code", template: T(RecordNotFound), err: errNotFound, want: true},
		{name: "wrong code", template: T(NotUnique), err: errNotFound, want: false},
		{name: "kind", template: T(Search), err: errNotFound, want: true},
		{name: "wrong kind", template: T(Directory), err: errNotFound, want: false},
		{name: "op", template: T(Op("limit.(Repository).LookupLimit")), err: errNotFound, want: true},
		{name: "msg", template: T("other"), err: errNotFound, want: false},
		{name: "wrapped", template: T(RecordNotFound), err: Wrap(ctx, errNotFound, "outer"), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.template, tt.err))
		})
	}
}
