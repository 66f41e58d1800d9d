// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package handlers

import (
	stderrors "errors"
	"fmt"

	"github.com/hashicorp/go-bexpr"
	"github.com/mitchellh/pointerstructure"
)

// Filter evaluates a boolean expression against list items. Items are
// addressed through the "/item" selector using their json field names.
type Filter struct {
	eval *bexpr.Evaluator
}

type filterItem struct {
	Item any `json:"item"`
}

// NewFilter compiles f. An empty expression matches every item.
func NewFilter(f string) (*Filter, error) {
	if f == "" {
		return &Filter{}, nil
	}
	eval, err := bexpr.CreateEvaluator(f, bexpr.WithTagName("json"))
	if err != nil {
		return nil, InvalidArgumentErrorf("Invalid filter expression.", map[string]string{"filter": fmt.Sprintf("This field could not be parsed: %v", err)})
	}
	return &Filter{eval: eval}, nil
}

// IsEmpty reports whether the filter matches every item.
func (f *Filter) IsEmpty() bool {
	return f == nil || f.eval == nil
}

// Match reports whether item satisfies the filter. Selectors that do not
// exist on the item do not match.
func (f *Filter) Match(item any) bool {
	if f.IsEmpty() {
		return true
	}
	ok, err := f.eval.Evaluate(filterItem{Item: item})
	if err != nil && !stderrors.Is(err, pointerstructure.ErrNotFound) {
		return false
	}
	return ok
}
