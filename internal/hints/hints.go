// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

// Package hints carries list filters and result limits from the API layer
// down to the storage layer.
package hints

import (
	"net/url"
	"strings"
)

// Comparators supported by Filter.
const (
	Equals = "equals"
)

// Filter restricts a list to entities whose attribute Name compares to Value.
type Filter struct {
	Name          string
	Value         string
	Comparator    string
	CaseSensitive bool
}

// Limit records the maximum number of entities requested and whether the
// storage layer had to drop entities to honor it.
type Limit struct {
	Limit     int
	Truncated bool
}

// Hints are passed to list operations. A nil *Hints is valid and means no
// filters and no limit.
type Hints struct {
	Filters []*Filter
	Limit   *Limit
}

// New returns empty Hints.
func New() *Hints {
	return &Hints{}
}

// FromQuery builds Hints holding an exact filter for every allowed query
// parameter present in q. Repeated parameters use the first value.
func FromQuery(q url.Values, allowed ...string) *Hints {
	h := New()
	for _, name := range allowed {
		if _, ok := q[name]; !ok {
			continue
		}
		h.AddFilter(name, q.Get(name))
	}
	return h
}

// AddFilter appends an exact, case sensitive filter.
func (h *Hints) AddFilter(name, value string) {
	h.Filters = append(h.Filters, &Filter{
		Name:          name,
		Value:         value,
		Comparator:    Equals,
		CaseSensitive: true,
	})
}

// GetExactFilterByName returns the first exact filter for name or nil.
func (h *Hints) GetExactFilterByName(name string) *Filter {
	if h == nil {
		return nil
	}
	for _, f := range h.Filters {
		if f.Name == name && f.Comparator == Equals {
			return f
		}
	}
	return nil
}

// SetLimit records the maximum number of entities to return. Values less
// than one clear the limit.
func (h *Hints) SetLimit(limit int) {
	if limit < 1 {
		h.Limit = nil
		return
	}
	h.Limit = &Limit{Limit: limit}
}

// Truncated reports whether the last list using these hints was truncated.
func (h *Hints) Truncated() bool {
	return h != nil && h.Limit != nil && h.Limit.Truncated
}

// Where renders the exact filters whose names appear in columns as a sql
// where clause with positional parameters. Filters on other names are
// ignored.
func (h *Hints) Where(columns ...string) (string, []any) {
	if h == nil {
		return "", nil
	}
	allowed := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	var (
		clauses []string
		args    []any
	)
	for _, f := range h.Filters {
		if _, ok := allowed[f.Name]; !ok || f.Comparator != Equals {
			continue
		}
		if f.CaseSensitive {
			clauses = append(clauses, f.Name+" = ?")
			args = append(args, f.Value)
			continue
		}
		clauses = append(clauses, "lower("+f.Name+") = lower(?)")
		args = append(args, f.Value)
	}
	return strings.Join(clauses, " and "), args
}
