// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package action

import (
	"fmt"
	"sort"
	"sync"

	"github.com/quotagate/quotagate/internal/types/resource"
)

// ActionSet is a set of action Types.
type ActionSet map[Type]struct{}

// NewActionSet creates an ActionSet from the provided Types.
func NewActionSet(types ...Type) ActionSet {
	s := make(ActionSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// HasAction reports whether the set contains act.
func (s ActionSet) HasAction(act Type) bool {
	_, ok := s[act]
	return ok
}

// Strings returns the sorted string values of the set.
func (s ActionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t.String())
	}
	sort.Strings(out)
	return out
}

var (
	registryMu sync.RWMutex
	registry   = map[resource.Type]ActionSet{}
)

// RegisterResource records the union of the action sets served for res. It
// is called from the init functions of the API handlers.
func RegisterResource(res resource.Type, sets ...ActionSet) {
	union := ActionSet{}
	for _, s := range sets {
		for t := range s {
			union[t] = struct{}{}
		}
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[res] = union
}

// ActionSetForResource returns the actions registered for res.
func ActionSetForResource(res resource.Type) (ActionSet, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[res]
	if !ok {
		return nil, fmt.Errorf("no actions registered for resource %q", res.String())
	}
	return s, nil
}

// RegisteredResources returns every resource with registered actions.
func RegisteredResources() []resource.Type {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]resource.Type, 0, len(registry))
	for r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
