// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package handlers

import "sort"

// MaskManager maps request body keys to domain field mask paths.
type MaskManager map[string]string

// Translate returns the field mask for the keys present in body. Keys with
// no mapping are dropped; schema validation rejects them earlier.
func (m MaskManager) Translate(body map[string]any) []string {
	var paths []string
	for k := range body {
		if p, ok := m[k]; ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}
