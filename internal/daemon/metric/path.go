// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package metric

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

// idRegexp matches a single path segment in place of a route parameter.
const idRegexp = "[^/\\?\\:]+"

var paramRegexp = regexp.MustCompile(`\{[^\}]*\}`)

type pathPattern struct {
	re       *regexp.Regexp
	template string
	params   int
}

// PathMatcher maps request paths back to the route templates they were
// served by, such as /v3/limits/{id}.
type PathMatcher struct {
	patterns []pathPattern
}

// NewPathMatcher builds a PathMatcher for the route templates. Templates
// with fewer parameters are preferred, so /v3/limits/model wins over
// /v3/limits/{id}.
func NewPathMatcher(templates ...string) *PathMatcher {
	m := &PathMatcher{}
	for _, t := range templates {
		m.patterns = append(m.patterns, pathPattern{
			re:       buildRegexFromPath(t),
			template: t,
			params:   len(paramRegexp.FindAllString(t, -1)),
		})
	}
	sort.SliceStable(m.patterns, func(i, j int) bool {
		return m.patterns[i].params < m.patterns[j].params
	})
	return m
}

// Match returns the route template of p.
func (m *PathMatcher) Match(p string) (string, bool) {
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	p = path.Clean(p)
	for _, pp := range m.patterns {
		if pp.re.MatchString(p) {
			return pp.template, true
		}
	}
	return "", false
}

// Label returns the path label recorded for p.
func (m *PathMatcher) Label(p string) string {
	if t, ok := m.Match(p); ok {
		return t
	}
	return InvalidPathValue
}

func buildRegexFromPath(p string) *regexp.Regexp {
	var seg []string
	for _, s := range paramRegexp.Split(p, -1) {
		seg = append(seg, regexp.QuoteMeta(s))
	}
	return regexp.MustCompile(fmt.Sprintf("^%s$", strings.Join(seg, idRegexp)))
}
