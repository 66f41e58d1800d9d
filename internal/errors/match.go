// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package errors

// Template describes the parts of an *Err a Match must agree on. Zero fields
// match anything, so a Template can select errors by Kind alone.
type Template struct {
	Err
	Kind Kind
}

// T builds a Template from Codes, messages, Ops, Kinds and wrapped errors.
// Unknown argument types are ignored and later arguments of the same type
// replace earlier ones.
func T(args ...any) *Template {
	t := &Template{}
	for _, a := range args {
		switch arg := a.(type) {
		case Code:
			t.Code = arg
		case Op:
			t.Op = arg
		case Kind:
			t.Kind = arg
		case string:
			t.Msg = arg
		case *Err:
			cp := *arg
			t.Wrapped = &cp
		case error:
			t.Wrapped = arg
		}
	}
	return t
}

// Info returns the Info of the template's Code, or of its Kind when no Code
// is set.
func (t *Template) Info() Info {
	switch {
	case t == nil:
		return errorCodeInfo[Unknown]
	case t.Code != Unknown:
		return t.Code.Info()
	case t.Kind != Other:
		return Info{Message: "Unknown", Kind: t.Kind}
	}
	return errorCodeInfo[Unknown]
}

// Error keeps Templates from being mistaken for domain errors.
func (t *Template) Error() string {
	return "Template error"
}

// Match reports whether err is, or wraps, an *Err agreeing with every set
// field of t. A wrapped Template is matched recursively against the wrapped
// error; any other wrapped error is compared by its message.
func Match(t *Template, err error) bool {
	if t == nil || err == nil {
		return false
	}
	var e *Err
	if !As(err, &e) {
		return false
	}

	switch {
	case t.Code != Unknown && t.Code != e.Code,
		t.Msg != "" && t.Msg != e.Msg,
		t.Op != "" && t.Op != e.Op,
		t.Kind != Other && t.Info().Kind != e.Info().Kind:
		return false
	}

	switch w := t.Wrapped.(type) {
	case nil:
		return true
	case *Template:
		return Match(w, e.Wrapped)
	default:
		return e.Wrapped == nil || w.Error() == e.Wrapped.Error()
	}
}
