// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

// Package conf provides a registry of typed, grouped configuration options.
// Option tables are declared by the packages that own them and registered
// into a Registry at startup; values are then loaded from the server's
// configuration file and read back through the typed getters.
package conf

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/quotagate/quotagate/internal/errors"
)

const redacted = "****"

type group struct {
	opts   []*Opt
	byName map[string]*Opt
	values map[string]any
}

// Registry holds option declarations and their configured values.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*group
	logger hclog.Logger
}

// NewRegistry creates an empty registry. Supports the WithLogger option.
func NewRegistry(opt ...Option) *Registry {
	opts := getOpts(opt...)
	return &Registry{
		groups: map[string]*group{},
		logger: opts.withLogger,
	}
}

// Register adds opts to groupName. Registering an option name twice within
// a group is an error and leaves the registry unchanged.
func (r *Registry) Register(ctx context.Context, groupName string, opts ...*Opt) error {
	const op = "conf.(Registry).Register"
	if groupName == "" {
		return errors.New(ctx, errors.InvalidParameter, op, "missing group name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupName]
	if !ok {
		g = &group{byName: map[string]*Opt{}, values: map[string]any{}}
	}
	seen := map[string]struct{}{}
	for _, o := range opts {
		switch {
		case o == nil:
			return errors.New(ctx, errors.InvalidParameter, op, "nil option")
		case o.Name == "":
			return errors.New(ctx, errors.InvalidParameter, op, "option missing name")
		}
		if _, dup := g.byName[o.Name]; dup {
			return errors.New(ctx, errors.DuplicateOption, op, fmt.Sprintf("option %q already registered in group %q", o.Name, groupName))
		}
		if _, dup := seen[o.Name]; dup {
			return errors.New(ctx, errors.DuplicateOption, op, fmt.Sprintf("option %q declared twice for group %q", o.Name, groupName))
		}
		seen[o.Name] = struct{}{}
		if _, err := o.Parse(ctx, o.Default); err != nil {
			return errors.Wrap(ctx, err, op, errors.WithMsg("invalid default"))
		}
	}
	for _, o := range opts {
		g.opts = append(g.opts, o)
		g.byName[o.Name] = o
	}
	r.groups[groupName] = g
	return nil
}

// Set parses raw for the named option and records it as the configured
// value.
func (r *Registry) Set(ctx context.Context, groupName, name string, raw any) error {
	const op = "conf.(Registry).Set"
	r.mu.Lock()
	defer r.mu.Unlock()
	g, o, err := r.lookup(ctx, groupName, name)
	if err != nil {
		return errors.Wrap(ctx, err, op)
	}
	v, err := o.Parse(ctx, raw)
	if err != nil {
		return errors.Wrap(ctx, err, op)
	}
	if o.DeprecatedForRemoval && r.logger != nil {
		r.logger.Warn("option is deprecated for removal", "group", groupName, "option", name, "reason", o.DeprecatedReason)
	}
	g.values[name] = v
	return nil
}

// Load applies every entry of values to groupName. All invalid entries are
// reported together and none of the values are applied when any fail.
func (r *Registry) Load(ctx context.Context, groupName string, values map[string]any) error {
	const op = "conf.(Registry).Load"
	r.mu.Lock()
	g, ok := r.groups[groupName]
	if !ok {
		r.mu.Unlock()
		return errors.New(ctx, errors.UnknownOption, op, fmt.Sprintf("unknown group %q", groupName))
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var mErr *multierror.Error
	parsed := make(map[string]any, len(values))
	for _, name := range names {
		o, ok := g.byName[name]
		if !ok {
			mErr = multierror.Append(mErr, errors.New(ctx, errors.UnknownOption, op, fmt.Sprintf("unknown option %q in group %q", name, groupName)))
			continue
		}
		v, err := o.Parse(ctx, values[name])
		if err != nil {
			mErr = multierror.Append(mErr, err)
			continue
		}
		parsed[name] = v
	}
	if err := mErr.ErrorOrNil(); err != nil {
		r.mu.Unlock()
		return errors.New(ctx, errors.InvalidConfigValue, op, fmt.Sprintf("invalid %q configuration", groupName), errors.WithWrap(err))
	}
	for name, v := range parsed {
		g.values[name] = v
	}
	r.mu.Unlock()

	if r.logger != nil {
		for _, name := range names {
			if o := g.byName[name]; o.DeprecatedForRemoval {
				r.logger.Warn("option is deprecated for removal", "group", groupName, "option", name, "reason", o.DeprecatedReason)
			}
		}
	}
	return nil
}

// Get returns the configured value of an option, falling back to its
// default. Options without a default and without a value return nil.
func (r *Registry) Get(ctx context.Context, groupName, name string) (any, error) {
	const op = "conf.(Registry).Get"
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, o, err := r.lookup(ctx, groupName, name)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	if v, ok := g.values[name]; ok {
		return v, nil
	}
	v, err := o.Parse(ctx, o.Default)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	return v, nil
}

// IsSet reports whether the option was explicitly configured.
func (r *Registry) IsSet(groupName, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[groupName]
	if !ok {
		return false
	}
	_, ok = g.values[name]
	return ok
}

// Opts returns the options registered under groupName in registration order.
func (r *Registry) Opts(groupName string) []*Opt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[groupName]
	if !ok {
		return nil
	}
	out := make([]*Opt, len(g.opts))
	copy(out, g.opts)
	return out
}

// ListOpts returns every registered option keyed by group name.
func (r *Registry) ListOpts() map[string][]*Opt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]*Opt, len(r.groups))
	for name, g := range r.groups {
		opts := make([]*Opt, len(g.opts))
		copy(opts, g.opts)
		out[name] = opts
	}
	return out
}

// Sanitized returns the effective values of a group with secrets masked.
func (r *Registry) Sanitized(ctx context.Context, groupName string) map[string]any {
	out := map[string]any{}
	for _, o := range r.Opts(groupName) {
		v, err := r.Get(ctx, groupName, o.Name)
		if err != nil || v == nil {
			continue
		}
		if o.Secret {
			v = redacted
		}
		out[o.Name] = v
	}
	return out
}

func (r *Registry) lookup(ctx context.Context, groupName, name string) (*group, *Opt, error) {
	const op = "conf.(Registry).lookup"
	g, ok := r.groups[groupName]
	if !ok {
		return nil, nil, errors.New(ctx, errors.UnknownOption, op, fmt.Sprintf("unknown group %q", groupName))
	}
	o, ok := g.byName[name]
	if !ok {
		return nil, nil, errors.New(ctx, errors.UnknownOption, op, fmt.Sprintf("unknown option %q in group %q", name, groupName))
	}
	return g, o, nil
}
