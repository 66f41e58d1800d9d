// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ldap

import (
	"context"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	capldap "github.com/hashicorp/cap/ldap"
	"github.com/hashicorp/go-secure-stdlib/strutil"
	"github.com/quotagate/quotagate/internal/conf"
	ldapopts "github.com/quotagate/quotagate/internal/conf/ldap"
	"github.com/quotagate/quotagate/internal/errors"
)

// Config is the typed view of the ldap option group.
type Config struct {
	URLs         []string
	BindDN       string
	BindPassword string

	DerefAliases string
	PageSize     int

	UserTreeDN               string
	UserFilter               string
	UserIdAttribute          string
	UserNameAttribute        string
	UserDescriptionAttribute string
	UserMailAttribute        string
	UserDefaultProjectIdAttr string
	UserEnabledAttribute     string
	UserEnabledInvert        bool
	UserEnabledMask          int
	UserEnabledDefault       string
	UserEnabledEmulation     bool
	UserEnabledEmulationDN   string
	UserAttributeIgnore      []string
	UserAdditionalAttributes map[string]string
	GroupTreeDN              string
	GroupFilter              string
	GroupIdAttribute         string
	GroupMemberAttribute     string
	GroupMembersAreIds       bool
	EmulationUsesGroupConfig bool
	Certificates             []string
	StartTLS                 bool
	InsecureTLS              bool
	UsePool                  bool
	PoolSize                 int
	UseAuthPool              bool
	AuthPoolSize             int
	RetryMax                 int
	RetryDelay               time.Duration
	RequestTimeout           time.Duration
}

// unsupportedOpts are accepted for compatibility but cannot be honored by the
// directory client: searches always cover the whole subtree, users are found
// by the name attribute and the user filter, and pooled connections are not
// recycled by age.
var unsupportedOpts = []*conf.Opt{
	ldapopts.QueryScope,
	ldapopts.UserObjectclass,
	ldapopts.PoolConnectionLifetime,
	ldapopts.AuthPoolConnectionLifetime,
}

// NewConfig reads the ldap group of r. Supports the WithLogger option.
func NewConfig(ctx context.Context, r *conf.Registry, opt ...Option) (*Config, error) {
	const op = "ldap.NewConfig"
	if r == nil {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing registry")
	}
	opts := getOpts(opt...)
	g := reader{ctx: ctx, r: r}
	c := &Config{
		URLs:                     splitURLs(g.strOpt(ldapopts.Url)),
		BindDN:                   g.strOpt(ldapopts.User),
		BindPassword:             g.strOpt(ldapopts.Password),
		DerefAliases:             derefAliases(g.strOpt(ldapopts.AliasDereferencing)),
		PageSize:                 g.intOpt(ldapopts.PageSize),
		UserTreeDN:               g.strOpt(ldapopts.UserTreeDn),
		UserFilter:               g.strOpt(ldapopts.UserFilter),
		UserIdAttribute:          g.strOpt(ldapopts.UserIdAttribute),
		UserNameAttribute:        g.strOpt(ldapopts.UserNameAttribute),
		UserDescriptionAttribute: g.strOpt(ldapopts.UserDescriptionAttribute),
		UserMailAttribute:        g.strOpt(ldapopts.UserMailAttribute),
		UserDefaultProjectIdAttr: g.strOpt(ldapopts.UserDefaultProjectIdAttribute),
		UserEnabledAttribute:     g.strOpt(ldapopts.UserEnabledAttribute),
		UserEnabledInvert:        g.boolOpt(ldapopts.UserEnabledInvert),
		UserEnabledMask:          g.intOpt(ldapopts.UserEnabledMask),
		UserEnabledDefault:       g.strOpt(ldapopts.UserEnabledDefault),
		UserEnabledEmulation:     g.boolOpt(ldapopts.UserEnabledEmulation),
		UserEnabledEmulationDN:   g.strOpt(ldapopts.UserEnabledEmulationDn),
		UserAttributeIgnore:      g.listOpt(ldapopts.UserAttributeIgnore),
		GroupTreeDN:              g.strOpt(ldapopts.GroupTreeDn),
		GroupFilter:              g.strOpt(ldapopts.GroupFilter),
		GroupIdAttribute:         g.strOpt(ldapopts.GroupIdAttribute),
		GroupMemberAttribute:     g.strOpt(ldapopts.GroupMemberAttribute),
		GroupMembersAreIds:       g.boolOpt(ldapopts.GroupMembersAreIds),
		EmulationUsesGroupConfig: g.boolOpt(ldapopts.UserEnabledEmulationUseGroupConfig),
		StartTLS:                 g.boolOpt(ldapopts.UseTls),
		UsePool:                  g.boolOpt(ldapopts.UsePool),
		PoolSize:                 g.intOpt(ldapopts.PoolSize),
		UseAuthPool:              g.boolOpt(ldapopts.UseAuthPool),
		AuthPoolSize:             g.intOpt(ldapopts.AuthPoolSize),
		RetryMax:                 g.intOpt(ldapopts.PoolRetryMax),
		RetryDelay:               time.Duration(g.floatOpt(ldapopts.PoolRetryDelay) * float64(time.Second)),
	}
	if g.err != nil {
		return nil, errors.Wrap(ctx, g.err, op)
	}
	if len(c.URLs) == 0 {
		return nil, errors.New(ctx, errors.InvalidConfigValue, op, "at least one ldap url is required")
	}
	suffix := g.strOpt(ldapopts.Suffix)
	if c.UserTreeDN == "" {
		c.UserTreeDN = suffix
	}
	if c.GroupTreeDN == "" {
		c.GroupTreeDN = suffix
	}
	if c.UserEnabledEmulation && c.UserEnabledEmulationDN == "" {
		c.UserEnabledEmulationDN = "cn=enabled_users," + c.UserTreeDN
	}
	if secs := g.intOpt(ldapopts.PoolConnectionTimeout); secs > 0 {
		c.RequestTimeout = time.Duration(secs) * time.Second
	}
	switch g.strOpt(ldapopts.TlsReqCert) {
	case "never", "allow":
		c.InsecureTLS = true
	}
	for _, o := range unsupportedOpts {
		if r.IsSet(ldapopts.GroupName, o.Name) {
			opts.withLogger.Warn("ldap option is not supported and has no effect", "op", op, "option", o.Name)
		}
	}
	var malformed []string
	c.UserAdditionalAttributes, malformed = parseAttributeMapping(g.listOpt(ldapopts.UserAdditionalAttributeMapping))
	for _, w := range malformed {
		opts.withLogger.Warn("invalid additional attribute mapping", "op", op, "mapping", w)
	}

	certs, err := loadCertificates(ctx, g.strOpt(ldapopts.TlsCacertfile), g.strOpt(ldapopts.TlsCacertdir))
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	c.Certificates = certs
	if g.err != nil {
		return nil, errors.Wrap(ctx, g.err, op)
	}
	return c, nil
}

// clientConfig translates c into the directory client configuration.
func (c *Config) clientConfig() *capldap.ClientConfig {
	cc := &capldap.ClientConfig{
		URLs:                  c.URLs,
		BindDN:                c.BindDN,
		BindPassword:          c.BindPassword,
		DiscoverDN:            true,
		UserDN:                c.UserTreeDN,
		UserAttr:              c.UserNameAttribute,
		UserFilter:            c.userSearchFilter(),
		GroupDN:               c.GroupTreeDN,
		GroupAttr:             c.GroupIdAttribute,
		GroupFilter:           c.groupSearchFilter(),
		IncludeUserAttributes: true,
		IncludeUserGroups:     c.UserEnabledEmulation,
		StartTLS:              c.StartTLS,
		InsecureTLS:           c.InsecureTLS,
		Certificates:          c.Certificates,
		DerefAliases:          c.DerefAliases,
		MaximumPageSize:       c.PageSize,
	}
	if c.RequestTimeout > 0 {
		cc.RequestTimeout = int(c.RequestTimeout / time.Second)
	}
	return cc
}

func (c *Config) userSearchFilter() string {
	const byLogin = "({{.UserAttr}}={{.Username}})"
	if c.UserFilter == "" {
		return byLogin
	}
	return "(&" + byLogin + wrapFilter(c.UserFilter) + ")"
}

func (c *Config) groupSearchFilter() string {
	member := fmt.Sprintf("(%s={{.UserDN}})", c.GroupMemberAttribute)
	if c.GroupMembersAreIds {
		member = fmt.Sprintf("(%s={{.Username}})", c.GroupMemberAttribute)
	}
	if !c.EmulationUsesGroupConfig || c.GroupFilter == "" {
		return member
	}
	return "(&" + member + wrapFilter(c.GroupFilter) + ")"
}

// splitURLs splits a comma separated url list keeping the first occurrence
// of each url in order.
func splitURLs(s string) []string {
	var out []string
	for _, u := range strings.Split(s, ",") {
		u = strings.TrimSpace(u)
		if u == "" || strutil.StrListContains(out, u) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func wrapFilter(f string) string {
	f = strings.TrimSpace(f)
	if strings.HasPrefix(f, "(") {
		return f
	}
	return "(" + f + ")"
}

func derefAliases(v string) string {
	switch v {
	case "never", "searching", "finding", "always":
		return v
	default:
		return ""
	}
}

// parseAttributeMapping parses ldap_attr:user_attr pairs keyed by the ldap
// attribute. Malformed entries are returned separately.
func parseAttributeMapping(entries []string) (map[string]string, []string) {
	out := map[string]string{}
	var bad []string
	for _, e := range entries {
		ldapAttr, userAttr, ok := strings.Cut(e, ":")
		ldapAttr, userAttr = strings.TrimSpace(ldapAttr), strings.TrimSpace(userAttr)
		if !ok || ldapAttr == "" || userAttr == "" {
			bad = append(bad, e)
			continue
		}
		out[ldapAttr] = userAttr
	}
	return out, bad
}

// loadCertificates returns the PEM certificates of file, or of every pem or
// crt file in dir when file is empty.
func loadCertificates(ctx context.Context, file, dir string) ([]string, error) {
	const op = "ldap.loadCertificates"
	var paths []string
	switch {
	case file != "":
		paths = []string{file}
	case dir != "":
		for _, pattern := range []string{"*.pem", "*.crt"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidConfigValue))
			}
			paths = append(paths, matches...)
		}
		sort.Strings(paths)
	default:
		return nil, nil
	}
	var certs []string
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidConfigValue), errors.WithMsg(fmt.Sprintf("unable to read certificate %s", p)))
		}
		block, _ := pem.Decode(raw)
		if block == nil || block.Type != "CERTIFICATE" {
			return nil, errors.New(ctx, errors.InvalidConfigValue, op, fmt.Sprintf("%s does not contain a PEM certificate", p))
		}
		certs = append(certs, string(raw))
	}
	return certs, nil
}

// reader collects the first error while reading typed options.
type reader struct {
	ctx context.Context
	r   *conf.Registry
	err error
}

func (g *reader) strOpt(o *conf.Opt) string {
	v, err := g.r.String(g.ctx, ldapopts.GroupName, o.Name)
	g.record(err)
	return v
}

func (g *reader) boolOpt(o *conf.Opt) bool {
	v, err := g.r.Bool(g.ctx, ldapopts.GroupName, o.Name)
	g.record(err)
	return v
}

func (g *reader) intOpt(o *conf.Opt) int {
	v, err := g.r.Int(g.ctx, ldapopts.GroupName, o.Name)
	g.record(err)
	return v
}

func (g *reader) floatOpt(o *conf.Opt) float64 {
	v, err := g.r.Float(g.ctx, ldapopts.GroupName, o.Name)
	g.record(err)
	return v
}

func (g *reader) listOpt(o *conf.Opt) []string {
	v, err := g.r.List(g.ctx, ldapopts.GroupName, o.Name)
	g.record(err)
	return v
}

func (g *reader) record(err error) {
	if err != nil && g.err == nil {
		g.err = err
	}
}
