// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mitchellh/cli"
	"github.com/posener/complete"
	"github.com/quotagate/quotagate/internal/cmd/base"
	"github.com/quotagate/quotagate/internal/conf"
	"github.com/quotagate/quotagate/internal/conf/opts"
)

var (
	_ cli.Command             = (*ListOptsCommand)(nil)
	_ cli.CommandAutocomplete = (*ListOptsCommand)(nil)
)

type ListOptsCommand struct {
	*base.Command

	flagGroup string
}

type optInfo struct {
	Group      string   `json:"group"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Default    any      `json:"default,omitempty"`
	Choices    []string `json:"choices,omitempty"`
	Min        *int64   `json:"min,omitempty"`
	Secret     bool     `json:"secret,omitempty"`
	Deprecated string   `json:"deprecated,omitempty"`
	Help       string   `json:"help"`
}

func (c *ListOptsCommand) Synopsis() string {
	return "List the configuration options Quotagate understands"
}

func (c *ListOptsCommand) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: quotagate config list-opts [options]",
		"",
		"  List every option group and its options, with types and defaults:",
		"",
		"    $ quotagate config list-opts",
		"",
		"  Restrict the output to one group:",
		"",
		"    $ quotagate config list-opts -group ldap",
	}) + c.Flags().Help()
}

func (c *ListOptsCommand) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetOutputFormat)

	f := set.NewFlagSet("Command Options")

	groups := groupNames(opts.ListOpts())
	f.StringVar(&base.StringVar{
		Name:       "group",
		Target:     &c.flagGroup,
		Completion: complete.PredictSet(groups...),
		Usage:      fmt.Sprintf("Only list the options of this group. One of %s.", strings.Join(groups, ", ")),
	})

	return set
}

func (c *ListOptsCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *ListOptsCommand) AutocompleteFlags() complete.Flags {
	return c.Flags().Completions()
}

func (c *ListOptsCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}

	all := opts.ListOpts()
	groups := groupNames(all)
	if c.flagGroup != "" {
		if _, ok := all[c.flagGroup]; !ok {
			c.PrintCliError(fmt.Errorf("Unknown option group %q", c.flagGroup))
			return base.CommandUserError
		}
		groups = []string{c.flagGroup}
	}

	var infos []optInfo
	for _, g := range groups {
		for _, o := range all[g] {
			infos = append(infos, newOptInfo(g, o))
		}
	}

	if base.Format(c.UI) == "json" {
		if !c.PrintJson(infos) {
			return base.CommandCliError
		}
		return base.CommandSuccess
	}

	c.UI.Output(printOptTable(infos))
	return base.CommandSuccess
}

func newOptInfo(group string, o *conf.Opt) optInfo {
	info := optInfo{
		Group:   group,
		Name:    o.Name,
		Type:    o.Type.String(),
		Default: o.Default,
		Choices: o.Choices,
		Min:     o.Min,
		Secret:  o.Secret,
		Help:    o.Help,
	}
	if o.Secret {
		info.Default = nil
	}
	if o.DeprecatedForRemoval {
		info.Deprecated = o.DeprecatedReason
		if info.Deprecated == "" {
			info.Deprecated = "deprecated for removal"
		}
	}
	return info
}

func printOptTable(infos []optInfo) string {
	output := []string{"Group|Name|Type|Default|Secret|Help"}
	for _, i := range infos {
		def := ""
		switch {
		case i.Secret:
			def = "<redacted>"
		case i.Default != nil:
			def = fmt.Sprintf("%v", i.Default)
		}
		help := strings.Join(strings.Fields(i.Help), " ")
		if i.Deprecated != "" {
			help = "[deprecated] " + help
		}
		output = append(output, strings.Join([]string{
			i.Group,
			i.Name,
			i.Type,
			sanitizeCell(def),
			fmt.Sprintf("%t", i.Secret),
			sanitizeCell(help),
		}, "|"))
	}
	return base.TableOutput(output, nil)
}

func sanitizeCell(s string) string {
	return strings.ReplaceAll(s, "|", "/")
}

func groupNames(m map[string][]*conf.Opt) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
