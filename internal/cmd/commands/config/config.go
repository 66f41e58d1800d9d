// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"github.com/mitchellh/cli"
	"github.com/quotagate/quotagate/internal/cmd/base"
)

var _ cli.Command = (*Command)(nil)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Inspect Quotagate's configuration options"
}

func (c *Command) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: quotagate config <subcommand> [options] [args]",
		"",
		"  This command groups subcommands for operators working with Quotagate's",
		"  config files. For example, list every option of the ldap group:",
		"",
		"    $ quotagate config list-opts -group ldap",
		"",
		"  Please see the individual subcommand help for detailed usage information.",
	})
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
