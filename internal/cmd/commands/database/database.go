// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package database

import (
	"github.com/mitchellh/cli"
	"github.com/quotagate/quotagate/internal/cmd/base"
)

var _ cli.Command = (*Command)(nil)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Manage Quotagate's database"
}

func (c *Command) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: quotagate database <subcommand> [options] [args]",
		"",
		"  This command groups subcommands for operators managing the database",
		"  backing a Quotagate server. For example, apply the schema migrations:",
		"",
		"    $ quotagate database init -config=/etc/quotagate/server.hcl",
		"",
		"  Please see the individual subcommand help for detailed usage information.",
	})
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
