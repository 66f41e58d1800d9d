// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ldapcmd

import (
	"fmt"

	"github.com/mitchellh/cli"
	"github.com/posener/complete"
	"github.com/quotagate/quotagate/internal/cmd/base"
)

var (
	_ cli.Command             = (*CheckCommand)(nil)
	_ cli.CommandAutocomplete = (*CheckCommand)(nil)
)

type CheckCommand struct {
	*base.Command
	directoryFlags
}

func (c *CheckCommand) Synopsis() string {
	return "Check the configured LDAP directory is reachable"
}

func (c *CheckCommand) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: quotagate ldap check [options]",
		"",
		"  Connect to the directory with the ldap options of a config file and",
		"  perform the configured bind:",
		"",
		"    $ quotagate ldap check -config=/etc/quotagate/server.hcl",
	}) + c.Flags().Help()
}

func (c *CheckCommand) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetNone)
	c.addFlags(set.NewFlagSet("Command Options"))
	return set
}

func (c *CheckCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *CheckCommand) AutocompleteFlags() complete.Flags {
	return c.Flags().Completions()
}

func (c *CheckCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}

	dir, err := c.openDirectory(c.Context)
	if err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}
	if err := dir.Check(c.Context); err != nil {
		c.PrintCliError(fmt.Errorf("Error checking directory: %w", err))
		return base.CommandApiError
	}
	c.UI.Info("The directory is reachable and the bind succeeded.")
	return base.CommandSuccess
}
