// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ldapcmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/cli"
	"github.com/posener/complete"
	"github.com/quotagate/quotagate/internal/cmd/base"
)

// EnvLdapPassword holds the password for ldap authenticate when set.
const EnvLdapPassword = "QUOTAGATE_LDAP_PASSWORD"

var (
	_ cli.Command             = (*AuthenticateCommand)(nil)
	_ cli.CommandAutocomplete = (*AuthenticateCommand)(nil)
)

type AuthenticateCommand struct {
	*base.Command
	directoryFlags

	flagLoginName string
}

func (c *AuthenticateCommand) Synopsis() string {
	return "Authenticate a user against the configured LDAP directory"
}

func (c *AuthenticateCommand) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: quotagate ldap authenticate [options]",
		"",
		"  Bind as a user with the ldap options of a config file and print the",
		"  user the server would map the entry to:",
		"",
		"    $ quotagate ldap authenticate -config=/etc/quotagate/server.hcl -login-name=alice",
		"",
		"  The password is read from " + EnvLdapPassword + " when set, otherwise it is",
		"  prompted for.",
	}) + c.Flags().Help()
}

func (c *AuthenticateCommand) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetOutputFormat)

	f := set.NewFlagSet("Command Options")
	c.addFlags(f)
	f.StringVar(&base.StringVar{
		Name:   "login-name",
		Target: &c.flagLoginName,
		Usage:  "The login name to bind as.",
	})

	return set
}

func (c *AuthenticateCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *AuthenticateCommand) AutocompleteFlags() complete.Flags {
	return c.Flags().Completions()
}

func (c *AuthenticateCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}
	if c.flagLoginName == "" {
		c.PrintCliError(fmt.Errorf("Login name must be provided via -login-name"))
		return base.CommandUserError
	}

	dir, err := c.openDirectory(c.Context)
	if err != nil {
		c.PrintCliError(err)
		return base.CommandUserError
	}

	password := os.Getenv(EnvLdapPassword)
	if password == "" {
		password, err = c.UI.AskSecret("Please enter the password (it will be hidden): ")
		if err != nil {
			c.PrintCliError(fmt.Errorf("Error reading password: %w", err))
			return base.CommandCliError
		}
		c.UI.Output("")
	}

	u, err := dir.Authenticate(c.Context, c.flagLoginName, strings.TrimSpace(password))
	if err != nil {
		c.PrintCliError(fmt.Errorf("Error authenticating: %w", err))
		return base.CommandApiError
	}

	if base.Format(c.UI) == "json" {
		if !c.PrintJson(u) {
			return base.CommandCliError
		}
		return base.CommandSuccess
	}

	attrs := map[string]any{
		"ID":      u.Id,
		"Name":    u.Name,
		"Enabled": u.Enabled,
		"DN":      u.DN,
	}
	if u.Email != "" {
		attrs["Email"] = u.Email
	}
	if u.DefaultProjectId != "" {
		attrs["Default Project ID"] = u.DefaultProjectId
	}
	if u.Description != "" {
		attrs["Description"] = u.Description
	}
	c.UI.Output("User information:")
	c.UI.Output(base.WrapMap(2, base.MaxAttributesLength(attrs), attrs))
	if len(u.Extra) > 0 {
		extra := make(map[string]any, len(u.Extra))
		for k, v := range u.Extra {
			extra[k] = v
		}
		c.UI.Output("")
		c.UI.Output("  Extra attributes:")
		c.UI.Output(base.WrapMap(4, base.MaxAttributesLength(extra), extra))
	}
	return base.CommandSuccess
}
