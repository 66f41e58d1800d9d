// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package cmd

import (
	"github.com/mitchellh/cli"
	"github.com/quotagate/quotagate/internal/cmd/base"
	"github.com/quotagate/quotagate/internal/cmd/commands/config"
	"github.com/quotagate/quotagate/internal/cmd/commands/database"
	"github.com/quotagate/quotagate/internal/cmd/commands/ldapcmd"
	"github.com/quotagate/quotagate/internal/cmd/commands/server"
	"github.com/quotagate/quotagate/internal/cmd/commands/version"
)

// Commands is the mapping of all the available commands.
var Commands map[string]cli.CommandFactory

func initCommands(ui, serverCmdUi cli.Ui) {
	Commands = map[string]cli.CommandFactory{
		"server": func() (cli.Command, error) {
			return &server.Command{
				Server:   base.NewServer(base.NewCommand(serverCmdUi)),
				SighupCh: base.MakeSighupCh(),
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{
				Command: base.NewCommand(ui),
			}, nil
		},

		"config": func() (cli.Command, error) {
			return &config.Command{
				Command: base.NewCommand(ui),
			}, nil
		},
		"config list-opts": func() (cli.Command, error) {
			return &config.ListOptsCommand{
				Command: base.NewCommand(ui),
			}, nil
		},

		"database": func() (cli.Command, error) {
			return &database.Command{
				Command: base.NewCommand(ui),
			}, nil
		},
		"database init": func() (cli.Command, error) {
			return &database.InitCommand{
				Server: base.NewServer(base.NewCommand(ui)),
			}, nil
		},

		"ldap": func() (cli.Command, error) {
			return &ldapcmd.Command{
				Command: base.NewCommand(ui),
			}, nil
		},
		"ldap authenticate": func() (cli.Command, error) {
			return &ldapcmd.AuthenticateCommand{
				Command: base.NewCommand(ui),
			}, nil
		},
		"ldap check": func() (cli.Command, error) {
			return &ldapcmd.CheckCommand{
				Command: base.NewCommand(ui),
			}, nil
		},
	}
}
