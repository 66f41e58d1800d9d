// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package database

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-secure-stdlib/mlock"
	"github.com/mitchellh/cli"
	"github.com/posener/complete"
	"github.com/quotagate/quotagate/internal/cmd/base"
	"github.com/quotagate/quotagate/internal/cmd/config"
	"github.com/quotagate/quotagate/internal/db"
	"github.com/quotagate/quotagate/internal/db/schema"
)

var (
	_ cli.Command             = (*InitCommand)(nil)
	_ cli.CommandAutocomplete = (*InitCommand)(nil)
)

type InitCommand struct {
	*base.Server

	Config *config.Config

	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
}

func (c *InitCommand) Synopsis() string {
	return "Initialize Quotagate's database"
}

func (c *InitCommand) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: quotagate database init [options]",
		"",
		"  Initialize Quotagate's database by applying every schema migration:",
		"",
		"    $ quotagate database init -config=/etc/quotagate/server.hcl",
		"",
		"  Running the command against an initialized database only applies",
		"  migrations that have not run yet.",
	}) + c.Flags().Help()
}

func (c *InitCommand) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetOutputFormat)

	f := set.NewFlagSet("Command Options")

	f.StringVar(&base.StringVar{
		Name:       base.FlagNameConfig,
		Target:     &c.flagConfig,
		EnvVar:     base.EnvQuotagateConfig,
		Completion: complete.PredictFiles("*.hcl"),
		Usage:      "Path to the configuration file.",
	})

	f.StringVar(&base.StringVar{
		Name:       base.FlagNameLogLevel,
		Target:     &c.flagLogLevel,
		Completion: complete.PredictSet("trace", "debug", "info", "warn", "err"),
		Usage: "Log verbosity level. Supported values (in order of more detail to less) are " +
			"\"trace\", \"debug\", \"info\", \"warn\", and \"err\".",
	})

	f.StringVar(&base.StringVar{
		Name:       base.FlagNameLogFormat,
		Target:     &c.flagLogFormat,
		Completion: complete.PredictSet("standard", "json"),
		Usage:      `Log format. Supported values are "standard" and "json".`,
	})

	return set
}

func (c *InitCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *InitCommand) AutocompleteFlags() complete.Flags {
	return c.Flags().Completions()
}

func (c *InitCommand) Run(args []string) int {
	if result := c.ParseFlagsAndConfig(args); result > 0 {
		return result
	}

	defer func() {
		if err := c.RunShutdownFuncs(); err != nil {
			c.UI.Error(fmt.Errorf("Error running shutdown tasks: %w", err).Error())
		}
	}()

	if err := c.SetupLogging(c.flagLogLevel, c.flagLogFormat, c.Config.LogLevel, c.Config.LogFormat); err != nil {
		c.UI.Error(err.Error())
		return base.CommandUserError
	}
	c.ReleaseLogGate()

	// If mlockall(2) isn't supported, show a warning. We disable this if the
	// user has explicitly disabled mlock in configuration.
	if !c.Config.DisableMlock && !mlock.Supported() {
		c.UI.Warn(base.WrapAtLength(
			"WARNING! mlock is not supported on this system! An mlockall(2)-like " +
				"syscall to prevent memory from being swapped to disk is not " +
				"supported on this system."))
	}

	if c.Config.Database == nil {
		c.UI.Error(`"database" config block not found`)
		return base.CommandUserError
	}
	if c.Config.Database.Url == "" {
		c.UI.Error(`"url" not specified in "database" config block`)
		return base.CommandUserError
	}

	applied, code := MigrateDatabase(c.Context, c.UI, c.Server, c.Config.Database)
	if code != base.CommandSuccess {
		return code
	}

	if base.Format(c.UI) == "json" {
		if !c.PrintJson(map[string]any{"migrations_applied": applied}) {
			return base.CommandCliError
		}
		return base.CommandSuccess
	}
	if applied {
		c.UI.Info("Migrations successfully run.")
	} else {
		c.UI.Info("Database already up to date.")
	}
	return base.CommandSuccess
}

func (c *InitCommand) ParseFlagsAndConfig(args []string) int {
	var err error

	f := c.Flags()

	if err = f.Parse(args); err != nil {
		c.UI.Error(err.Error())
		return base.CommandUserError
	}

	if c.flagConfig == "" {
		c.UI.Error("Must specify a config file using -config")
		return base.CommandUserError
	}

	c.Config, err = config.LoadFile(c.flagConfig)
	if err != nil {
		c.UI.Error("Error parsing config: " + err.Error())
		return base.CommandUserError
	}

	return base.CommandSuccess
}

// MigrateDatabase opens the configured database on b and applies every
// pending migration. It reports whether any migration ran.
func MigrateDatabase(ctx context.Context, ui cli.Ui, b *base.Server, dbConf *config.Database) (bool, int) {
	if err := b.OpenDatabase(ctx, dbConf.Dialect, dbConf.Url,
		db.WithMaxOpenConnections(dbConf.MaxOpenConnections),
		db.WithMaxIdleConnections(dbConf.MaxIdleConnections),
	); err != nil {
		ui.Error(fmt.Errorf("Error connecting to database: %w", err).Error())
		return false, base.CommandCliError
	}
	if err := b.VerifyPostgresVersion(ctx); err != nil {
		ui.Error(err.Error())
		return false, base.CommandCliError
	}
	sqlDb, err := b.Database.SqlDB(ctx)
	if err != nil {
		ui.Error(fmt.Errorf("Error obtaining sql db: %w", err).Error())
		return false, base.CommandCliError
	}
	applied, err := schema.MigrateStore(ctx, b.DbType.String(), sqlDb)
	if err != nil {
		ui.Error(fmt.Errorf("Error running database migrations: %w", err).Error())
		return false, base.CommandCliError
	}
	return applied, base.CommandSuccess
}
