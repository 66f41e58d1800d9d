// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-secure-stdlib/mlock"
	"github.com/mitchellh/cli"
	"github.com/posener/complete"
	"github.com/quotagate/quotagate/internal/cmd/base"
	"github.com/quotagate/quotagate/internal/cmd/commands/database"
	"github.com/quotagate/quotagate/internal/cmd/config"
	"github.com/quotagate/quotagate/internal/daemon/controller"
	"github.com/quotagate/quotagate/internal/db"
	"github.com/quotagate/quotagate/internal/db/schema"
	"go.uber.org/atomic"
)

var (
	_ cli.Command             = (*Command)(nil)
	_ cli.CommandAutocomplete = (*Command)(nil)
)

type Command struct {
	*base.Server

	SighupCh chan struct{}

	Config *config.Config

	controller *controller.Controller

	flagConfig               string
	flagLogLevel             string
	flagLogFormat            string
	flagCombineLogs          bool
	flagDev                  bool
	flagDevApiListenAddr     string
	flagDevDisableRateLimits bool

	reloadedCh   chan struct{}  // for tests
	startedCh    chan struct{}  // for tests
	presetConfig *atomic.String // for tests
}

func (c *Command) Synopsis() string {
	return "Start a Quotagate server"
}

func (c *Command) Help() string {
	helpText := `
Usage: quotagate server [options]

  Start a server with a configuration file:

      $ quotagate server -config=/etc/quotagate/server.hcl

  Start a server in dev mode, backed by a temporary sqlite database:

      $ quotagate server -dev

` + c.Flags().Help()
	return strings.TrimSpace(helpText)
}

func (c *Command) Flags() *base.FlagSets {
	set := c.FlagSet(base.FlagSetNone)

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
		EnvVar:     "QUOTAGATE_LOG_LEVEL",
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

	f.BoolVar(&base.BoolVar{
		Name:   "combine-logs",
		Target: &c.flagCombineLogs,
		Usage:  "If set, both startup information and logs will be sent to stdout. If not set (the default), startup information will go to stdout and logs will be sent to stderr.",
	})

	f = set.NewFlagSet("Dev Options")

	f.BoolVar(&base.BoolVar{
		Name:   "dev",
		Target: &c.flagDev,
		Usage:  "Start a server with a built-in configuration and a temporary, migrated sqlite database. Ignores -config.",
	})

	f.StringVar(&base.StringVar{
		Name:   "dev-api-listen-address",
		Target: &c.flagDevApiListenAddr,
		EnvVar: "QUOTAGATE_DEV_API_LISTEN_ADDRESS",
		Usage:  "Address to bind to for the api listener in dev mode.",
	})

	f.BoolVar(&base.BoolVar{
		Name:   "dev-disable-api-rate-limits",
		Target: &c.flagDevDisableRateLimits,
		Usage:  "Disable api rate limiting in dev mode.",
	})

	return set
}

func (c *Command) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *Command) AutocompleteFlags() complete.Flags {
	return c.Flags().Completions()
}

func (c *Command) Run(args []string) int {
	defer func() {
		if err := c.RunShutdownFuncs(); err != nil {
			c.UI.Error(fmt.Errorf("Error running shutdown tasks: %w", err).Error())
		}
	}()

	if result := c.ParseFlagsAndConfig(args); result > 0 {
		return result
	}
	c.CombineLogs = c.flagCombineLogs

	if err := c.SetupLogging(c.flagLogLevel, c.flagLogFormat, c.Config.LogLevel, c.Config.LogFormat); err != nil {
		c.UI.Error(err.Error())
		return base.CommandUserError
	}

	// If mlockall(2) isn't supported, show a warning. We disable this in dev
	// because it is quite scary to see when first using Quotagate. We also
	// disable this if the user has explicitly disabled mlock in configuration.
	if !c.Config.DisableMlock && !mlock.Supported() {
		c.UI.Warn(base.WrapAtLength(
			"WARNING! mlock is not supported on this system! An mlockall(2)-like " +
				"syscall to prevent memory from being swapped to disk is not " +
				"supported on this system. For better security, only run Quotagate on " +
				"systems where this call is supported."))
	}

	if c.Config.Controller == nil {
		c.UI.Error(`"controller" config block not found`)
		return base.CommandUserError
	}

	var foundApi bool
	for _, lnConfig := range c.Config.Listeners {
		switch len(lnConfig.Purpose) {
		case 0:
			c.UI.Error("Listener specified without a purpose")
			return base.CommandUserError

		case 1:
			switch purpose := lnConfig.Purpose[0]; purpose {
			case base.ApiPurpose:
				foundApi = true
			default:
				c.UI.Error(fmt.Sprintf("Unknown listener purpose %q", purpose))
				return base.CommandUserError
			}

		default:
			c.UI.Error("Specifying a listener with more than one purpose is not supported")
			return base.CommandUserError
		}
	}
	if !foundApi {
		c.UI.Error(`No listener with "api" purpose found`)
		return base.CommandUserError
	}

	if err := c.StorePidFile(c.Config.PidFile); err != nil {
		c.UI.Error(fmt.Errorf("Error storing PID: %w", err).Error())
		return base.CommandUserError
	}

	c.SetupMetrics()

	if err := c.SetupListeners(c.UI, c.Config.SharedConfig); err != nil {
		c.UI.Error(err.Error())
		return base.CommandUserError
	}

	if code := c.setupDatabase(); code != base.CommandSuccess {
		return code
	}

	if err := c.StartController(c.Context); err != nil {
		c.UI.Error(err.Error())
		return base.CommandCliError
	}

	c.PrintInfo(c.UI)
	c.ReleaseLogGate()

	// Inform any tests that the server is ready
	if c.startedCh != nil {
		close(c.startedCh)
	}

	return c.WaitForInterrupt()
}

func (c *Command) ParseFlagsAndConfig(args []string) int {
	var err error

	f := c.Flags()

	if err = f.Parse(args); err != nil {
		c.UI.Error(err.Error())
		return base.CommandUserError
	}

	if c.flagConfig == "" && c.presetConfig == nil && !c.flagDev {
		c.UI.Error("Must specify a config file using -config")
		return base.CommandUserError
	}

	cfg, out := c.reloadConfig()
	if out > 0 {
		return out
	}
	c.Config = cfg

	return base.CommandSuccess
}

func (c *Command) reloadConfig() (*config.Config, int) {
	var err error
	var cfg *config.Config
	switch {
	case c.flagDev:
		cfg, err = config.DevController()
		if err != nil {
			c.UI.Error(fmt.Errorf("Error creating dev config: %w", err).Error())
			return nil, base.CommandUserError
		}
		if c.flagDevApiListenAddr != "" {
			for _, l := range cfg.Listeners {
				l.Address = c.flagDevApiListenAddr
			}
		}
		cfg.Controller.ApiRateLimitDisable = c.flagDevDisableRateLimits

	case c.presetConfig != nil:
		cfg, err = config.Parse(c.presetConfig.Load())
		if err != nil {
			c.UI.Error("Error parsing config: " + err.Error())
			return nil, base.CommandUserError
		}

	default:
		cfg, err = config.LoadFile(c.flagConfig)
		if err != nil {
			c.UI.Error("Error parsing config: " + err.Error())
			return nil, base.CommandUserError
		}
	}

	return cfg, 0
}

// setupDatabase opens the configured database. In dev mode a sqlite
// database is created in a temporary directory and migrated.
func (c *Command) setupDatabase() int {
	if c.Config.Database == nil {
		c.UI.Error(`"database" config block not found`)
		return base.CommandUserError
	}

	if c.flagDev {
		dir, err := os.MkdirTemp("", "quotagate-dev-")
		if err != nil {
			c.UI.Error(fmt.Errorf("Error creating dev database directory: %w", err).Error())
			return base.CommandCliError
		}
		c.ShutdownFuncs = append(c.ShutdownFuncs, func() error {
			return os.RemoveAll(dir)
		})
		c.Config.Database.Url = fmt.Sprintf("file:%s?_fk=1", filepath.Join(dir, "quotagate.db"))
		if _, code := database.MigrateDatabase(c.Context, c.UI, c.Server, c.Config.Database); code != base.CommandSuccess {
			return code
		}
		return base.CommandSuccess
	}

	if c.Config.Database.Url == "" {
		c.UI.Error(`"url" not specified in "database" config block`)
		return base.CommandUserError
	}
	if err := c.OpenDatabase(c.Context, c.Config.Database.Dialect, c.Config.Database.Url,
		db.WithMaxOpenConnections(c.Config.Database.MaxOpenConnections),
		db.WithMaxIdleConnections(c.Config.Database.MaxIdleConnections),
	); err != nil {
		c.UI.Error(fmt.Errorf("Error creating database connection: %w", err).Error())
		return base.CommandCliError
	}
	if err := c.VerifyPostgresVersion(c.Context); err != nil {
		c.UI.Error(err.Error())
		return base.CommandCliError
	}
	if err := verifyDatabaseState(c.Context, c.Database); err != nil {
		c.UI.Error(err.Error())
		return base.CommandCliError
	}
	return base.CommandSuccess
}

func (c *Command) StartController(ctx context.Context) error {
	conf := &controller.Config{
		RawConfig: c.Config,
		Server:    c.Server,
	}

	var err error
	c.controller, err = controller.New(ctx, conf)
	if err != nil {
		return fmt.Errorf("Error initializing controller: %w", err)
	}

	if err := c.controller.Start(); err != nil {
		retErr := fmt.Errorf("Error starting controller: %w", err)
		if err := c.controller.Shutdown(); err != nil {
			c.UI.Error(retErr.Error())
			retErr = fmt.Errorf("Error shutting down controller: %w", err)
		}
		return retErr
	}
	return nil
}

func (c *Command) WaitForInterrupt() int {
	shutdownTriggered := false

	for !shutdownTriggered {
		select {
		case <-c.ShutdownCh:
			c.UI.Output("==> Quotagate server shutdown triggered")

			if err := c.controller.Shutdown(); err != nil {
				c.UI.Error(fmt.Errorf("Error shutting down controller: %w", err).Error())
			}

			shutdownTriggered = true

		case <-c.SighupCh:
			c.UI.Output("==> Quotagate server reload triggered")

			newConf, out := c.reloadConfig()
			if out > 0 {
				newConf = nil
			}
			if newConf != nil && newConf.LogLevel != "" {
				level, _, err := base.ProcessLogLevelAndFormat("", "", newConf.LogLevel, "")
				if err != nil {
					c.Logger.Error("unknown log level found on reload", "level", newConf.LogLevel)
				} else {
					c.Logger.SetLevel(level)
				}
			}

			if err := c.Reload(newConf); err != nil {
				c.UI.Error(fmt.Errorf("Error(s) were encountered during reload: %w", err).Error())
			}
		}
	}

	return base.CommandSuccess
}

// Reload runs the listener reload functions and applies the rate limit
// settings of newConf. A nil newConf only reloads the listeners.
func (c *Command) Reload(newConf *config.Config) error {
	c.ReloadFuncsLock.RLock()
	defer c.ReloadFuncsLock.RUnlock()

	var reloadErrors error

	for k, relFuncs := range c.ReloadFuncs {
		if !strings.HasPrefix(k, "listener|") {
			continue
		}
		for _, relFunc := range relFuncs {
			if relFunc == nil {
				continue
			}
			if err := relFunc(); err != nil {
				reloadErrors = stderrors.Join(reloadErrors, fmt.Errorf("error encountered reloading listener: %w", err))
			}
		}
	}

	if err := c.reloadControllerRateLimits(newConf); err != nil {
		reloadErrors = stderrors.Join(reloadErrors, fmt.Errorf("failed to reload controller api rate limits: %w", err))
	}

	// Send a message that we reloaded. This prevents "guessing" sleep times
	// in tests.
	if c.reloadedCh != nil {
		select {
		case c.reloadedCh <- struct{}{}:
		default:
		}
	}

	return reloadErrors
}

func (c *Command) reloadControllerRateLimits(newConfig *config.Config) error {
	if c.controller == nil || newConfig == nil || newConfig.Controller == nil {
		return nil
	}
	return c.controller.ReloadRateLimiter(newConfig)
}

// verifyDatabaseState checks that the migrations for the given database have
// been applied.
func verifyDatabaseState(ctx context.Context, d *db.DB) error {
	if d == nil {
		return fmt.Errorf("nil database")
	}
	dbType, err := d.DbType()
	if err != nil {
		return fmt.Errorf("failed to determine database dialect: %w", err)
	}
	sqlDb, err := d.SqlDB(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain sql db: %w", err)
	}

	s, err := schema.CurrentState(ctx, dbType.String(), sqlDb)
	if err != nil {
		return fmt.Errorf("failed to get current schema state: %w", err)
	}
	if !s.Initialized {
		return fmt.Errorf("The database has not been initialized. Please run " +
			"'quotagate database init' if you haven't initialized your database for Quotagate.")
	}
	if s.Dirty {
		return fmt.Errorf("The database schema is dirty at version %d. Please revert "+
			"the database into the last known good state.", s.Version)
	}
	return nil
}

