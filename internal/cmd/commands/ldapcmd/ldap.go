// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package ldapcmd

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/posener/complete"
	"github.com/quotagate/quotagate/internal/cmd/base"
	"github.com/quotagate/quotagate/internal/cmd/config"
	"github.com/quotagate/quotagate/internal/conf"
	"github.com/quotagate/quotagate/internal/conf/opts"
	"github.com/quotagate/quotagate/internal/identity/ldap"
)

var _ cli.Command = (*Command)(nil)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Test the configured LDAP identity backend"
}

func (c *Command) Help() string {
	return base.WrapForHelpText([]string{
		"Usage: quotagate ldap <subcommand> [options] [args]",
		"",
		"  This command groups subcommands for checking the ldap option group of a",
		"  server config file against a live directory. For example:",
		"",
		"    $ quotagate ldap check -config=/etc/quotagate/server.hcl",
		"",
		"  Please see the individual subcommand help for detailed usage information.",
	})
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

// directoryFlags are shared by the ldap subcommands.
type directoryFlags struct {
	flagConfig   string
	flagLogLevel string
}

func (d *directoryFlags) addFlags(f *base.FlagSet) {
	f.StringVar(&base.StringVar{
		Name:       base.FlagNameConfig,
		Target:     &d.flagConfig,
		EnvVar:     base.EnvQuotagateConfig,
		Completion: complete.PredictFiles("*.hcl"),
		Usage:      "Path to the configuration file holding the ldap block.",
	})
	f.StringVar(&base.StringVar{
		Name:       base.FlagNameLogLevel,
		Target:     &d.flagLogLevel,
		Default:    "warn",
		Completion: complete.PredictSet("trace", "debug", "info", "warn", "err"),
		Usage:      "Log verbosity level of the directory client.",
	})
}

// openDirectory builds a Directory from the ldap group of the config file.
func (d *directoryFlags) openDirectory(ctx context.Context) (*ldap.Directory, error) {
	if d.flagConfig == "" {
		return nil, fmt.Errorf("Must specify a config file using -config")
	}
	cfg, err := config.LoadFile(d.flagConfig)
	if err != nil {
		return nil, fmt.Errorf("Error parsing config: %w", err)
	}
	level := hclog.LevelFromString(d.flagLogLevel)
	if level == hclog.NoLevel {
		return nil, fmt.Errorf("Unknown log level %q", d.flagLogLevel)
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "ldap",
		Level: level,
	})

	r, err := opts.NewRegistry(ctx, conf.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadRegistry(ctx, r); err != nil {
		return nil, fmt.Errorf("Error loading options: %w", err)
	}
	lc, err := ldap.NewConfig(ctx, r, ldap.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("Error reading ldap options: %w", err)
	}
	return ldap.NewDirectory(ctx, lc, ldap.WithLogger(logger))
}
