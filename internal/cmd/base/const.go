// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package base

import "github.com/quotagate/quotagate/globals"

const (
	// FlagNameConfig is the flag used by commands that read the server
	// configuration file.
	FlagNameConfig = "config"
	// FlagNameLogLevel is the flag used to override the configured log level.
	FlagNameLogLevel = "log-level"
	// FlagNameLogFormat is the flag used to override the configured log
	// format.
	FlagNameLogFormat = "log-format"
)

const (
	EnvQuotagateCLINoColor = globals.EnvPrefix + `CLI_NO_COLOR`
	EnvQuotagateCLIFormat  = globals.EnvPrefix + `CLI_FORMAT`
	EnvQuotagateConfig     = globals.EnvPrefix + `CONFIG`
)
