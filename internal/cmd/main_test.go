// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package cmd

import (
	"bytes"
	"testing"

	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupEnv(t *testing.T) {
	tests := []struct {
		name       string
		in         []string
		env        string
		wantArgs   []string
		wantFormat string
	}{
		{
			name:       "default",
			in:         []string{"config", "list-opts"},
			wantArgs:   []string{"config", "list-opts"},
			wantFormat: "table",
		},
		{
			name:       "format-equals",
			in:         []string{"config", "list-opts", "-format=JSON"},
			wantArgs:   []string{"config", "list-opts", "-format=JSON"},
			wantFormat: "json",
		},
		{
			name:       "format-separate",
			in:         []string{"config", "list-opts", "-format", "json"},
			wantArgs:   []string{"config", "list-opts", "-format", "json"},
			wantFormat: "json",
		},
		{
			name:       "format-after-terminator",
			in:         []string{"config", "--", "-format=json"},
			wantArgs:   []string{"config", "--", "-format=json"},
			wantFormat: "table",
		},
		{
			name:       "env",
			in:         []string{"config", "list-opts"},
			env:        "json",
			wantArgs:   []string{"config", "list-opts"},
			wantFormat: "json",
		},
		{
			name:       "version-flag",
			in:         []string{"-v"},
			wantArgs:   []string{"version"},
			wantFormat: "table",
		},
		{
			name:       "autocomplete-install",
			in:         []string{"config", "autocomplete", "install"},
			wantArgs:   []string{"-autocomplete-install"},
			wantFormat: "table",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("QUOTAGATE_CLI_FORMAT", tc.env)
			args, format := setupEnv(tc.in)
			assert.Equal(t, tc.wantArgs, args)
			assert.Equal(t, tc.wantFormat, format)
		})
	}
}

func TestGroupedHelpFunc(t *testing.T) {
	initCommands(cli.NewMockUi(), cli.NewMockUi())
	help := groupedHelpFunc(cli.BasicHelpFunc("quotagate"))(Commands)

	assert.Contains(t, help, "Usage: quotagate <command> [args]")
	assert.Contains(t, help, "Server Commands:")
	assert.Contains(t, help, "server")
	assert.Contains(t, help, "ldap")
	assert.NotContains(t, help, "list-opts")
	assert.NotContains(t, help, "version")
}

func TestRunCustom(t *testing.T) {
	t.Setenv("QUOTAGATE_CLI_NO_COLOR", "1")

	var stdout, stderr bytes.Buffer
	code := RunCustom([]string{"version", "-format=json"}, &RunOptions{Stdout: &stdout, Stderr: &stderr})
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), `"Version"`)

	stdout.Reset()
	stderr.Reset()
	code = RunCustom([]string{"version", "-format=yaml"}, &RunOptions{Stdout: &stdout, Stderr: &stderr})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Invalid output format: yaml")
}
