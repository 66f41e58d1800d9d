// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"encoding/json"
	"testing"

	"github.com/mitchellh/cli"
	"github.com/quotagate/quotagate/internal/cmd/base"
	"github.com/quotagate/quotagate/internal/conf/ldap"
	"github.com/quotagate/quotagate/internal/conf/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListOptsCommand(format string) (*ListOptsCommand, *cli.MockUi) {
	mock := cli.NewMockUi()
	ui := &base.QuotagateUI{Ui: mock, Format: format}
	return &ListOptsCommand{Command: base.NewCommand(ui)}, mock
}

func TestListOpts_Table(t *testing.T) {
	cmd, ui := newListOptsCommand("table")
	require.Equal(t, base.CommandSuccess, cmd.Run([]string{"-group", ldap.GroupName}))

	out := ui.OutputWriter.String()
	assert.Contains(t, out, "Group")
	assert.Contains(t, out, "ldap://localhost")
	assert.Contains(t, out, "user_tree_dn")
	assert.Contains(t, out, "<redacted>")
	assert.NotContains(t, out, "enforcement_model")
}

func TestListOpts_Json(t *testing.T) {
	cmd, ui := newListOptsCommand("json")
	require.Equal(t, base.CommandSuccess, cmd.Run(nil))

	var got []optInfo
	require.NoError(t, json.Unmarshal(ui.OutputWriter.Bytes(), &got))

	var want int
	for _, o := range opts.ListOpts() {
		want += len(o)
	}
	assert.Len(t, got, want)

	byName := map[string]optInfo{}
	for _, o := range got {
		byName[o.Group+"."+o.Name] = o
	}
	pw, ok := byName["ldap.password"]
	require.True(t, ok)
	assert.True(t, pw.Secret)
	assert.Nil(t, pw.Default)
	assert.Equal(t, "ldap://localhost", byName["ldap.url"].Default)
}

func TestListOpts_UnknownGroup(t *testing.T) {
	cmd, ui := newListOptsCommand("table")
	assert.Equal(t, base.CommandUserError, cmd.Run([]string{"-group", "nope"}))
	assert.Contains(t, ui.ErrorWriter.String(), `Unknown option group "nope"`)
}
