// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/mitchellh/cli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/quotagate/quotagate/internal/cmd/base"
	"github.com/quotagate/quotagate/internal/db"
	"github.com/quotagate/quotagate/internal/requests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func testServerCommand(t *testing.T) (*Command, *cli.MockUi) {
	t.Helper()
	ui := cli.NewMockUi()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cmd := &Command{
		Server: base.NewServer(&base.Command{
			UI:         ui,
			Context:    ctx,
			ShutdownCh: make(chan struct{}),
		}),
		SighupCh:   make(chan struct{}),
		startedCh:  make(chan struct{}),
		reloadedCh: make(chan struct{}, 5),
	}
	cmd.PrometheusRegisterer = prometheus.NewRegistry()
	return cmd, ui
}

func TestServer_Dev(t *testing.T) {
	cmd, ui := testServerCommand(t)

	codeCh := make(chan int, 1)
	go func() {
		codeCh <- cmd.Run([]string{"-dev", "-dev-api-listen-address=127.0.0.1:0"})
	}()

	select {
	case <-cmd.startedCh:
	case code := <-codeCh:
		t.Fatalf("server exited early with code %d: %s", code, ui.ErrorWriter.String())
	case <-time.After(15 * time.Second):
		t.Fatal("timeout waiting for server to start")
	}

	require.Len(t, cmd.Listeners, 1)
	addr := fmt.Sprintf("http://%s/v3/limits/model", cmd.Listeners[0].ApiListener.Addr().String())
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, addr, nil)
	require.NoError(t, err)
	req.Header.Set(requests.HeaderIdentityStatus, "Confirmed")
	req.Header.Set(requests.HeaderUserId, "u-1")
	req.Header.Set(requests.HeaderProjectId, "p-1")
	req.Header.Set(requests.HeaderRoles, "member")
	resp, err := cleanhttp.DefaultClient().Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cmd.SighupCh <- struct{}{}
	select {
	case <-cmd.reloadedCh:
	case <-time.After(15 * time.Second):
		t.Fatal("timeout waiting for reload")
	}

	close(cmd.ShutdownCh)
	select {
	case code := <-codeCh:
		assert.Equal(t, base.CommandSuccess, code, ui.ErrorWriter.String())
	case <-time.After(15 * time.Second):
		t.Fatal("timeout waiting for shutdown")
	}
	assert.Contains(t, ui.OutputWriter.String(), "Quotagate server started")
}

func TestServer_ConfigErrors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		preset    string
		wantCode  int
		wantError string
	}{
		{
			name:      "no-config",
			wantCode:  base.CommandUserError,
			wantError: "Must specify a config file using -config",
		},
		{
			name:      "missing-file",
			args:      []string{"-config", filepath.Join(t.TempDir(), "missing.hcl")},
			wantCode:  base.CommandUserError,
			wantError: "Error parsing config",
		},
		{
			name: "no-controller",
			preset: `
disable_mlock = true
listener "tcp" {
	purpose = "api"
}
`,
			wantCode:  base.CommandUserError,
			wantError: `"controller" config block not found`,
		},
		{
			name: "unknown-purpose",
			preset: `
disable_mlock = true
controller {
	name = "c1"
}
listener "tcp" {
	purpose = "cluster"
}
`,
			wantCode:  base.CommandUserError,
			wantError: `Unknown listener purpose "cluster"`,
		},
		{
			name: "no-database",
			preset: `
disable_mlock = true
controller {
	name = "c1"
}
listener "tcp" {
	purpose = "api"
	address = "127.0.0.1:0"
	tls_disable = true
}
`,
			wantCode:  base.CommandUserError,
			wantError: `"database" config block not found`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ui := testServerCommand(t)
			if tt.preset != "" {
				cmd.presetConfig = atomic.NewString(tt.preset)
			}
			code := cmd.Run(tt.args)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, ui.ErrorWriter.String(), tt.wantError)
		})
	}
}

func TestVerifyDatabaseState(t *testing.T) {
	ctx := context.Background()

	err := verifyDatabaseState(ctx, nil)
	assert.ErrorContains(t, err, "nil database")

	url := fmt.Sprintf("file:%s?_fk=1", filepath.Join(t.TempDir(), "empty.db"))
	empty, err := db.Open(ctx, db.Sqlite, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = empty.Close(ctx) })
	err = verifyDatabaseState(ctx, empty)
	assert.ErrorContains(t, err, "has not been initialized")

	migrated, _ := db.TestSetup(t)
	assert.NoError(t, verifyDatabaseState(ctx, migrated))
}
