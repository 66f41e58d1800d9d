// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

// Package schema holds the embedded database migrations and applies them
// with golang-migrate.
package schema

import (
	"context"
	"database/sql"
	"embed"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/quotagate/quotagate/internal/errors"
)

//go:embed migrations
var migrationFiles embed.FS

// State reports the schema version recorded in the database.
type State struct {
	Version     uint
	Dirty       bool
	Initialized bool
}

// MigrateStore applies every pending migration for the dialect to db. It
// returns true if migrations actually ran; false if the schema was already
// current.
func MigrateStore(ctx context.Context, dialect string, db *sql.DB) (bool, error) {
	const op = "schema.MigrateStore"
	m, err := newMigrate(ctx, dialect, db)
	if err != nil {
		return false, errors.Wrap(ctx, err, op)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, errors.Wrap(ctx, err, op, errors.WithCode(errors.MigrationIntegrity))
	}
	return true, nil
}

// CurrentState returns the migration version of db.
func CurrentState(ctx context.Context, dialect string, db *sql.DB) (*State, error) {
	const op = "schema.CurrentState"
	m, err := newMigrate(ctx, dialect, db)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return &State{}, nil
	case err != nil:
		return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.MigrationIntegrity))
	}
	return &State{Version: v, Dirty: dirty, Initialized: true}, nil
}

func newMigrate(ctx context.Context, dialect string, db *sql.DB) (*migrate.Migrate, error) {
	const op = "schema.newMigrate"
	if db == nil {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing db")
	}
	var (
		driver database.Driver
		err    error
	)
	switch dialect {
	case "postgres":
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case "sqlite":
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "unsupported dialect: "+dialect)
	}
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithMsg("unable to create migration driver"))
	}
	source, err := iofs.New(migrationFiles, path.Join("migrations", dialect))
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithMsg("unable to load migrations"))
	}
	m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithMsg("unable to create migrations"))
	}
	return m, nil
}
