// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hashicorp/go-dbw"
	"github.com/quotagate/quotagate/internal/errors"
)

func init() {
	dbw.InitNonCreatableFields([]string{"CreateTime", "UpdateTime"})
	dbw.InitNonUpdatableFields([]string{"Id", "CreateTime", "UpdateTime"})
}

// DbType defines a database type.
type DbType int

const (
	UnknownDB DbType = 0
	Postgres  DbType = 1
	Sqlite    DbType = 2
)

func (db DbType) String() string {
	return [...]string{
		"unknown",
		"postgres",
		"sqlite",
	}[db]
}

// StringToDbType provides a string to type conversion.  If the type is
// unknown, then UnknownDB with an error is returned.
func StringToDbType(dialect string) (DbType, error) {
	const op = "db.StringToDbType"
	switch strings.ToLower(dialect) {
	case "postgres":
		return Postgres, nil
	case "sqlite":
		return Sqlite, nil
	default:
		return UnknownDB, errors.New(context.TODO(), errors.InvalidParameter, op, dialect+" is an unknown dialect")
	}
}

// DB is a wrapper around the ORM
type DB struct {
	wrapped *dbw.DB
}

// Open a database connection which is long-lived. The options of
// WithMaxOpenConnections, WithMaxIdleConnections and WithGormFormatter are
// supported.
//
// Note: Consider if you need to call Close() on the returned DB. Typically the
// answer is no, but there are occasions when it's necessary. See the sql.DB
// docs for more information.
func Open(ctx context.Context, dbType DbType, connectionUrl string, opt ...Option) (*DB, error) {
	const op = "db.Open"
	var typ dbw.DbType
	switch dbType {
	case Postgres:
		typ = dbw.Postgres
	case Sqlite:
		typ = dbw.Sqlite
	default:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "unable to open "+dbType.String()+" database type")
	}

	opts := GetOpts(opt...)
	var dbwOpts []dbw.Option
	if opts.withMaxOpenConnections > 0 {
		dbwOpts = append(dbwOpts, dbw.WithMaxOpenConnections(opts.withMaxOpenConnections))
	}
	if opts.withGormFormatter != nil {
		dbwOpts = append(dbwOpts, dbw.WithLogger(opts.withGormFormatter), dbw.WithLogLevel(dbw.Error))
	}
	wrapped, err := dbw.Open(typ, connectionUrl, dbwOpts...)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithMsg("unable to open database"))
	}
	if opts.withMaxIdleConnections != nil {
		sqlDb, err := wrapped.SqlDB(ctx)
		if err != nil {
			return nil, errors.Wrap(ctx, err, op)
		}
		sqlDb.SetMaxIdleConns(*opts.withMaxIdleConnections)
	}
	return &DB{wrapped: wrapped}, nil
}

// DbType returns the dialect of the open connection.
func (d *DB) DbType() (DbType, error) {
	const op = "db.(DB).DbType"
	typ, _, err := d.wrapped.DbType()
	if err != nil {
		return UnknownDB, errors.Wrap(context.TODO(), err, op)
	}
	return StringToDbType(typ.String())
}

// SqlDB returns the underlying sql.DB
//
// Note: this makes it possible to do things like set database/sql connection
// options like SetMaxIdleConns. If you're simply setting max/min connections
// then you should use the WithMaxOpenConnections option when "opening" the
// database.
func (d *DB) SqlDB(ctx context.Context) (*sql.DB, error) {
	const op = "db.(DB).SqlDB"
	if d.wrapped == nil {
		return nil, errors.New(ctx, errors.Internal, op, "missing underlying database")
	}
	sqlDb, err := d.wrapped.SqlDB(ctx)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	return sqlDb, nil
}

// Close the underlying sql.DB
func (d *DB) Close(ctx context.Context) error {
	const op = "db.(DB).Close"
	if d.wrapped == nil {
		return errors.New(ctx, errors.Internal, op, "missing underlying database")
	}
	if err := d.wrapped.Close(ctx); err != nil {
		return errors.Wrap(ctx, err, op)
	}
	return nil
}
