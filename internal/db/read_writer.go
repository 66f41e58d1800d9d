// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package db

import (
	"context"
	"time"

	"github.com/hashicorp/go-dbw"
	"github.com/quotagate/quotagate/internal/errors"
)

const (
	NoRowsAffected = 0

	// DefaultLimit is the default for search results when no limit is
	// specified via the WithLimit(...) option
	DefaultLimit = 10000

	StdRetryCnt = 20
)

// Reader interface defines lookups/searching for resources
type Reader interface {
	// LookupById will lookup a resource by its primary key id, which must be
	// unique.
	LookupById(ctx context.Context, resourceWithIder any, opt ...Option) error

	// LookupWhere will lookup and return the first resource using a where
	// clause with parameters
	LookupWhere(ctx context.Context, resource any, where string, args []any, opt ...Option) error

	// SearchWhere will search for all the resources it can find using a where
	// clause with parameters. Supports the WithLimit option.  If
	// WithLimit < 0, then unlimited results are returned.  If WithLimit == 0, then
	// default limits are used for results.
	SearchWhere(ctx context.Context, resources any, where string, args []any, opt ...Option) error
}

// Writer interface defines create, delete and retryable transaction handlers
type Writer interface {
	// DoTx will wrap the TxHandler in a retryable transaction
	DoTx(ctx context.Context, retries uint, backOff Backoff, Handler TxHandler) (RetryInfo, error)

	// Create an object in the db. Supports the WithLookup option.
	Create(ctx context.Context, i any, opt ...Option) error

	// CreateItems will create multiple items of the same type.
	CreateItems(ctx context.Context, createItems any, opt ...Option) error

	// Delete an object in the db. Delete returns the number of rows deleted
	// or an error.
	Delete(ctx context.Context, i any, opt ...Option) (int, error)

	// Exec will execute the sql with the values as parameters. The int returned
	// is the number of rows affected by the sql.
	Exec(ctx context.Context, sql string, values []any, opt ...Option) (int, error)
}

// RetryInfo provides information on the retries of a transaction
type RetryInfo struct {
	Retries int
	Backoff time.Duration
}

// TxHandler defines a handler for a func that writes a transaction for use with DoTx
type TxHandler func(Reader, Writer) error

// Db uses a gorm DB connection for read/write
type Db struct {
	underlying *dbw.RW
}

// ensure that Db implements the interfaces of: Reader and Writer
var (
	_ Reader = (*Db)(nil)
	_ Writer = (*Db)(nil)
)

// New creates a read/writer over the DB
func New(underlying *DB) *Db {
	return &Db{underlying: dbw.New(underlying.wrapped)}
}

// Exec will execute the sql with the values as parameters. The int returned
// is the number of rows affected by the sql. No options are currently
// supported.
func (rw *Db) Exec(ctx context.Context, sql string, values []any, _ ...Option) (int, error) {
	const op = "db.Exec"
	if sql == "" {
		return NoRowsAffected, errors.New(ctx, errors.InvalidParameter, op, "missing sql")
	}
	n, err := rw.underlying.Exec(ctx, sql, values)
	if err != nil {
		return NoRowsAffected, errors.Wrap(ctx, err, op)
	}
	return n, nil
}

// Create an object in the db. Supports the WithLookup and WithTable options.
func (rw *Db) Create(ctx context.Context, i any, opt ...Option) error {
	const op = "db.Create"
	if i == nil {
		return errors.New(ctx, errors.InvalidParameter, op, "missing interface")
	}
	if err := rw.underlying.Create(ctx, i, dbwOpts(GetOpts(opt...))...); err != nil {
		return errors.Wrap(ctx, err, op)
	}
	return nil
}

// CreateItems will create multiple items of the same type. The createItems
// must be a slice.
func (rw *Db) CreateItems(ctx context.Context, createItems any, opt ...Option) error {
	const op = "db.CreateItems"
	if createItems == nil {
		return errors.New(ctx, errors.InvalidParameter, op, "missing items")
	}
	if err := rw.underlying.CreateItems(ctx, createItems, dbwOpts(GetOpts(opt...))...); err != nil {
		return errors.Wrap(ctx, err, op)
	}
	return nil
}

// Delete an object in the db. Delete returns the number of rows deleted or an
// error.
func (rw *Db) Delete(ctx context.Context, i any, opt ...Option) (int, error) {
	const op = "db.Delete"
	if i == nil {
		return NoRowsAffected, errors.New(ctx, errors.InvalidParameter, op, "missing interface")
	}
	n, err := rw.underlying.Delete(ctx, i, dbwOpts(GetOpts(opt...))...)
	if err != nil {
		return NoRowsAffected, errors.Wrap(ctx, err, op)
	}
	if n > 1 {
		return NoRowsAffected, errors.New(ctx, errors.MultipleRecords, op, "more than 1 resource would have been deleted")
	}
	return n, nil
}

// DoTx will wrap the Handler func passed within a transaction with retries
// you should ensure that any objects written to the db in your TxHandler are retryable, which
// means that the object may be sent to the db several times (retried), so things like the primary key must
// be reset before retry
func (rw *Db) DoTx(ctx context.Context, retries uint, backOff Backoff, handler TxHandler) (RetryInfo, error) {
	const op = "db.DoTx"
	if rw.underlying == nil {
		return RetryInfo{}, errors.New(ctx, errors.InvalidParameter, op, "missing underlying db")
	}
	if backOff == nil {
		return RetryInfo{}, errors.New(ctx, errors.InvalidParameter, op, "missing backoff")
	}
	if handler == nil {
		return RetryInfo{}, errors.New(ctx, errors.InvalidParameter, op, "missing handler")
	}
	info := RetryInfo{}
	for attempts := uint(1); ; attempts++ {
		if attempts > retries+1 {
			return info, errors.New(ctx, errors.MaxRetries, op, "too many retries")
		}

		// step one of this, start a transaction...
		newTx, err := rw.underlying.Begin(ctx)
		if err != nil {
			return info, errors.Wrap(ctx, err, op)
		}

		txRw := &Db{underlying: newTx}
		if err := handler(txRw, txRw); err != nil {
			if rollbackErr := newTx.Rollback(ctx); rollbackErr != nil {
				return info, errors.Wrap(ctx, rollbackErr, op)
			}
			if errors.IsConflictError(err) {
				d := backOff.Duration(attempts)
				info.Retries++
				info.Backoff = info.Backoff + d
				select {
				case <-ctx.Done():
					return info, errors.Wrap(ctx, ctx.Err(), op)
				case <-time.After(d):
				}
				continue
			}
			return info, errors.Wrap(ctx, err, op)
		}

		if err := newTx.Commit(ctx); err != nil {
			if rollbackErr := newTx.Rollback(ctx); rollbackErr != nil {
				return info, errors.Wrap(ctx, rollbackErr, op)
			}
			return info, errors.Wrap(ctx, err, op)
		}
		return info, nil // it all worked!!!
	}
}

// LookupById will lookup a resource by its primary key, which must be
// unique. Supports the WithTable option.
func (rw *Db) LookupById(ctx context.Context, resourceWithIder any, opt ...Option) error {
	const op = "db.LookupById"
	if err := rw.underlying.LookupBy(ctx, resourceWithIder, dbwOpts(GetOpts(opt...))...); err != nil {
		return errors.Wrap(ctx, err, op)
	}
	return nil
}

// LookupWhere will lookup the first resource using a where clause with
// parameters (it only returns the first one)
func (rw *Db) LookupWhere(ctx context.Context, resource any, where string, args []any, opt ...Option) error {
	const op = "db.LookupWhere"
	if err := rw.underlying.LookupWhere(ctx, resource, where, args, dbwOpts(GetOpts(opt...))...); err != nil {
		return errors.Wrap(ctx, err, op)
	}
	return nil
}

// SearchWhere will search for all the resources it can find using a where
// clause with parameters. An error will be returned if args are provided
// without a where clause.
//
// Supports the WithLimit option.  If WithLimit < 0, then unlimited results are returned.
// If WithLimit == 0, then default limits are used for results.
// Supports the WithOrder and WithDebug options.
func (rw *Db) SearchWhere(ctx context.Context, resources any, where string, args []any, opt ...Option) error {
	const op = "db.SearchWhere"
	if where == "" && len(args) > 0 {
		return errors.New(ctx, errors.InvalidParameter, op, "args provided with empty where")
	}
	if err := rw.underlying.SearchWhere(ctx, resources, where, args, dbwOpts(GetOpts(opt...))...); err != nil {
		return errors.Wrap(ctx, err, op)
	}
	return nil
}
