// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-dbw"
	"github.com/quotagate/quotagate/internal/db/schema"
)

// TestSetup initializes a migrated database for the test. sqlite backed by
// a file in the test's temp dir is used unless DB_DIALECT=postgres and DB_DSN
// are set. Do not close the returned db.
func TestSetup(t *testing.T) (*DB, string) {
	t.Helper()
	dialect := Sqlite.String()
	if strings.ToLower(os.Getenv("DB_DIALECT")) == Postgres.String() {
		dialect = Postgres.String()
	}
	conn, url := dbw.TestSetup(
		t,
		dbw.WithTestDialect(dialect),
		dbw.WithTestDatabaseUrl(fmt.Sprintf("file:%s?_fk=1", filepath.Join(t.TempDir(), "quotagate.db"))),
		dbw.WithTestMigrationUsingDB(func(ctx context.Context, db *sql.DB) error {
			_, err := schema.MigrateStore(ctx, dialect, db)
			return err
		}),
	)
	return &DB{wrapped: conn}, url
}
