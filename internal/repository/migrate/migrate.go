// Package migrate holds the schema migrations for the ratings table.
//
// Migrations are idempotent: Up uses IF NOT EXISTS and Down uses IF EXISTS,
// so running them again after a partial failure is safe. The table name is
// supplied at run time because it is configurable.
package migrate

import (
	"context"
	"database/sql"
)

// Dialect is the subset of the store dialect migrations need.
type Dialect interface {
	SerialPrimaryKey() string
	IntegerType() string
	FloatType() string
	DropTableStatement(quoted string) string
}

// Migration is one reversible schema step.
type Migration interface {
	Version() string
	Up(ctx context.Context, tx *sql.Tx, d Dialect, table string) error
	Down(ctx context.Context, tx *sql.Tx, d Dialect, table string) error
}

// All returns the migrations in the order they must be applied.
func All() []Migration {
	return []Migration{
		&CreateRatingsTable{},
		&CreateRatingIndex{},
	}
}
