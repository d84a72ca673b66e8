package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/lib/pq"

	"github.com/zzenonn/ratepart/internal/config"
	"github.com/zzenonn/ratepart/internal/domain"
	apperrors "github.com/zzenonn/ratepart/internal/errors"
)

// Dialect hides the SQL differences between the supported stores.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	SerialPrimaryKey() string
	IntegerType() string
	FloatType() string
	// ListTablesQuery selects table names matching a LIKE pattern bound to
	// the first placeholder.
	ListTablesQuery() string
	CountTablesQuery() string
	// LockTableStatement returns the statement that serialises writers on
	// table for the rest of the transaction, or "" when the store already
	// does so.
	LockTableStatement(quoted string) string
	DropTableStatement(quoted string) string
	BulkInsert(ctx context.Context, tx *sql.Tx, table string, src domain.RatingReader) (int64, error)
}

// DialectFor returns the dialect of a configured driver.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverPostgres:
		return postgresDialect{}, nil
	case config.DriverSQLite:
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedDriver, driver)
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string             { return config.DriverPostgres }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresDialect) SerialPrimaryKey() string { return "BIGSERIAL PRIMARY KEY" }
func (postgresDialect) IntegerType() string      { return "BIGINT" }
func (postgresDialect) FloatType() string        { return "DOUBLE PRECISION" }
func (postgresDialect) DropTableStatement(q string) string {
	return "DROP TABLE IF EXISTS " + q + " CASCADE"
}

func (postgresDialect) ListTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		AND table_name LIKE $1 ESCAPE '\'
		ORDER BY table_name`
}

func (postgresDialect) CountTablesQuery() string {
	return `SELECT count(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		AND table_name LIKE $1 ESCAPE '\'`
}

// SHARE ROW EXCLUSIVE conflicts with itself, so two routers inserting into
// the same table queue up while plain readers are unaffected.
func (postgresDialect) LockTableStatement(q string) string {
	return "LOCK TABLE " + q + " IN SHARE ROW EXCLUSIVE MODE"
}

// BulkInsert streams rows through COPY FROM STDIN.
func (postgresDialect) BulkInsert(ctx context.Context, tx *sql.Tx, table string, src domain.RatingReader) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, "userid", "itemid", "rating"))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare copy: %w", err)
	}
	defer stmt.Close()

	var n int64
	for {
		r, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, err
		}
		if _, err := stmt.ExecContext(ctx, r.UserID, r.ItemID, r.Rating); err != nil {
			return n, fmt.Errorf("failed to copy row %d: %w", n+1, err)
		}
		n++
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return n, fmt.Errorf("failed to flush copy: %w", err)
	}
	return n, nil
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string             { return config.DriverSQLite }
func (sqliteDialect) Placeholder(int) string   { return "?" }
func (sqliteDialect) SerialPrimaryKey() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }
func (sqliteDialect) IntegerType() string      { return "INTEGER" }
func (sqliteDialect) FloatType() string        { return "REAL" }
func (sqliteDialect) DropTableStatement(q string) string {
	return "DROP TABLE IF EXISTS " + q
}

func (sqliteDialect) ListTablesQuery() string {
	return `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		AND name LIKE ? ESCAPE '\'
		ORDER BY name`
}

func (sqliteDialect) CountTablesQuery() string {
	return `SELECT count(*) FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		AND name LIKE ? ESCAPE '\'`
}

// Writers are already serialised: transactions start with BEGIN IMMEDIATE
// and the pool holds a single connection.
func (sqliteDialect) LockTableStatement(string) string { return "" }

func (sqliteDialect) BulkInsert(ctx context.Context, tx *sql.Tx, table string, src domain.RatingReader) (int64, error) {
	quoted, err := quoteIdentifier(table)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+quoted+" (userid, itemid, rating) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for {
		r, err := src.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if _, err := stmt.ExecContext(ctx, r.UserID, r.ItemID, r.Rating); err != nil {
			return n, fmt.Errorf("failed to insert row %d: %w", n+1, err)
		}
		n++
	}
}
