package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/zzenonn/ratepart/internal/config"
	apperrors "github.com/zzenonn/ratepart/internal/errors"
	"github.com/zzenonn/ratepart/internal/repository/migrate"
)

// Database is an open handle on the relational store. It is created once by
// the caller and passed explicitly to whatever needs it.
type Database struct {
	Client  *sql.DB
	Dialect Dialect
}

// NewDatabase opens the configured store and verifies the connection.
func NewDatabase(ctx context.Context, cfg *config.Config) (*Database, error) {
	return Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
}

// Open connects to dsn using driver ("postgres" or "sqlite").
func Open(ctx context.Context, driver, dsn string) (*Database, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	if driver == config.DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	client, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, apperrors.NewStoreError("open", err)
	}

	if driver == config.DriverSQLite {
		// One connection keeps a single writer and lets ":memory:" databases
		// survive across statements.
		client.SetMaxOpenConns(1)
	}

	if err := client.PingContext(ctx); err != nil {
		client.Close()
		return nil, apperrors.NewStoreError("ping", err)
	}

	log.Debugf("Connected to %s store", driver)
	return &Database{Client: client, Dialect: dialect}, nil
}

// sqliteDSN makes every transaction take the write lock up front.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_txlock=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_txlock=immediate"
}

// Close releases the connection pool.
func (d *Database) Close() error {
	return d.Client.Close()
}

// InTx runs fn inside a transaction. fn's error, or a failed commit, rolls the
// transaction back; store failures come back as *errors.StoreError.
func (d *Database) InTx(ctx context.Context, fn func(*Session) error) error {
	tx, err := d.Client.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreError("begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Session{tx: tx, dialect: d.Dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Warnf("Rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreError("commit", err)
	}
	return nil
}

// MigrateDb applies every migration for the ratings table.
func (d *Database) MigrateDb(ctx context.Context, ratingsTable string) error {
	quoted, err := quoteIdentifier(ratingsTable)
	if err != nil {
		return err
	}

	return d.InTx(ctx, func(s *Session) error {
		for _, m := range migrate.All() {
			log.Debugf("Applying migration %s to %s", m.Version(), ratingsTable)
			if err := m.Up(ctx, s.tx, d.Dialect, quoted); err != nil {
				return apperrors.NewStoreError("migrate "+m.Version(), err)
			}
		}
		return nil
	})
}

// MigrateDown reverts every migration for the ratings table, newest first.
func (d *Database) MigrateDown(ctx context.Context, ratingsTable string) error {
	quoted, err := quoteIdentifier(ratingsTable)
	if err != nil {
		return err
	}

	return d.InTx(ctx, func(s *Session) error {
		all := migrate.All()
		for i := len(all) - 1; i >= 0; i-- {
			m := all[i]
			log.Debugf("Reverting migration %s on %s", m.Version(), ratingsTable)
			if err := m.Down(ctx, s.tx, d.Dialect, quoted); err != nil {
				return apperrors.NewStoreError("revert "+m.Version(), err)
			}
		}
		return nil
	})
}

// EnsureDatabase creates the target postgres database when it does not exist
// yet. It connects to the "postgres" maintenance database to do so. sqlite
// creates its file on open, so nothing is done for it.
func EnsureDatabase(ctx context.Context, driver, dsn string) (bool, error) {
	if driver != config.DriverPostgres {
		return false, nil
	}

	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return false, fmt.Errorf("database url must be a postgres:// URL: %q", dsn)
	}
	name := strings.TrimPrefix(u.Path, "/")
	quoted, err := quoteIdentifier(name)
	if err != nil {
		return false, err
	}

	admin := *u
	admin.Path = "/postgres"
	client, err := sql.Open(config.DriverPostgres, admin.String())
	if err != nil {
		return false, apperrors.NewStoreError("open", err)
	}
	defer client.Close()

	var count int
	err = client.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pg_catalog.pg_database WHERE datname = $1", name).Scan(&count)
	if err != nil {
		return false, apperrors.NewStoreError("lookup database", err)
	}
	if count > 0 {
		log.Infof("A database named %s already exists", name)
		return false, nil
	}

	// CREATE DATABASE cannot run inside a transaction block.
	if _, err := client.ExecContext(ctx, "CREATE DATABASE "+quoted); err != nil {
		return false, apperrors.NewStoreError("create database", err)
	}
	log.Infof("Created database %s", name)
	return true, nil
}
