package service

import (
	"context"

	"github.com/zzenonn/ratepart/internal/domain"
	"github.com/zzenonn/ratepart/internal/placement"
	"github.com/zzenonn/ratepart/internal/repository/db"
)

// Session is the set of store operations available inside a transaction.
type Session interface {
	CountTables(ctx context.Context, prefix string) (int, error)
	ListTables(ctx context.Context, prefix string) ([]string, error)
	CountRows(ctx context.Context, table string) (int64, error)
	CreatePartitionTable(ctx context.Context, table string) error
	DropTable(ctx context.Context, table string) error
	DropAll(ctx context.Context) ([]string, error)
	LockTable(ctx context.Context, table string) error
	InsertRating(ctx context.Context, table string, r domain.Rating) error
	BulkInsert(ctx context.Context, table string, src domain.RatingReader) (int64, error)
	CopyRange(ctx context.Context, src, dst string, iv placement.Interval) (int64, error)
	CopyRoundRobin(ctx context.Context, src, dst string, n, index int) (int64, error)
}

// Store runs work in transactions. Everything done through the Session
// handed to fn commits together or not at all.
type Store interface {
	InTx(ctx context.Context, fn func(Session) error) error
	MigrateDb(ctx context.Context, ratingsTable string) error
}

type dbStore struct {
	db *db.Database
}

// NewStore adapts an open database to the Store interface.
func NewStore(database *db.Database) Store {
	return &dbStore{db: database}
}

func (s *dbStore) InTx(ctx context.Context, fn func(Session) error) error {
	return s.db.InTx(ctx, func(sess *db.Session) error {
		return fn(sess)
	})
}

func (s *dbStore) MigrateDb(ctx context.Context, ratingsTable string) error {
	return s.db.MigrateDb(ctx, ratingsTable)
}
