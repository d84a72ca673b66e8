package service

import (
	"context"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DropAllTarget makes DeleteTables drop every table in the store.
const DropAllTarget = "all"

// RatingsService loads the ratings table and removes tables.
type RatingsService struct {
	store        Store
	ratingsTable string
}

// NewRatingsService creates a new RatingsService instance
func NewRatingsService(store Store, ratingsTable string) *RatingsService {
	return &RatingsService{store: store, ratingsTable: ratingsTable}
}

// LoadRatings creates the ratings table if needed and appends every record
// read from r. Either all records are loaded or none are.
func (s *RatingsService) LoadRatings(ctx context.Context, r io.Reader) (int64, error) {
	if err := s.store.MigrateDb(ctx, s.ratingsTable); err != nil {
		return 0, err
	}

	var n int64
	err := s.store.InTx(ctx, func(sess Session) error {
		var err error
		n, err = sess.BulkInsert(ctx, s.ratingsTable, NewRatingsFileReader(r))
		return err
	})
	if err != nil {
		return 0, err
	}

	log.Infof("Loaded %d ratings into %s", n, s.ratingsTable)
	return n, nil
}

// DeleteTables drops target, or every table when target is "all". It returns
// the names of the dropped tables.
func (s *RatingsService) DeleteTables(ctx context.Context, target string) ([]string, error) {
	var dropped []string
	err := s.store.InTx(ctx, func(sess Session) error {
		if strings.EqualFold(target, DropAllTarget) {
			names, err := sess.DropAll(ctx)
			dropped = names
			return err
		}
		if err := sess.DropTable(ctx, target); err != nil {
			return err
		}
		dropped = []string{target}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("Dropped %d tables", len(dropped))
	return dropped, nil
}
