package migrate

import (
	"context"
	"database/sql"
	"strings"
)

const RatingIndexVersion = "20250801000000_rating_index"

// CreateRatingIndex indexes the rating column used by range partition builds.
type CreateRatingIndex struct{}

func (m *CreateRatingIndex) Version() string {
	return RatingIndexVersion
}

func (m *CreateRatingIndex) Up(ctx context.Context, tx *sql.Tx, d Dialect, table string) error {
	_, err := tx.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS "+indexName(table)+" ON "+table+" (rating)")
	return err
}

func (m *CreateRatingIndex) Down(ctx context.Context, tx *sql.Tx, d Dialect, table string) error {
	_, err := tx.ExecContext(ctx, "DROP INDEX IF EXISTS "+indexName(table))
	return err
}

// indexName derives the index name from the quoted table name.
func indexName(quotedTable string) string {
	return `"idx_` + strings.Trim(quotedTable, `"`) + `_rating"`
}
