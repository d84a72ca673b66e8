package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

const RatingsTableVersion = "20250731000000_ratings_table"

// CreateRatingsTable creates the main ratings table. seq records insertion
// order and is what round-robin ordinals are numbered by.
type CreateRatingsTable struct{}

func (m *CreateRatingsTable) Version() string {
	return RatingsTableVersion
}

func (m *CreateRatingsTable) Up(ctx context.Context, tx *sql.Tx, d Dialect, table string) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		seq %s,
		userid %s NOT NULL,
		itemid %s NOT NULL,
		rating %s NOT NULL CHECK (rating >= 0 AND rating <= 5)
	)`, table, d.SerialPrimaryKey(), d.IntegerType(), d.IntegerType(), d.FloatType())

	_, err := tx.ExecContext(ctx, ddl)
	return err
}

func (m *CreateRatingsTable) Down(ctx context.Context, tx *sql.Tx, d Dialect, table string) error {
	_, err := tx.ExecContext(ctx, d.DropTableStatement(table))
	return err
}
