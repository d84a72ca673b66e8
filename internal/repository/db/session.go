package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/ratepart/internal/domain"
	apperrors "github.com/zzenonn/ratepart/internal/errors"
	"github.com/zzenonn/ratepart/internal/placement"
)

// Session runs statements inside one open transaction. It is only valid for
// the duration of the InTx callback that received it.
type Session struct {
	tx      *sql.Tx
	dialect Dialect
}

// CountTables returns how many tables have a name starting with prefix.
func (s *Session) CountTables(ctx context.Context, prefix string) (int, error) {
	var n int
	err := s.tx.QueryRowContext(ctx, s.dialect.CountTablesQuery(), likePrefix(prefix)).Scan(&n)
	if err != nil {
		return 0, apperrors.NewStoreError("count tables", err)
	}
	return n, nil
}

// ListTables returns the names of tables starting with prefix, sorted. An
// empty prefix lists every user table.
func (s *Session) ListTables(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.tx.QueryContext(ctx, s.dialect.ListTablesQuery(), likePrefix(prefix))
	if err != nil {
		return nil, apperrors.NewStoreError("list tables", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewStoreError("list tables", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("list tables", err)
	}
	return names, nil
}

// CountRows returns the number of rows in table.
func (s *Session) CountRows(ctx context.Context, table string) (int64, error) {
	quoted, err := quoteIdentifier(table)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.tx.QueryRowContext(ctx, "SELECT count(*) FROM "+quoted).Scan(&n); err != nil {
		return 0, apperrors.NewStoreError("count rows in "+table, err)
	}
	return n, nil
}

// CreatePartitionTable creates an empty partition table. It fails if the table
// already exists.
func (s *Session) CreatePartitionTable(ctx context.Context, table string) error {
	quoted, err := quoteIdentifier(table)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (userid %s NOT NULL, itemid %s NOT NULL, rating %s NOT NULL)",
		quoted, s.dialect.IntegerType(), s.dialect.IntegerType(), s.dialect.FloatType())
	if _, err := s.tx.ExecContext(ctx, stmt); err != nil {
		return apperrors.NewStoreError("create "+table, err)
	}
	log.Debugf("Created partition table %s", table)
	return nil
}

// DropTable drops table if it exists.
func (s *Session) DropTable(ctx context.Context, table string) error {
	quoted, err := quoteIdentifier(table)
	if err != nil {
		return err
	}
	if _, err := s.tx.ExecContext(ctx, s.dialect.DropTableStatement(quoted)); err != nil {
		return apperrors.NewStoreError("drop "+table, err)
	}
	log.Debugf("Dropped table %s", table)
	return nil
}

// DropAll drops every user table in the store and returns their names.
func (s *Session) DropAll(ctx context.Context) ([]string, error) {
	names, err := s.ListTables(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := s.DropTable(ctx, name); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// LockTable blocks other writers on table until the transaction ends.
func (s *Session) LockTable(ctx context.Context, table string) error {
	quoted, err := quoteIdentifier(table)
	if err != nil {
		return err
	}
	stmt := s.dialect.LockTableStatement(quoted)
	if stmt == "" {
		return nil
	}
	if _, err := s.tx.ExecContext(ctx, stmt); err != nil {
		return apperrors.NewStoreError("lock "+table, err)
	}
	return nil
}

// InsertRating appends one row to table.
func (s *Session) InsertRating(ctx context.Context, table string, r domain.Rating) error {
	quoted, err := quoteIdentifier(table)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("INSERT INTO %s (userid, itemid, rating) VALUES (%s, %s, %s)",
		quoted, s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3))
	if _, err := s.tx.ExecContext(ctx, stmt, r.UserID, r.ItemID, r.Rating); err != nil {
		return apperrors.NewStoreError("insert into "+table, err)
	}
	return nil
}

// BulkInsert streams every record from src into table.
func (s *Session) BulkInsert(ctx context.Context, table string, src domain.RatingReader) (int64, error) {
	if err := ValidateIdentifier(table); err != nil {
		return 0, err
	}
	n, err := s.dialect.BulkInsert(ctx, s.tx, table, src)
	if errors.Is(err, apperrors.ErrMalformedRecord) || errors.Is(err, apperrors.ErrRatingOutOfRange) {
		return n, err
	}
	if err != nil {
		return n, apperrors.NewStoreError("bulk insert into "+table, err)
	}
	return n, nil
}

// CopyRange copies the rows of src whose rating falls in iv into dst.
func (s *Session) CopyRange(ctx context.Context, src, dst string, iv placement.Interval) (int64, error) {
	qsrc, qdst, err := quotePair(src, dst)
	if err != nil {
		return 0, err
	}
	lowOp := ">"
	if iv.LowClosed {
		lowOp = ">="
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (userid, itemid, rating) SELECT userid, itemid, rating FROM %s WHERE rating %s %s AND rating <= %s",
		qdst, qsrc, lowOp, s.dialect.Placeholder(1), s.dialect.Placeholder(2))
	res, err := s.tx.ExecContext(ctx, stmt, iv.Low, iv.High)
	if err != nil {
		return 0, apperrors.NewStoreError("populate "+dst, err)
	}
	return rowsAffected(res, dst)
}

// CopyRoundRobin copies every n-th row of src, in seq order, starting at the
// row with 0-based position index, into dst.
func (s *Session) CopyRoundRobin(ctx context.Context, src, dst string, n, index int) (int64, error) {
	qsrc, qdst, err := quotePair(src, dst)
	if err != nil {
		return 0, err
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (userid, itemid, rating)
		SELECT userid, itemid, rating FROM (
			SELECT userid, itemid, rating, ROW_NUMBER() OVER (ORDER BY seq) AS rnum FROM %s
		) numbered
		WHERE (rnum - 1) %% %s = %s`,
		qdst, qsrc, s.dialect.Placeholder(1), s.dialect.Placeholder(2))
	res, err := s.tx.ExecContext(ctx, stmt, n, index)
	if err != nil {
		return 0, apperrors.NewStoreError("populate "+dst, err)
	}
	return rowsAffected(res, dst)
}

func quotePair(a, b string) (string, string, error) {
	qa, err := quoteIdentifier(a)
	if err != nil {
		return "", "", err
	}
	qb, err := quoteIdentifier(b)
	if err != nil {
		return "", "", err
	}
	return qa, qb, nil
}

func rowsAffected(res sql.Result, table string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.NewStoreError("rows affected for "+table, err)
	}
	return n, nil
}
