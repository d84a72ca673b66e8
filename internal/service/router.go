package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/ratepart/internal/domain"
	apperrors "github.com/zzenonn/ratepart/internal/errors"
	"github.com/zzenonn/ratepart/internal/placement"
)

// Placement reports where a routed row ended up. Ordinal is the row's 1-based
// position in the ratings table and is only set for round-robin inserts.
type Placement struct {
	Table   string
	Index   int
	Ordinal int64
}

// PartitionRouter appends single rows to the ratings table and to the
// partition the scheme assigns them to.
type PartitionRouter struct {
	store        Store
	ratingsTable string
}

func NewPartitionRouter(store Store, ratingsTable string) *PartitionRouter {
	return &PartitionRouter{store: store, ratingsTable: ratingsTable}
}

// Insert routes rec under kind. The partition count is read from the store
// inside the same transaction that writes the row. hint, when positive, is
// the count the caller expects; a different count fails with
// ErrPartitionCountMismatch.
func (r *PartitionRouter) Insert(ctx context.Context, kind placement.Kind, hint int, rec domain.Rating) (Placement, error) {
	if err := rec.Validate(); err != nil {
		return Placement{}, err
	}
	prefix, err := prefixOf(kind)
	if err != nil {
		return Placement{}, err
	}
	if hint < 0 {
		return Placement{}, fmt.Errorf("%w: got %d", apperrors.ErrDegeneratePartitioning, hint)
	}

	var placed Placement
	err = r.store.InTx(ctx, func(s Session) error {
		// Holding the lock until commit makes the count below and the
		// ordinal of the new row stable against concurrent inserts.
		if err := s.LockTable(ctx, r.ratingsTable); err != nil {
			return err
		}

		n, err := s.CountTables(ctx, prefix)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrNoPartitionsExist, kind)
		}
		if hint > 0 && hint != n {
			return fmt.Errorf("%w: expected %d, found %d", apperrors.ErrPartitionCountMismatch, hint, n)
		}

		scheme, err := placement.NewScheme(kind, n)
		if err != nil {
			return err
		}

		if err := s.InsertRating(ctx, r.ratingsTable, rec); err != nil {
			return err
		}

		var ordinal int64
		if kind == placement.KindRoundRobin {
			ordinal, err = s.CountRows(ctx, r.ratingsTable)
			if err != nil {
				return err
			}
		}

		idx, err := scheme.Place(rec, ordinal)
		if err != nil {
			return err
		}
		table := scheme.TableName(idx)
		if err := s.InsertRating(ctx, table, rec); err != nil {
			return err
		}

		placed = Placement{Table: table, Index: idx, Ordinal: ordinal}
		return nil
	})
	if err != nil {
		return Placement{}, err
	}

	log.Debugf("Routed rating %v for user %d item %d to %s", rec.Rating, rec.UserID, rec.ItemID, placed.Table)
	return placed, nil
}
