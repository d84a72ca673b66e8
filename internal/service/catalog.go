package service

import (
	"context"
	"fmt"

	apperrors "github.com/zzenonn/ratepart/internal/errors"
	"github.com/zzenonn/ratepart/internal/placement"
)

// PartitionCatalog answers how many partitions of a scheme exist. The count
// is derived from the store every time; nothing is cached or persisted.
type PartitionCatalog struct {
	store Store
}

func NewPartitionCatalog(store Store) *PartitionCatalog {
	return &PartitionCatalog{store: store}
}

// CountPartitions returns the number of tables named with kind's prefix.
func (c *PartitionCatalog) CountPartitions(ctx context.Context, kind placement.Kind) (int, error) {
	prefix, err := prefixOf(kind)
	if err != nil {
		return 0, err
	}

	var n int
	err = c.store.InTx(ctx, func(s Session) error {
		n, err = s.CountTables(ctx, prefix)
		return err
	})
	return n, err
}

func prefixOf(kind placement.Kind) (string, error) {
	prefix := kind.Prefix()
	if prefix == "" {
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownScheme, string(kind))
	}
	return prefix, nil
}
