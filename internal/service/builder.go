package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	apperrors "github.com/zzenonn/ratepart/internal/errors"
	"github.com/zzenonn/ratepart/internal/placement"
)

// PartitionCount is the number of rows copied into one partition table.
type PartitionCount struct {
	Table string
	Rows  int64
}

// BuildResult describes a finished build.
type BuildResult struct {
	Kind       placement.Kind
	Source     string
	Partitions []PartitionCount
}

// Total returns the number of rows copied across every partition.
func (r BuildResult) Total() int64 {
	var total int64
	for _, p := range r.Partitions {
		total += p.Rows
	}
	return total
}

// PartitionBuilder splits a source table into partition tables.
type PartitionBuilder struct {
	store Store
}

func NewPartitionBuilder(store Store) *PartitionBuilder {
	return &PartitionBuilder{store: store}
}

// Build creates scheme.Partitions() tables and fills them from sourceTable in
// a single transaction. When partitions of the scheme already exist Build
// fails with ErrPartitionsExist, unless replace is set, in which case the old
// partitions are dropped first.
func (b *PartitionBuilder) Build(ctx context.Context, scheme placement.Scheme, sourceTable string, replace bool) (BuildResult, error) {
	result := BuildResult{Kind: scheme.Kind(), Source: sourceTable}
	prefix, err := prefixOf(scheme.Kind())
	if err != nil {
		return result, err
	}

	err = b.store.InTx(ctx, func(s Session) error {
		// Keeps routers from appending to the source while it is being split.
		if err := s.LockTable(ctx, sourceTable); err != nil {
			return err
		}

		existing, err := s.ListTables(ctx, prefix)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			if !replace {
				return fmt.Errorf("%w: %d %s tables", apperrors.ErrPartitionsExist, len(existing), scheme.Kind())
			}
			for _, table := range existing {
				if err := s.DropTable(ctx, table); err != nil {
					return err
				}
			}
			log.Infof("Dropped %d existing %s partitions", len(existing), scheme.Kind())
		}

		counts := make([]PartitionCount, 0, scheme.Partitions())
		for i := 0; i < scheme.Partitions(); i++ {
			table := scheme.TableName(i)
			if err := s.CreatePartitionTable(ctx, table); err != nil {
				return err
			}

			rows, err := populate(ctx, s, scheme, sourceTable, table, i)
			if err != nil {
				return err
			}
			log.Debugf("Partition %s holds %d rows", table, rows)
			counts = append(counts, PartitionCount{Table: table, Rows: rows})
		}
		result.Partitions = counts
		return nil
	})
	if err != nil {
		return BuildResult{Kind: scheme.Kind(), Source: sourceTable}, err
	}
	return result, nil
}

func populate(ctx context.Context, s Session, scheme placement.Scheme, src, dst string, i int) (int64, error) {
	switch sc := scheme.(type) {
	case *placement.RangeScheme:
		return s.CopyRange(ctx, src, dst, sc.Bounds(i))
	case *placement.RoundRobinScheme:
		return s.CopyRoundRobin(ctx, src, dst, sc.Partitions(), i)
	default:
		return 0, fmt.Errorf("%w: %q", apperrors.ErrUnknownScheme, string(scheme.Kind()))
	}
}
