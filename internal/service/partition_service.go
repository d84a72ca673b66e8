package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/ratepart/internal/domain"
	"github.com/zzenonn/ratepart/internal/placement"
)

// PartitionService is the entry point the CLI uses for partition work.
type PartitionService struct {
	catalog      *PartitionCatalog
	builder      *PartitionBuilder
	router       *PartitionRouter
	ratingsTable string
}

// NewPartitionService creates a new PartitionService instance
func NewPartitionService(store Store, ratingsTable string) *PartitionService {
	return &PartitionService{
		catalog:      NewPartitionCatalog(store),
		builder:      NewPartitionBuilder(store),
		router:       NewPartitionRouter(store, ratingsTable),
		ratingsTable: ratingsTable,
	}
}

// BuildPartitions splits sourceTable into n partitions of kind. An empty
// sourceTable means the configured ratings table.
func (s *PartitionService) BuildPartitions(ctx context.Context, kind placement.Kind, n int, sourceTable string, replace bool) (BuildResult, error) {
	scheme, err := placement.NewScheme(kind, n)
	if err != nil {
		return BuildResult{}, err
	}
	if sourceTable == "" {
		sourceTable = s.ratingsTable
	}

	result, err := s.builder.Build(ctx, scheme, sourceTable, replace)
	if err != nil {
		return result, err
	}
	log.Infof("Built %d %s partitions from %s with %d rows", len(result.Partitions), kind, sourceTable, result.Total())
	return result, nil
}

// Insert routes one new rating under kind.
func (s *PartitionService) Insert(ctx context.Context, kind placement.Kind, hint int, userID, itemID int64, rating float64) (Placement, error) {
	return s.router.Insert(ctx, kind, hint, domain.Rating{UserID: userID, ItemID: itemID, Rating: rating})
}

// CountPartitions returns how many partitions of kind exist.
func (s *PartitionService) CountPartitions(ctx context.Context, kind placement.Kind) (int, error) {
	return s.catalog.CountPartitions(ctx, kind)
}
