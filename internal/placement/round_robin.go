package placement

import (
	"fmt"

	"github.com/zzenonn/ratepart/internal/domain"
	apperrors "github.com/zzenonn/ratepart/internal/errors"
)

// RoundRobinScheme deals rows to partitions in insertion order.
type RoundRobinScheme struct {
	n int
}

// NewRoundRobinScheme creates a round-robin scheme over n partitions
func NewRoundRobinScheme(n int) (*RoundRobinScheme, error) {
	if err := checkPartitions(n); err != nil {
		return nil, err
	}
	return &RoundRobinScheme{n: n}, nil
}

func (s *RoundRobinScheme) Kind() Kind      { return KindRoundRobin }
func (s *RoundRobinScheme) Partitions() int { return s.n }

func (s *RoundRobinScheme) TableName(index int) string {
	return TableName(RoundRobinPrefix, index)
}

// IndexOf returns the partition for the row at ordinal.
func (s *RoundRobinScheme) IndexOf(ordinal int64) (int, error) {
	return RoundRobinIndex(ordinal, s.n)
}

func (s *RoundRobinScheme) Place(_ domain.Rating, ordinal int64) (int, error) {
	return RoundRobinIndex(ordinal, s.n)
}

// RoundRobinIndex returns (ordinal-1) mod n for a 1-based ordinal.
func RoundRobinIndex(ordinal int64, n int) (int, error) {
	if err := checkPartitions(n); err != nil {
		return 0, err
	}
	if ordinal < 1 {
		return 0, fmt.Errorf("%w: got %d", apperrors.ErrInvalidOrdinal, ordinal)
	}
	return int((ordinal - 1) % int64(n)), nil
}
