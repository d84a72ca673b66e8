// Package placement decides which partition table a rating row belongs to.
//
// Two schemes are supported:
//   - Range: the rating interval [0, 5] is cut into n equal-width slices. The
//     first slice is closed on both ends, the rest are open on the left, so a
//     rating sitting exactly on a boundary belongs to the lower slice.
//   - Round-robin: the k-th row (1-based, in insertion order) goes to slice
//     (k-1) mod n.
//
// The package is pure logic. It never talks to the store; the builder and the
// router in the service package use it to compute placements and the matching
// SQL predicates, which keeps bulk splits and single-row inserts consistent.
//
// Example:
//
//	scheme, _ := placement.NewScheme(placement.KindRange, 5)
//	idx, _ := scheme.Place(domain.Rating{Rating: 3.0}, 0) // 2
//	scheme.TableName(idx)                                 // "range_part2"
package placement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zzenonn/ratepart/internal/domain"
	apperrors "github.com/zzenonn/ratepart/internal/errors"
)

// Kind names a partitioning scheme.
type Kind string

const (
	KindRange      Kind = "range"
	KindRoundRobin Kind = "rrobin"
)

// Table name prefixes. Partition i of a scheme is stored in prefix+i.
const (
	RangePrefix      = "range_part"
	RoundRobinPrefix = "rrobin_part"
)

// Scheme maps a rating row to a partition index in [0, Partitions()).
//
// Implementations are immutable and safe for concurrent use.
type Scheme interface {
	// Kind reports which scheme this is.
	Kind() Kind

	// Partitions returns the partition count the scheme was built with.
	Partitions() int

	// TableName returns the partition table that holds index.
	TableName(index int) string

	// Place returns the partition index for rec. ordinal is the 1-based
	// position of rec in insertion order; range schemes ignore it.
	Place(rec domain.Rating, ordinal int64) (int, error)
}

// ParseKind accepts the scheme names used on the command line.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "range":
		return KindRange, nil
	case "rrobin", "roundrobin", "round-robin", "round_robin":
		return KindRoundRobin, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownScheme, s)
	}
}

// Prefix returns the table-name prefix of the scheme.
func (k Kind) Prefix() string {
	switch k {
	case KindRange:
		return RangePrefix
	case KindRoundRobin:
		return RoundRobinPrefix
	default:
		return ""
	}
}

func (k Kind) String() string {
	return string(k)
}

// NewScheme builds a scheme of the given kind over n partitions.
func NewScheme(kind Kind, n int) (Scheme, error) {
	switch kind {
	case KindRange:
		return NewRangeScheme(n)
	case KindRoundRobin:
		return NewRoundRobinScheme(n)
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownScheme, string(kind))
	}
}

// TableName joins a prefix and a partition index.
func TableName(prefix string, index int) string {
	return prefix + strconv.Itoa(index)
}

func checkPartitions(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", apperrors.ErrDegeneratePartitioning, n)
	}
	return nil
}
