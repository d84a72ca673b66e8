package placement

import (
	"fmt"
	"math"

	"github.com/zzenonn/ratepart/internal/domain"
)

// Interval is one slice of the rating range. High is always inclusive.
type Interval struct {
	Low       float64
	High      float64
	LowClosed bool
}

// Contains reports whether rating falls inside the interval.
func (iv Interval) Contains(rating float64) bool {
	if iv.LowClosed {
		return rating >= iv.Low && rating <= iv.High
	}
	return rating > iv.Low && rating <= iv.High
}

func (iv Interval) String() string {
	left := "("
	if iv.LowClosed {
		left = "["
	}
	return fmt.Sprintf("%s%g, %g]", left, iv.Low, iv.High)
}

// RangeScheme splits [0, 5] into equal-width slices by rating.
type RangeScheme struct {
	n int
}

// NewRangeScheme creates a range scheme over n partitions.
func NewRangeScheme(n int) (*RangeScheme, error) {
	if err := checkPartitions(n); err != nil {
		return nil, err
	}
	return &RangeScheme{n: n}, nil
}

func (s *RangeScheme) Kind() Kind      { return KindRange }
func (s *RangeScheme) Partitions() int { return s.n }

func (s *RangeScheme) TableName(index int) string {
	return TableName(RangePrefix, index)
}

// Width is the size of each slice.
func (s *RangeScheme) Width() float64 {
	return domain.MaxRating / float64(s.n)
}

// Bounds returns the interval owned by partition i. Adjacent partitions share
// the exact same float64 boundary, and the last one ends at exactly 5.
func (s *RangeScheme) Bounds(i int) Interval {
	return Interval{
		Low:       boundary(i, s.n),
		High:      boundary(i+1, s.n),
		LowClosed: i == 0,
	}
}

// IndexOf returns the partition for rating.
func (s *RangeScheme) IndexOf(rating float64) (int, error) {
	return RangeIndex(rating, s.n)
}

func (s *RangeScheme) Place(rec domain.Rating, _ int64) (int, error) {
	return RangeIndex(rec.Rating, s.n)
}

// RangeIndex computes floor(rating / w) with w = 5/n and moves ratings that
// sit exactly on a boundary down to the lower partition. 0 stays in partition
// 0 and 5 lands in partition n-1.
func RangeIndex(rating float64, n int) (int, error) {
	if err := checkPartitions(n); err != nil {
		return 0, err
	}
	if err := domain.ValidateScore(rating); err != nil {
		return 0, err
	}

	w := domain.MaxRating / float64(n)
	idx := int(math.Floor(rating / w))

	// Settle against the same boundaries Bounds hands to the store so float
	// rounding in rating/w can never disagree with the SQL predicates.
	for idx > 0 && rating <= boundary(idx, n) {
		idx--
	}
	for idx < n-1 && rating > boundary(idx+1, n) {
		idx++
	}
	return idx, nil
}

func boundary(i, n int) float64 {
	if i >= n {
		return domain.MaxRating
	}
	return domain.MaxRating * float64(i) / float64(n)
}
