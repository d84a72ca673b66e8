package domain

import (
	"fmt"
	"math"

	apperrors "github.com/zzenonn/ratepart/internal/errors"
)

const (
	MinRating = 0.0
	MaxRating = 5.0
)

// Rating - a single user's score for an item
type Rating struct {
	UserID int64   `json:"user_id"`
	ItemID int64   `json:"item_id"`
	Rating float64 `json:"rating"`
}

// Validate rejects scores outside [MinRating, MaxRating]. Values are never clamped.
func (r Rating) Validate() error {
	return ValidateScore(r.Rating)
}

// ValidateScore checks a bare rating value.
func ValidateScore(score float64) error {
	if math.IsNaN(score) || score < MinRating || score > MaxRating {
		return fmt.Errorf("%w: got %v", apperrors.ErrRatingOutOfRange, score)
	}
	return nil
}

// RatingReader yields ratings one at a time and returns io.EOF when done.
type RatingReader interface {
	Read() (Rating, error)
}
