package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zzenonn/ratepart/internal/domain"
	apperrors "github.com/zzenonn/ratepart/internal/errors"
)

// Field positions in a colon-separated ratings line,
// userID:extra:itemID:extra:rating:extra:timestamp. MovieLens "::" files have
// empty extra fields.
const (
	userField   = 0
	itemField   = 2
	ratingField = 4
	minFields   = 5
)

// RatingsFileReader parses a colon-separated ratings file one record at a
// time. Blank lines are skipped and the timestamp column is ignored.
type RatingsFileReader struct {
	r *csv.Reader
}

// NewRatingsFileReader reads records from r.
func NewRatingsFileReader(r io.Reader) *RatingsFileReader {
	cr := csv.NewReader(r)
	cr.Comma = ':'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	return &RatingsFileReader{r: cr}
}

// Read returns the next record, or io.EOF after the last one.
func (rr *RatingsFileReader) Read() (domain.Rating, error) {
	fields, err := rr.r.Read()
	if errors.Is(err, io.EOF) {
		return domain.Rating{}, io.EOF
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return domain.Rating{}, apperrors.MalformedRecordError(pe.Line, pe.Err.Error())
		}
		return domain.Rating{}, err
	}

	line, _ := rr.r.FieldPos(0)
	if len(fields) < minFields {
		return domain.Rating{}, apperrors.MalformedRecordError(line,
			fmt.Sprintf("expected at least %d fields, got %d", minFields, len(fields)))
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(fields[userField]), 10, 64)
	if err != nil {
		return domain.Rating{}, apperrors.MalformedRecordError(line, "invalid user id "+strconv.Quote(fields[userField]))
	}
	itemID, err := strconv.ParseInt(strings.TrimSpace(fields[itemField]), 10, 64)
	if err != nil {
		return domain.Rating{}, apperrors.MalformedRecordError(line, "invalid item id "+strconv.Quote(fields[itemField]))
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(fields[ratingField]), 64)
	if err != nil {
		return domain.Rating{}, apperrors.MalformedRecordError(line, "invalid rating "+strconv.Quote(fields[ratingField]))
	}

	rec := domain.Rating{UserID: userID, ItemID: itemID, Rating: rating}
	if err := rec.Validate(); err != nil {
		return domain.Rating{}, fmt.Errorf("line %d: %w", line, err)
	}
	return rec, nil
}
