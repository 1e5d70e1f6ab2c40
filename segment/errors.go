package segment

import "errors"

var (
	// ErrInvalidMaxWords is returned when MaxWords is zero or negative.
	ErrInvalidMaxWords = errors.New("max words must be positive")

	// ErrInvalidMinWords is returned when MinWords is negative or exceeds MaxWords.
	ErrInvalidMinWords = errors.New("min words must be between 0 and max words")

	// ErrInvalidOverlap is returned when OverlapUnits is negative.
	ErrInvalidOverlap = errors.New("overlap units cannot be negative")
)
