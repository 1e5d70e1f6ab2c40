package corpus

import "errors"

var (
	// ErrUnknownBook is returned when a book name is not in the canon.
	ErrUnknownBook = errors.New("unknown book")

	// ErrEmptyCorpus is returned when a loaded translation has no verses.
	ErrEmptyCorpus = errors.New("corpus contains no verses")
)
