package domain

import "errors"

var (
	// ErrInvalidParameter is returned when a series is requested for a column
	// outside the allow-list.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidRange is returned when a query range is missing a mandatory
	// bound or is inverted.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidPage is returned for negative page numbers or sizes.
	ErrInvalidPage = errors.New("invalid page")

	// ErrJobNotFound is returned when subscribing to an unknown ingestion job.
	ErrJobNotFound = errors.New("ingestion job not found")

	// ErrInvalidSeparator is returned for separators that are not a single
	// usable delimiter character.
	ErrInvalidSeparator = errors.New("invalid separator")

	// ErrInvalidChunkSize is returned for non-positive chunk sizes.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrMalformedRow marks a row whose date or time cannot be interpreted.
	// Such rows are skipped during ingestion, never surfaced to callers.
	ErrMalformedRow = errors.New("malformed row")
)
