package domain

import "errors"

var (
	// ErrReviewSourceUnavailable wraps any failure to fetch reviews. Callers
	// must surface it rather than compute analytics on partial data.
	ErrReviewSourceUnavailable = errors.New("review source unavailable")

	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrInvalidMetric      = errors.New("invalid metric")
)
