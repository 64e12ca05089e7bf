package statistic

import "errors"

var (
	// ErrInvalidGranularity is returned when granularity is unsupported.
	ErrInvalidGranularity = errors.New("statistic: invalid granularity")
	// ErrInvalidPeriodStart is returned when the period start is zero.
	ErrInvalidPeriodStart = errors.New("statistic: invalid period start")
	// ErrInvalidTimeKey is returned when a time key cannot be parsed.
	ErrInvalidTimeKey = errors.New("statistic: invalid time key")
)
