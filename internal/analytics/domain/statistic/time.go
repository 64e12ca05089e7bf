package statistic

import "time"

// Granularity is the calendar resolution of a revenue bucket.
type Granularity string

const (
	GranularityDay   Granularity = "DAY"
	GranularityMonth Granularity = "MONTH"
)

// IsValid checks if the granularity is one of the supported values.
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDay, GranularityMonth:
		return true
	default:
		return false
	}
}

// TimeKey is the string form of a bucket boundary, e.g. "2024-03-05" or "2024-03".
type TimeKey string

// NewTimeKey builds a TimeKey for the given granularity and instant in loc.
func NewTimeKey(granularity Granularity, at time.Time, loc *time.Location) (TimeKey, error) {
	if at.IsZero() {
		return "", ErrInvalidPeriodStart
	}
	layout, err := timeKeyLayout(granularity)
	if err != nil {
		return "", err
	}
	return TimeKey(at.In(location(loc)).Format(layout)), nil
}

// ParseTimeKey returns the start of the period named by key in loc.
func ParseTimeKey(granularity Granularity, key TimeKey, loc *time.Location) (time.Time, error) {
	layout, err := timeKeyLayout(granularity)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(layout, string(key), location(loc))
	if err != nil {
		return time.Time{}, ErrInvalidTimeKey
	}
	return t, nil
}

// String returns the raw key.
func (k TimeKey) String() string { return string(k) }

func timeKeyLayout(granularity Granularity) (string, error) {
	if !granularity.IsValid() {
		return "", ErrInvalidGranularity
	}
	if granularity == GranularityDay {
		return "2006-01-02", nil
	}
	return "2006-01", nil
}

// DayStart returns local midnight of the calendar day containing t.
func DayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(location(loc))
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

// MonthStart returns local midnight of the first day of the month containing t.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(location(loc))
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, local.Location())
}

// MonthLabel renders a month as a short human label, e.g. "Jan 2024".
func MonthLabel(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format("Jan 2006")
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
