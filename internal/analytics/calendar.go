package analytics

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/yourusername/edgeboard/internal/models"
)

const (
	// DefaultTimezone anchors every day key
	DefaultTimezone = "Asia/Taipei"
	// DateLayout is the day key format
	DateLayout = "2006-01-02"
)

var defaultLocation = loadLocation(DefaultTimezone)

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("UTC+8", 8*60*60)
	}
	return loc
}

// Location returns the timezone used for day keys
func Location() *time.Location {
	return defaultLocation
}

// LoadLocation resolves a timezone name, falling back to the default zone
func LoadLocation(name string) *time.Location {
	if name == "" {
		return defaultLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return defaultLocation
	}
	return loc
}

// DateKey renders t as YYYY-MM-DD in the default timezone
func DateKey(t time.Time) string {
	return DateKeyIn(t, defaultLocation)
}

// DateKeyIn renders t as YYYY-MM-DD in loc
func DateKeyIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = defaultLocation
	}
	return t.In(loc).Format(DateLayout)
}

// ParseDay parses a YYYY-MM-DD key and returns that day at the given hour in loc
func ParseDay(key string, hour int, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = defaultLocation
	}
	day, err := time.Parse(DateLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", models.ErrInvalidInput, key)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc), nil
}

// DayAnchor returns noon of the given day key in the default timezone
func DayAnchor(key string) (time.Time, error) {
	return ParseDay(key, 12, defaultLocation)
}

// ResolveRange turns optional YYYY-MM-DD bounds into an instant range.
// The end defaults to now and closes at 23:00 of its day, the start defaults
// to lookbackDays before the end and opens at 00:00.
func ResolveRange(startKey, endKey string, lookbackDays int, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	end := now
	if endKey != "" {
		parsed, err := ParseDay(endKey, 23, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = parsed
	}

	start := end.Add(-time.Duration(lookbackDays) * 24 * time.Hour)
	if startKey != "" {
		parsed, err := ParseDay(startKey, 0, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}
	return start, end, nil
}

// FillMissingDates inserts a zero-delta point for every calendar day missing
// between explicit points, carrying the previous equity forward.
func FillMissingDates(curve []EquityPoint) ([]EquityPoint, error) {
	filled := make([]EquityPoint, 0, len(curve))
	if len(curve) == 0 {
		return filled, nil
	}

	carried := curve[0].Equity - curve[0].Delta
	var cursor time.Time
	for i, point := range curve {
		day, err := time.Parse(DateLayout, point.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: equity point date %q", models.ErrInvalidInput, point.Date)
		}
		if i == 0 {
			cursor = day
		}
		for cursor.Before(day) {
			filled = append(filled, EquityPoint{
				Date:   cursor.Format(DateLayout),
				Delta:  0,
				Equity: carried,
			})
			cursor = cursor.AddDate(0, 0, 1)
		}
		filled = append(filled, point)
		carried = point.Equity
		if next := day.AddDate(0, 0, 1); next.After(cursor) {
			cursor = next
		}
	}
	return filled, nil
}
