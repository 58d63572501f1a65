package season

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StartMonth is the first month of a swimming season.
const StartMonth = time.September

// DateLayout is the calendar date format used for sessions.
const DateLayout = "2006-01-02"

// Domain errors
var (
	ErrInvalidLabel = errors.New("season label must look like 2024-25")
	ErrInvalidDate  = errors.New("date must be YYYY-MM-DD")
)

// Season is a row of the remote season table.
type Season struct {
	ID          int       `json:"seasonid"`
	Description string    `json:"description"`
	Start       time.Time `json:"seasonstart"`
	End         time.Time `json:"seasonend"`
}

// Contains returns true if the given date falls within this season.
// PRE: Start and End are set
// INVARIANT: Season fields are not mutated
func (s *Season) Contains(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	start := s.Start.Truncate(24 * time.Hour)
	end := s.End.Truncate(24 * time.Hour)
	return !d.Before(start) && !d.After(end)
}

// StartYearFor returns the year the season containing t started in.
func StartYearFor(t time.Time) int {
	if t.Month() >= StartMonth {
		return t.Year()
	}
	return t.Year() - 1
}

// Label renders the season that starts in startYear, e.g. 2024 -> "2024-25".
func Label(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}

// ForDate derives the season label for a session date.
// POST: September or later belongs to the season starting that year
func ForDate(t time.Time) string {
	return Label(StartYearFor(t))
}

// ForDateString parses a YYYY-MM-DD date and derives its season label.
// PRE: date is YYYY-MM-DD
// POST: Returns ErrInvalidDate on malformed input
func ForDateString(date string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return ForDate(t), nil
}

// StartYear extracts the start year from a label like "2024-25".
// PRE: label is non-empty
// POST: Returns ErrInvalidLabel if the suffix does not follow the start year
func StartYear(label string) (int, error) {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil || end != (start+1)%100 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return start, nil
}

// Months lists the twelve months of a season as YYYY-MM, September to August.
// PRE: label is a valid season label
// POST: Returns 12 entries in chronological order
func Months(label string) ([]string, error) {
	start, err := StartYear(label)
	if err != nil {
		return nil, err
	}
	months := make([]string, 0, 12)
	first := time.Date(start, StartMonth, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		months = append(months, first.AddDate(0, i, 0).Format("2006-01"))
	}
	return months, nil
}

// Bounds returns the first and last calendar day of a season.
func Bounds(label string) (time.Time, time.Time, error) {
	start, err := StartYear(label)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := time.Date(start, StartMonth, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, -1)
	return from, to, nil
}

// DisplayText renders a label for humans, e.g. "Sep 2024 - Aug 2025".
func DisplayText(label string) string {
	start, err := StartYear(label)
	if err != nil {
		return label
	}
	return fmt.Sprintf("Sep %d - Aug %d", start, start+1)
}
