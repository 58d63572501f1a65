package stats

import (
	"errors"
	"strings"
)

// FilterAll is the wire value meaning "no filter".
const FilterAll = "all"

// Domain errors
var (
	ErrMissingSeason  = errors.New("stats require a season")
	ErrMissingFincode = errors.New("trend requires an athlete fincode")
)

// AthleteStat is one row of the per-season attendance ranking.
// Percent is nil when the athlete had no sessions in scope.
type AthleteStat struct {
	Fincode       int      `json:"fincode"`
	Name          string   `json:"name"`
	Photo         string   `json:"photo,omitempty"`
	Present       int      `json:"presenze"`
	Justified     int      `json:"giustificate"`
	TotalSessions int      `json:"total_sessions"`
	Percent       *float64 `json:"percent"`
}

// PercentValue returns Percent or 0 when unknown.
func (s AthleteStat) PercentValue() float64 {
	if s.Percent == nil {
		return 0
	}
	return *s.Percent
}

// MonthlyPercentage is one month of an athlete's attendance trend.
type MonthlyPercentage struct {
	Month   string  `json:"month"` // YYYY-MM
	Percent float64 `json:"attendance_percentage"`
}

// TrendPoint is a season month with an optional value. A nil Percent is a
// gap: no sessions were recorded that month.
type TrendPoint struct {
	Month   string   `json:"month"`
	Percent *float64 `json:"percent"`
}

// Filter selects the scope of a stats query.
// Empty Type or Group means no restriction.
type Filter struct {
	Season string
	Type   string
	Group  string
}

// NewFilter builds a Filter from request values, mapping "all" to no restriction.
// PRE: none
// POST: Type and Group are "" or a concrete value; Group is upper-case
func NewFilter(season, sessionType, group string) (Filter, error) {
	season = strings.TrimSpace(season)
	if season == "" {
		return Filter{}, ErrMissingSeason
	}
	return Filter{
		Season: season,
		Type:   dropAll(sessionType),
		Group:  strings.ToUpper(dropAll(group)),
	}, nil
}

func dropAll(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, FilterAll) {
		return ""
	}
	return v
}

// FillMonths aligns remote monthly values onto the season months.
// POST: len(result) == len(months); months without data have a nil Percent
func FillMonths(months []string, data []MonthlyPercentage) []TrendPoint {
	byMonth := make(map[string]float64, len(data))
	for _, d := range data {
		// remote months may carry a day part
		m := d.Month
		if len(m) > 7 {
			m = m[:7]
		}
		byMonth[m] = d.Percent
	}
	points := make([]TrendPoint, len(months))
	for i, m := range months {
		points[i].Month = m
		if v, ok := byMonth[m]; ok {
			points[i].Percent = &v
		}
	}
	return points
}
