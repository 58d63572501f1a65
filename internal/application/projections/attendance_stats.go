package projections

import (
	"context"
	"fmt"
	"strings"

	"swimtrack/internal/domain/season"
	"swimtrack/internal/domain/stats"
)

// AttendanceStatsReader defines the remote reads needed by the stats projections.
type AttendanceStatsReader interface {
	AttendanceStatsBySeason(ctx context.Context, f stats.Filter) ([]stats.AthleteStat, error)
	MonthlyAttendancePercentage(ctx context.Context, fincode int, seasonLabel, sessionType string) ([]stats.MonthlyPercentage, error)
}

// GetStatsDeps holds dependencies for the stats projections.
type GetStatsDeps struct {
	Stats AttendanceStatsReader
}

// --- Season ranking ---

// GetAttendanceStatsQuery carries input for the ranking projection.
// "all" in Type or Group means no filter.
type GetAttendanceStatsQuery struct {
	Season string
	Type   string
	Group  string
}

// GetAttendanceStatsResult carries the output of the ranking projection.
type GetAttendanceStatsResult struct {
	Season     string              `json:"season"`
	SeasonText string              `json:"season_text"`
	Type       string              `json:"type"`
	Group      string              `json:"group"`
	Athletes   []stats.AthleteStat `json:"athletes"`

	// AveragePercent is over athletes with at least one session; nil when none have.
	AveragePercent *float64 `json:"average_percent"`
}

// QueryGetAttendanceStats returns the attendance ranking of a season.
// PRE: query.Season is set
// POST: Athletes keep the remote ranking order
func QueryGetAttendanceStats(ctx context.Context, query GetAttendanceStatsQuery, deps GetStatsDeps) (GetAttendanceStatsResult, error) {
	f, err := stats.NewFilter(query.Season, query.Type, query.Group)
	if err != nil {
		return GetAttendanceStatsResult{}, err
	}
	rows, err := deps.Stats.AttendanceStatsBySeason(ctx, f)
	if err != nil {
		return GetAttendanceStatsResult{}, fmt.Errorf("attendance stats: %w", err)
	}
	if rows == nil {
		rows = []stats.AthleteStat{}
	}

	var sum float64
	var n int
	for _, r := range rows {
		if r.Percent != nil {
			sum += *r.Percent
			n++
		}
	}
	result := GetAttendanceStatsResult{
		Season:     f.Season,
		SeasonText: season.DisplayText(f.Season),
		Type:       f.Type,
		Group:      f.Group,
		Athletes:   rows,
	}
	if n > 0 {
		avg := sum / float64(n)
		result.AveragePercent = &avg
	}
	return result, nil
}

// --- Athlete trend ---

// GetAttendanceTrendQuery carries input for the trend projection.
type GetAttendanceTrendQuery struct {
	Fincode int
	Season  string
	Type    string // "all" or empty means every session type
}

// GetAttendanceTrendResult carries the output of the trend projection.
type GetAttendanceTrendResult struct {
	Fincode int                `json:"fincode"`
	Season  string             `json:"season"`
	Points  []stats.TrendPoint `json:"points"`
}

// QueryGetAttendanceTrend returns one athlete's monthly attendance over a season.
// PRE: Fincode > 0; Season is a label such as 2024-25
// POST: Points has 12 entries, September to August; months without sessions are gaps
func QueryGetAttendanceTrend(ctx context.Context, query GetAttendanceTrendQuery, deps GetStatsDeps) (GetAttendanceTrendResult, error) {
	if query.Fincode <= 0 {
		return GetAttendanceTrendResult{}, stats.ErrMissingFincode
	}
	label := strings.TrimSpace(query.Season)
	if label == "" {
		return GetAttendanceTrendResult{}, stats.ErrMissingSeason
	}
	months, err := season.Months(label)
	if err != nil {
		return GetAttendanceTrendResult{}, err
	}

	sessionType := strings.TrimSpace(query.Type)
	if strings.EqualFold(sessionType, stats.FilterAll) {
		sessionType = ""
	}
	data, err := deps.Stats.MonthlyAttendancePercentage(ctx, query.Fincode, label, sessionType)
	if err != nil {
		return GetAttendanceTrendResult{}, fmt.Errorf("monthly attendance: %w", err)
	}

	return GetAttendanceTrendResult{
		Fincode: query.Fincode,
		Season:  label,
		Points:  stats.FillMonths(months, data),
	}, nil
}
