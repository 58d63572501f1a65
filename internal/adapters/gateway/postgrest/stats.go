package postgrest

import (
	"context"
	"net/http"
	"net/url"

	"swimtrack/internal/domain/stats"
)

const (
	statsFunction   = "rpc/get_attendance_stats_by_season"
	monthlyFunction = "rpc/get_monthly_attendance_percentage"
)

// nullable sends "" as JSON null, which the functions read as "no filter".
func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// AttendanceStatsBySeason returns the attendance ranking for f, best first.
// PRE: f.Season is set
func (c *Client) AttendanceStatsBySeason(ctx context.Context, f stats.Filter) ([]stats.AthleteStat, error) {
	var rows []stats.AthleteStat
	err := c.do(ctx, request{
		method:   http.MethodPost,
		resource: statsFunction,
		query:    url.Values{"order": {"percent.desc.nullslast"}},
		body: map[string]*string{
			"season":       nullable(f.Season),
			"session_type": nullable(f.Type),
			"group_name":   nullable(f.Group),
		},
	}, &rows)
	return rows, err
}

// MonthlyAttendancePercentage returns one athlete's monthly percentages for a season.
// PRE: fincode > 0, seasonLabel is set
func (c *Client) MonthlyAttendancePercentage(ctx context.Context, fincode int, seasonLabel, sessionType string) ([]stats.MonthlyPercentage, error) {
	var rows []stats.MonthlyPercentage
	err := c.do(ctx, request{
		method:   http.MethodPost,
		resource: monthlyFunction,
		body: map[string]any{
			"fincode_input":      fincode,
			"season_input":       seasonLabel,
			"session_type_input": nullable(sessionType),
		},
	}, &rows)
	return rows, err
}
