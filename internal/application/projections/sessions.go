package projections

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"swimtrack/internal/domain/savelog"
	"swimtrack/internal/domain/session"
)

// SessionReader defines the remote reads needed by the session projections.
type SessionReader interface {
	ListSessionsByDate(ctx context.Context, date string) ([]session.Session, error)
	ListSessionsInRange(ctx context.Context, from, to string) ([]session.Session, error)
	GetSession(ctx context.Context, id int) (session.Session, error)
}

// LatestSaveReader returns the newest journalled save per session.
type LatestSaveReader interface {
	LatestBySession(ctx context.Context, sessionIDs []int) (map[int]savelog.Event, error)
}

// mdRenderer escapes raw HTML in descriptions; WithUnsafe is never set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// SessionView is a session prepared for display.
type SessionView struct {
	session.Session
	DescriptionHTML string         `json:"description_html"`
	DurationHours   float64        `json:"duration_hours"`
	LastSave        *savelog.Event `json:"last_save,omitempty"`
	// NeedsResave is set when the latest save left remote attendance incomplete.
	NeedsResave bool `json:"needs_resave"`
}

// DaySessions is one calendar day of a week view.
type DaySessions struct {
	Date     string        `json:"date"`
	Weekday  string        `json:"weekday"`
	Sessions []SessionView `json:"sessions"`
}

// GetWeekSessionsQuery carries input for the week projection.
type GetWeekSessionsQuery struct {
	Date string    // any day of the week, YYYY-MM-DD; empty means Now
	Now  time.Time // optional: if zero, time.Now() is used
}

// GetWeekSessionsResult carries the output of the week projection.
type GetWeekSessionsResult struct {
	WeekStart string        `json:"week_start"`
	WeekEnd   string        `json:"week_end"`
	Days      []DaySessions `json:"days"`
}

// GetSessionsDeps holds dependencies for the session projections.
type GetSessionsDeps struct {
	Sessions SessionReader
	Saves    LatestSaveReader // optional
}

// QueryGetWeekSessions returns the Monday-to-Sunday week containing the query date.
// PRE: query.Date is empty or YYYY-MM-DD
// POST: Days has exactly 7 entries starting on Monday; sessions keep remote order
func QueryGetWeekSessions(ctx context.Context, query GetWeekSessionsQuery, deps GetSessionsDeps) (GetWeekSessionsResult, error) {
	day := query.Now
	if day.IsZero() {
		day = time.Now()
	}
	if query.Date != "" {
		d, err := time.Parse(session.DateLayout, query.Date)
		if err != nil {
			return GetWeekSessionsResult{}, session.ErrInvalidDate
		}
		day = d
	}

	start := session.WeekStart(day)
	end := start.AddDate(0, 0, 6)
	result := GetWeekSessionsResult{
		WeekStart: start.Format(session.DateLayout),
		WeekEnd:   end.Format(session.DateLayout),
		Days:      make([]DaySessions, 7),
	}
	index := make(map[string]int, 7)
	for i := range result.Days {
		d := start.AddDate(0, 0, i)
		result.Days[i] = DaySessions{
			Date:     d.Format(session.DateLayout),
			Weekday:  d.Weekday().String(),
			Sessions: []SessionView{},
		}
		index[result.Days[i].Date] = i
	}

	rows, err := deps.Sessions.ListSessionsInRange(ctx, result.WeekStart, result.WeekEnd)
	if err != nil {
		return GetWeekSessionsResult{}, fmt.Errorf("list week sessions: %w", err)
	}
	views := buildViews(ctx, rows, deps.Saves)
	for _, v := range views {
		i, ok := index[v.Date]
		if !ok {
			continue
		}
		result.Days[i].Sessions = append(result.Days[i].Sessions, v)
	}
	return result, nil
}

// GetSessionsForDayQuery carries input for the day projection.
type GetSessionsForDayQuery struct {
	Date string // YYYY-MM-DD
}

// QueryGetSessionsForDay returns the sessions of one day ordered by start time.
// PRE: query.Date is YYYY-MM-DD
func QueryGetSessionsForDay(ctx context.Context, query GetSessionsForDayQuery, deps GetSessionsDeps) ([]SessionView, error) {
	if _, err := time.Parse(session.DateLayout, query.Date); err != nil {
		return nil, session.ErrInvalidDate
	}
	rows, err := deps.Sessions.ListSessionsByDate(ctx, query.Date)
	if err != nil {
		return nil, fmt.Errorf("list day sessions: %w", err)
	}
	return buildViews(ctx, rows, deps.Saves), nil
}

// GetSessionQuery carries input for the single-session projection.
type GetSessionQuery struct {
	SessionID int
}

// QueryGetSession returns one session prepared for display.
// PRE: query.SessionID > 0
func QueryGetSession(ctx context.Context, query GetSessionQuery, deps GetSessionsDeps) (SessionView, error) {
	s, err := deps.Sessions.GetSession(ctx, query.SessionID)
	if err != nil {
		return SessionView{}, err
	}
	return buildViews(ctx, []session.Session{s}, deps.Saves)[0], nil
}

// buildViews renders descriptions and attaches the save journal state.
// A journal read failure only drops the resave hints.
func buildViews(ctx context.Context, rows []session.Session, saves LatestSaveReader) []SessionView {
	var latest map[int]savelog.Event
	if saves != nil && len(rows) > 0 {
		ids := make([]int, 0, len(rows))
		for _, s := range rows {
			ids = append(ids, s.ID)
		}
		var err error
		latest, err = saves.LatestBySession(ctx, ids)
		if err != nil {
			slog.Warn("session_event", "event", "save_journal_unavailable", "error", err)
		}
	}

	views := make([]SessionView, 0, len(rows))
	for _, s := range rows {
		s.Normalize()
		v := SessionView{Session: s, DescriptionHTML: renderMarkdown(s.Description)}
		if h, err := s.DurationHours(); err == nil {
			v.DurationHours = h
		}
		if ev, ok := latest[s.ID]; ok {
			v.LastSave = &ev
			v.NeedsResave = !ev.Succeeded()
		}
		views = append(views, v)
	}
	return views
}

func renderMarkdown(md string) string {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return ""
	}
	return buf.String()
}
