package editor

import (
	"context"
	"fmt"

	"swimtrack/internal/domain/attendance"
	"swimtrack/internal/domain/roster"
)

// LoadRoster fetches the athletes of group in season, then the persisted
// records of sessionID, and merges them.
// PRE: gw is non-nil
// POST: on success every athlete appears once with its recorded status or N;
// on failure returns roster.Empty and a *LoadFailure
func LoadRoster(ctx context.Context, gw Gateway, season, group string, sessionID int) (roster.Roster, error) {
	athletes, err := gw.RosterBySeasonAndGroup(ctx, season, group)
	if err != nil {
		return roster.Empty, &LoadFailure{Step: StepRoster, Err: err}
	}

	records, err := gw.ListAttendance(ctx, sessionID)
	if err != nil {
		return roster.Empty, &LoadFailure{Step: StepAttendance, Err: err}
	}

	statuses := make(map[int]attendance.Status, len(records))
	for _, rec := range records {
		s, err := attendance.ParseStatus(string(rec.Status))
		if err != nil {
			return roster.Empty, &LoadFailure{Step: StepMerge, Err: fmt.Errorf("fincode %d: %w", rec.Fincode, err)}
		}
		statuses[rec.Fincode] = s
	}

	entries := make([]roster.Entry, 0, len(athletes))
	for _, a := range athletes {
		a.Normalize()
		status, ok := statuses[a.Fincode]
		if !ok {
			status = attendance.StatusNotSet
		}
		entries = append(entries, roster.Entry{Fincode: a.Fincode, Name: a.Name, Status: status})
	}

	r, err := roster.New(entries)
	if err != nil {
		return roster.Empty, &LoadFailure{Step: StepMerge, Err: err}
	}
	return r, nil
}
