package orchestrators

import (
	"context"
	"log/slog"

	"swimtrack/internal/application/editor"
	"swimtrack/internal/domain/roster"
	"swimtrack/internal/domain/savelog"
)

// AttendanceSaver is the slice of an open editor that a save needs.
type AttendanceSaver interface {
	Save(ctx context.Context) (editor.SaveResult, error)
	Context() editor.SessionContext
	Counts() roster.Counts
}

// SaveJournal records the outcome of each attendance save.
type SaveJournal interface {
	Save(ctx context.Context, event savelog.Event) error
}

// SaveAttendanceInput carries input for the save attendance orchestrator.
type SaveAttendanceInput struct {
	Editor AttendanceSaver
}

// SaveAttendanceDeps holds dependencies for SaveAttendance.
type SaveAttendanceDeps struct {
	Journal  SaveJournal
	NewEvent func(sessionID int, group string) savelog.Event
}

// ExecuteSaveAttendance writes the editor's roster to the remote store and
// journals the outcome locally.
// PRE: input.Editor is ready
// POST: the remote result is returned unchanged; a journal write failure is
// logged and never masks the save outcome
func ExecuteSaveAttendance(ctx context.Context, input SaveAttendanceInput, deps SaveAttendanceDeps) (editor.SaveResult, error) {
	sc := input.Editor.Context()
	newEvent := deps.NewEvent
	if newEvent == nil {
		newEvent = savelog.NewEvent
	}

	result, saveErr := input.Editor.Save(ctx)

	c := input.Editor.Counts()
	ev := newEvent(sc.SessionID, sc.Group).WithCounts(c.P, c.J, c.A, c.N)
	if saveErr != nil {
		if sf, ok := editor.AsSaveFailure(saveErr); ok {
			ev = ev.WithPlan(len(sf.Plan.ToDelete), len(sf.Plan.ToUpsert)).
				WithFailure(string(sf.Phase), sf.Partial, sf.Err)
		} else {
			ev = ev.WithFailure("", false, saveErr)
		}
	} else {
		ev = ev.WithPlan(result.Deleted, result.Upserted)
	}

	if deps.Journal != nil {
		// the journal must outlive a cancelled request
		if err := deps.Journal.Save(context.WithoutCancel(ctx), ev); err != nil {
			slog.Error("attendance_event", "event", "journal_write_failed", "session_id", sc.SessionID, "outcome", ev.Outcome, "error", err)
		}
	}

	if saveErr != nil {
		return editor.SaveResult{}, saveErr
	}
	return result, nil
}
