package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"swimtrack/internal/domain/session"
)

// SessionWriter defines the remote writes needed by the session orchestrators.
type SessionWriter interface {
	InsertSession(ctx context.Context, s session.Session) (session.Session, error)
	UpdateSession(ctx context.Context, s session.Session) error
	DeleteSession(ctx context.Context, id int) error
}

// ErrInvalidSessionID is returned when a delete names no session.
var ErrInvalidSessionID = errors.New("session ID is required")

// --- Save Session ---

// SaveSessionInput carries input for the save session orchestrator.
type SaveSessionInput struct {
	Session session.Session
}

// SaveSessionDeps holds dependencies for SaveSession.
type SaveSessionDeps struct {
	Sessions SessionWriter
}

// ExecuteSaveSession creates a session when it has no id, otherwise overwrites it.
// PRE: input.Session.ID >= 0
// POST: the normalised session is persisted and returned with its id
func ExecuteSaveSession(ctx context.Context, input SaveSessionInput, deps SaveSessionDeps) (session.Session, error) {
	s := input.Session
	if s.ID < 0 {
		return session.Session{}, ErrInvalidSessionID
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return session.Session{}, err
	}

	if s.ID == 0 {
		created, err := deps.Sessions.InsertSession(ctx, s)
		if err != nil {
			return session.Session{}, err
		}
		slog.Info("session_event", "event", "session_created", "session_id", created.ID, "date", created.Date, "groups", created.Groups)
		return created, nil
	}

	if err := deps.Sessions.UpdateSession(ctx, s); err != nil {
		return session.Session{}, err
	}
	slog.Info("session_event", "event", "session_updated", "session_id", s.ID, "date", s.Date)
	return s, nil
}

// --- Delete Session ---

// DeleteSessionInput carries input for the delete session orchestrator.
type DeleteSessionInput struct {
	SessionID int
}

// DeleteSessionDeps holds dependencies for DeleteSession.
type DeleteSessionDeps struct {
	Sessions SessionWriter
}

// ExecuteDeleteSession removes a session. Attendance rows go with it through
// the remote foreign key.
// PRE: SessionID > 0
// POST: session no longer exists remotely
func ExecuteDeleteSession(ctx context.Context, input DeleteSessionInput, deps DeleteSessionDeps) error {
	if input.SessionID <= 0 {
		return ErrInvalidSessionID
	}
	if err := deps.Sessions.DeleteSession(ctx, input.SessionID); err != nil {
		return err
	}
	slog.Info("session_event", "event", "session_deleted", "session_id", input.SessionID)
	return nil
}
