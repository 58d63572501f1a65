package savelog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of one attendance save.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomePartial Outcome = "partial"
)

// Domain errors
var (
	ErrMissingSession = errors.New("save event must reference a session")
	ErrInvalidOutcome = errors.New("outcome must be ok, failed or partial")
)

// Event is one journalled attendance save. The journal lets staff see which
// sessions were left half-written by a failed save.
type Event struct {
	ID        string    `json:"id"`
	SessionID int       `json:"session_id"`
	Group     string    `json:"group"`
	Outcome   Outcome   `json:"outcome"`
	Phase     string    `json:"phase,omitempty"`
	Deleted   int       `json:"deleted"`
	Upserted  int       `json:"upserted"`
	Present   int       `json:"present"`
	Justified int       `json:"justified"`
	Absent    int       `json:"absent"`
	NotSet    int       `json:"not_set"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// NewEvent creates a journal event with a fresh id and the current time.
// PRE: sessionID > 0
// POST: Returns an Event with OutcomeOK; callers downgrade it with WithFailure
func NewEvent(sessionID int, group string) Event {
	return Event{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Group:     group,
		Outcome:   OutcomeOK,
		At:        time.Now().UTC(),
	}
}

// WithCounts records the tally of the saved roster.
func (e Event) WithCounts(present, justified, absent, notSet int) Event {
	e.Present = present
	e.Justified = justified
	e.Absent = absent
	e.NotSet = notSet
	return e
}

// WithPlan records how many rows the save touched.
func (e Event) WithPlan(deleted, upserted int) Event {
	e.Deleted = deleted
	e.Upserted = upserted
	return e
}

// WithFailure marks the event failed, or partial when remote rows were already removed.
// PRE: err is non-nil
// POST: Outcome is failed or partial; Error holds err's message
func (e Event) WithFailure(phase string, partial bool, err error) Event {
	e.Outcome = OutcomeFailed
	if partial {
		e.Outcome = OutcomePartial
	}
	e.Phase = phase
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// Succeeded reports whether the save completed.
func (e Event) Succeeded() bool {
	return e.Outcome == OutcomeOK
}

// Validate checks if the Event can be stored.
func (e *Event) Validate() error {
	if e.SessionID <= 0 {
		return ErrMissingSession
	}
	switch e.Outcome {
	case OutcomeOK, OutcomeFailed, OutcomePartial:
		return nil
	}
	return ErrInvalidOutcome
}
