package editor

import (
	"errors"
	"fmt"
)

// Lifecycle errors
var (
	ErrNotReady      = errors.New("editor is not ready")
	ErrClosed        = errors.New("editor is closed")
	ErrLoadInFlight  = errors.New("editor load already in progress")
	ErrEditorUnknown = errors.New("editor not found")
)

// Load steps
const (
	StepRoster     = "roster"
	StepAttendance = "attendance"
	StepMerge      = "merge"
)

// LoadFailure reports that a roster could not be loaded. No partial roster
// is ever produced alongside it.
type LoadFailure struct {
	Step string
	Err  error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("load roster: %s: %v", e.Step, e.Err)
}

func (e *LoadFailure) Unwrap() error {
	return e.Err
}

// Phase names the save step that failed.
type Phase string

const (
	PhaseFetch   Phase = "fetch"
	PhaseDelete  Phase = "delete"
	PhaseUpsert  Phase = "upsert"
	PhaseReplace Phase = "replace"
)

// SaveFailure reports that a save did not complete. Partial is true when
// remote rows were already deleted before the failing step, so the session
// now holds fewer records than before the save.
type SaveFailure struct {
	Phase   Phase
	Partial bool
	Plan    SavePlan
	Err     error
}

func (e *SaveFailure) Error() string {
	if e.Partial {
		return fmt.Sprintf("save attendance: %s failed after %d rows were deleted: %v", e.Phase, len(e.Plan.ToDelete), e.Err)
	}
	return fmt.Sprintf("save attendance: %s: %v", e.Phase, e.Err)
}

func (e *SaveFailure) Unwrap() error {
	return e.Err
}

// IsLoadFailure reports whether err is or wraps a LoadFailure.
func IsLoadFailure(err error) bool {
	var lf *LoadFailure
	return errors.As(err, &lf)
}

// AsSaveFailure extracts a SaveFailure from err.
func AsSaveFailure(err error) (*SaveFailure, bool) {
	var sf *SaveFailure
	if errors.As(err, &sf) {
		return sf, true
	}
	return nil, false
}
