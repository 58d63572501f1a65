package attendance

import (
	"errors"
	"fmt"
)

// Status is the attendance mark of one athlete for one session.
type Status string

// Status values. The zero value behaves as StatusNotSet.
const (
	StatusNotSet    Status = "N"
	StatusPresent   Status = "P"
	StatusJustified Status = "J"
	StatusAbsent    Status = "A"
)

// AllStatuses lists every status in cycle order.
var AllStatuses = []Status{StatusNotSet, StatusPresent, StatusJustified, StatusAbsent}

// Domain errors
var (
	ErrInvalidStatus  = errors.New("status must be one of N, P, J, A")
	ErrNotPersistable = errors.New("status N is never persisted")
	ErrInvalidSession = errors.New("attendance must reference a session")
	ErrInvalidFincode = errors.New("attendance must reference an athlete fincode")
)

// ParseStatus converts a wire value into a Status.
// PRE: none
// POST: Returns StatusNotSet for "", ErrInvalidStatus for unknown values
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "", StatusNotSet:
		return StatusNotSet, nil
	case StatusPresent, StatusJustified, StatusAbsent:
		return Status(s), nil
	}
	return StatusNotSet, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Normalize maps the zero value to StatusNotSet.
func (s Status) Normalize() Status {
	if s == "" {
		return StatusNotSet
	}
	return s
}

// Next returns the status that follows s in the tap cycle N -> P -> J -> A -> N.
// INVARIANT: result is always one of AllStatuses; applying Next four times is the identity
func (s Status) Next() Status {
	switch s {
	case StatusPresent:
		return StatusJustified
	case StatusJustified:
		return StatusAbsent
	case StatusAbsent:
		return StatusNotSet
	default:
		return StatusPresent
	}
}

// Valid reports whether s is one of the four defined values.
func (s Status) Valid() bool {
	switch s {
	case StatusNotSet, StatusPresent, StatusJustified, StatusAbsent:
		return true
	}
	return false
}

// Persisted reports whether a record with this status is stored remotely.
// Absence of a remote record means StatusNotSet.
func (s Status) Persisted() bool {
	return s == StatusPresent || s == StatusJustified || s == StatusAbsent
}

// Label returns the display label for s.
func (s Status) Label() string {
	switch s {
	case StatusPresent:
		return "Present"
	case StatusJustified:
		return "Justified"
	case StatusAbsent:
		return "Absent"
	default:
		return "Not set"
	}
}

// Record is the persisted attendance row, keyed by (SessionID, Fincode).
type Record struct {
	SessionID int    `json:"session_id"`
	Fincode   int    `json:"fincode"`
	Status    Status `json:"status"`
}

// Validate checks if the Record can be persisted.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: only P, J and A are ever written
func (r *Record) Validate() error {
	if r.SessionID <= 0 {
		return ErrInvalidSession
	}
	if r.Fincode <= 0 {
		return ErrInvalidFincode
	}
	if !r.Status.Valid() {
		return ErrInvalidStatus
	}
	if !r.Status.Persisted() {
		return ErrNotPersistable
	}
	return nil
}
