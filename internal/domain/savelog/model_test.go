package savelog_test

import (
	"errors"
	"testing"

	"swimtrack/internal/domain/savelog"
)

// TestNewEvent verifies defaults of a fresh event.
func TestNewEvent(t *testing.T) {
	e := savelog.NewEvent(12, "ASS")
	if e.ID == "" {
		t.Error("ID is empty")
	}
	if e.At.IsZero() {
		t.Error("At is zero")
	}
	if !e.Succeeded() {
		t.Errorf("Outcome = %q, want ok", e.Outcome)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

// TestWithFailure verifies failed versus partial outcomes.
func TestWithFailure(t *testing.T) {
	base := savelog.NewEvent(12, "ASS").WithPlan(2, 5)
	boom := errors.New("boom")

	failed := base.WithFailure("delete", false, boom)
	if failed.Outcome != savelog.OutcomeFailed || failed.Phase != "delete" || failed.Error != "boom" {
		t.Errorf("failed = %+v", failed)
	}
	partial := base.WithFailure("upsert", true, boom)
	if partial.Outcome != savelog.OutcomePartial {
		t.Errorf("Outcome = %q, want partial", partial.Outcome)
	}
	if !base.Succeeded() {
		t.Error("WithFailure mutated the receiver")
	}
}

// TestValidate tests validation of Event.
func TestValidate(t *testing.T) {
	e := savelog.Event{Outcome: savelog.OutcomeOK}
	if err := e.Validate(); err != savelog.ErrMissingSession {
		t.Errorf("err = %v, want ErrMissingSession", err)
	}
	e = savelog.Event{SessionID: 1, Outcome: "maybe"}
	if err := e.Validate(); err != savelog.ErrInvalidOutcome {
		t.Errorf("err = %v, want ErrInvalidOutcome", err)
	}
}
