package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"swimtrack/internal/domain/athlete"
)

// AthleteWriter defines the remote writes needed by the athlete orchestrators.
type AthleteWriter interface {
	UpdateAthlete(ctx context.Context, a athlete.Athlete) error
	DeleteAthlete(ctx context.Context, fincode int) error
}

// UpdateAthleteInput carries input for the update athlete orchestrator.
type UpdateAthleteInput struct {
	Athlete athlete.Athlete
}

// UpdateAthleteDeps holds dependencies for UpdateAthlete.
type UpdateAthleteDeps struct {
	Athletes AthleteWriter
}

// ExecuteUpdateAthlete normalises, validates and stores an athlete's details.
// PRE: Athlete.Fincode identifies an existing athlete
// POST: the stored athlete matches the returned value
func ExecuteUpdateAthlete(ctx context.Context, input UpdateAthleteInput, deps UpdateAthleteDeps) (athlete.Athlete, error) {
	a := input.Athlete
	// Normalize would fill in a placeholder name
	if strings.TrimSpace(a.Name) == "" {
		return athlete.Athlete{}, athlete.ErrEmptyName
	}
	a.Normalize()
	if err := a.Validate(); err != nil {
		return athlete.Athlete{}, err
	}
	if err := deps.Athletes.UpdateAthlete(ctx, a); err != nil {
		return athlete.Athlete{}, err
	}
	slog.Info("athlete_event", "event", "athlete_updated", "fincode", a.Fincode, "groups", a.Groups)
	return a, nil
}

// DeleteAthleteInput carries input for the delete athlete orchestrator.
type DeleteAthleteInput struct {
	Fincode int
}

// DeleteAthleteDeps holds dependencies for DeleteAthlete.
type DeleteAthleteDeps struct {
	Athletes AthleteWriter
}

// ExecuteDeleteAthlete removes an athlete.
// PRE: Fincode > 0
func ExecuteDeleteAthlete(ctx context.Context, input DeleteAthleteInput, deps DeleteAthleteDeps) error {
	if input.Fincode <= 0 {
		return athlete.ErrInvalidFincode
	}
	if err := deps.Athletes.DeleteAthlete(ctx, input.Fincode); err != nil {
		return err
	}
	slog.Info("athlete_event", "event", "athlete_deleted", "fincode", input.Fincode)
	return nil
}
