package savelog

import (
	"context"

	domain "swimtrack/internal/domain/savelog"
)

// Store defines the interface for the local attendance save journal.
type Store interface {
	// Save appends a journal event.
	// PRE: event validates
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// List returns journal events matching filter, newest first.
	// PRE: limit > 0
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)

	// LatestBySession returns the most recent event for each session id that has one.
	// POST: sessions with no journalled save are absent from the map
	LatestBySession(ctx context.Context, sessionIDs []int) (map[int]domain.Event, error)
}

// Filter narrows List. Nil fields do not filter.
type Filter struct {
	SessionID *int
	Outcome   *domain.Outcome
	Since     *string
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
