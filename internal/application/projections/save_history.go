package projections

import (
	"context"

	savelogStore "swimtrack/internal/adapters/storage/savelog"
	"swimtrack/internal/domain/savelog"
)

// DefaultSaveHistoryLimit bounds the journal listing when no limit is given.
const DefaultSaveHistoryLimit = 50

// SaveHistoryReader lists journalled saves.
type SaveHistoryReader interface {
	List(ctx context.Context, filter savelogStore.Filter, limit int) ([]savelog.Event, error)
}

// GetSaveHistoryQuery carries input for the save history projection.
type GetSaveHistoryQuery struct {
	SessionID int
	Limit     int
}

// GetSaveHistoryDeps holds dependencies for the save history projection.
type GetSaveHistoryDeps struct {
	Journal SaveHistoryReader
}

// QueryGetSaveHistory returns a session's journalled saves, newest first.
// PRE: SessionID > 0
func QueryGetSaveHistory(ctx context.Context, query GetSaveHistoryQuery, deps GetSaveHistoryDeps) ([]savelog.Event, error) {
	if query.SessionID <= 0 {
		return nil, savelog.ErrMissingSession
	}
	limit := query.Limit
	if limit <= 0 || limit > DefaultSaveHistoryLimit {
		limit = DefaultSaveHistoryLimit
	}
	id := query.SessionID
	events, err := deps.Journal.List(ctx, savelogStore.Filter{SessionID: &id}, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []savelog.Event{}
	}
	return events, nil
}
