package savelog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"swimtrack/internal/adapters/storage"
	domain "swimtrack/internal/domain/savelog"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

const eventColumns = `id, session_id, group_code, outcome, phase, deleted, upserted, present, justified, absent, not_set, error, at`

// SQLiteStore implements the journal Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new journal store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save appends a journal event.
// PRE: event validates
// POST: Event is persisted
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO save_event (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Group, string(e.Outcome), e.Phase, e.Deleted, e.Upserted,
		e.Present, e.Justified, e.Absent, e.NotSet, e.Error, e.At.UTC().Format(timeLayout))
	return err
}

// List returns journal events matching filter, newest first.
// PRE: limit > 0
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM save_event WHERE 1=1`
	args := []any{}

	if filter.SessionID != nil {
		query += " AND session_id = ?"
		args = append(args, *filter.SessionID)
	}
	if filter.Outcome != nil {
		query += " AND outcome = ?"
		args = append(args, string(*filter.Outcome))
	}
	if filter.Since != nil {
		query += " AND at >= ?"
		args = append(args, *filter.Since)
	}

	query += " ORDER BY at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// LatestBySession returns the most recent event for each session id that has one.
// POST: sessions with no journalled save are absent from the map
func (s *SQLiteStore) LatestBySession(ctx context.Context, sessionIDs []int) (map[int]domain.Event, error) {
	out := make(map[int]domain.Event, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sessionIDs)), ",")
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		args[i] = id
	}
	// ties on at are broken by id so the pick is stable
	query := fmt.Sprintf(`SELECT %s FROM save_event e
		WHERE session_id IN (%s)
		AND id = (SELECT id FROM save_event x WHERE x.session_id = e.session_id ORDER BY at DESC, id DESC LIMIT 1)`,
		eventColumns, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out[e.SessionID] = e
	}
	return out, rows.Err()
}

func scanEvent(rows *sql.Rows) (domain.Event, error) {
	var e domain.Event
	var outcome, at string
	err := rows.Scan(&e.ID, &e.SessionID, &e.Group, &outcome, &e.Phase, &e.Deleted, &e.Upserted,
		&e.Present, &e.Justified, &e.Absent, &e.NotSet, &e.Error, &at)
	if err != nil {
		return domain.Event{}, err
	}
	e.Outcome = domain.Outcome(outcome)
	e.At, _ = time.Parse(timeLayout, at)
	return e, nil
}
