package postgrest

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"swimtrack/internal/domain/session"
)

const sessionsTable = "sessions"

// ErrSessionNotFound is returned by GetSession when no row matches.
var ErrSessionNotFound = errors.New("postgrest: session not found")

// ListSessionsByDate returns the sessions scheduled on date.
// PRE: date is YYYY-MM-DD
func (c *Client) ListSessionsByDate(ctx context.Context, date string) ([]session.Session, error) {
	var rows []session.Session
	err := c.do(ctx, request{
		method:   http.MethodGet,
		resource: sessionsTable,
		query: url.Values{
			"select": {"*"},
			"date":   {eq(date)},
			"order":  {"starttime.asc"},
		},
	}, &rows)
	return rows, err
}

// ListSessionsInRange returns the sessions between from and to, both inclusive.
// PRE: from and to are YYYY-MM-DD, from <= to
func (c *Client) ListSessionsInRange(ctx context.Context, from, to string) ([]session.Session, error) {
	var rows []session.Session
	q := url.Values{
		"select": {"*"},
		"order":  {"date.asc,starttime.asc"},
	}
	// two filters on one column need repeated keys
	q.Add("date", "gte."+from)
	q.Add("date", "lte."+to)
	err := c.do(ctx, request{method: http.MethodGet, resource: sessionsTable, query: q}, &rows)
	return rows, err
}

// GetSession returns one session by id.
// POST: returns ErrSessionNotFound when the id is unknown
func (c *Client) GetSession(ctx context.Context, id int) (session.Session, error) {
	var rows []session.Session
	err := c.do(ctx, request{
		method:   http.MethodGet,
		resource: sessionsTable,
		query: url.Values{
			"select":     {"*"},
			"session_id": {eq(id)},
		},
	}, &rows)
	if err != nil {
		return session.Session{}, err
	}
	if len(rows) == 0 {
		return session.Session{}, ErrSessionNotFound
	}
	return rows[0], nil
}

// InsertSession creates a session and returns it with its new id.
// PRE: s validates and s.ID == 0
func (c *Client) InsertSession(ctx context.Context, s session.Session) (session.Session, error) {
	s.ID = 0
	var rows []session.Session
	err := c.do(ctx, request{
		method:   http.MethodPost,
		resource: sessionsTable,
		body:     []session.Session{s},
		prefer:   []string{"return=representation"},
	}, &rows)
	if err != nil {
		return session.Session{}, err
	}
	if len(rows) == 0 {
		return session.Session{}, errors.New("postgrest: insert session returned no row")
	}
	return rows[0], nil
}

// UpdateSession overwrites a session; the id itself is never changed.
// PRE: s validates and s.ID > 0
func (c *Client) UpdateSession(ctx context.Context, s session.Session) error {
	id := s.ID
	s.ID = 0
	return c.do(ctx, request{
		method:   http.MethodPatch,
		resource: sessionsTable,
		query:    url.Values{"session_id": {eq(id)}},
		body:     s,
		prefer:   []string{"return=minimal"},
	}, nil)
}

// DeleteSession removes a session by id.
func (c *Client) DeleteSession(ctx context.Context, id int) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		resource: sessionsTable,
		query:    url.Values{"session_id": {eq(id)}},
	}, nil)
}
