package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"swimtrack/internal/domain/attendance"
)

const attendanceTable = "attendance"

// ListAttendance returns the persisted records of a session.
// PRE: sessionID > 0
// POST: Returns the (fincode, status) rows stored for the session
func (c *Client) ListAttendance(ctx context.Context, sessionID int) ([]attendance.Record, error) {
	var rows []attendance.Record
	err := c.do(ctx, request{
		method:   http.MethodGet,
		resource: attendanceTable,
		query: url.Values{
			"select":     {"fincode,status"},
			"session_id": {eq(sessionID)},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].SessionID = sessionID
	}
	return rows, nil
}

// DeleteAttendance removes the rows of fincodes for a session.
// PRE: sessionID > 0, fincodes non-empty
// POST: matching rows are gone; missing rows are not an error
func (c *Client) DeleteAttendance(ctx context.Context, sessionID int, fincodes []int) error {
	if len(fincodes) == 0 {
		return nil
	}
	return c.do(ctx, request{
		method:   http.MethodDelete,
		resource: attendanceTable,
		query: url.Values{
			"session_id": {eq(sessionID)},
			"fincode":    {inList(fincodes)},
		},
	}, nil)
}

// UpsertAttendance inserts or replaces records keyed on (session_id, fincode).
// PRE: every record validates
// POST: each (session_id, fincode) row holds the given status
func (c *Client) UpsertAttendance(ctx context.Context, records []attendance.Record) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return fmt.Errorf("postgrest: upsert attendance: %w", err)
		}
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		resource: attendanceTable,
		query:    url.Values{"on_conflict": {"session_id,fincode"}},
		body:     records,
		prefer:   []string{"resolution=merge-duplicates", "return=minimal"},
	}, nil)
}

// AtomicClient adds a transactional attendance replace on top of Client. It
// calls a database function taking (p_session_id, p_delete, p_upsert) that
// deletes and upserts inside one transaction.
type AtomicClient struct {
	*Client
	function string
}

// NewAtomicClient wraps c so that saves go through function.
// PRE: function exists in the remote schema
func NewAtomicClient(c *Client, function string) *AtomicClient {
	return &AtomicClient{Client: c, function: function}
}

type replaceArgs struct {
	SessionID int                 `json:"p_session_id"`
	Delete    []int               `json:"p_delete"`
	Upsert    []attendance.Record `json:"p_upsert"`
}

// ReplaceAttendance applies deletes and upserts for a session atomically.
// POST: either every change is applied or none is
func (a *AtomicClient) ReplaceAttendance(ctx context.Context, sessionID int, deletes []int, upserts []attendance.Record) error {
	if deletes == nil {
		deletes = []int{}
	}
	if upserts == nil {
		upserts = []attendance.Record{}
	}
	return a.do(ctx, request{
		method:   http.MethodPost,
		resource: "rpc/" + a.function,
		body:     replaceArgs{SessionID: sessionID, Delete: deletes, Upsert: upserts},
	}, nil)
}
