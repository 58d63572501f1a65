package postgrest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"swimtrack/internal/adapters/gateway/postgrest"
	"swimtrack/internal/adapters/http/perf"
	"swimtrack/internal/application/editor"
	"swimtrack/internal/domain/athlete"
	"swimtrack/internal/domain/attendance"
	"swimtrack/internal/domain/session"
	"swimtrack/internal/domain/stats"
)

// Compile-time checks that the client serves the editor.
var (
	_ editor.Gateway        = (*postgrest.Client)(nil)
	_ editor.AtomicReplacer = (*postgrest.AtomicClient)(nil)
)

// captured is one request seen by the fake server.
type captured struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     string
}

type fakeServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []captured
}

// newFakeServer answers every request with status and body.
func newFakeServer(t *testing.T, status int, body string) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		fs.mu.Lock()
		fs.requests = append(fs.requests, captured{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     string(raw),
		})
		fs.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) last(t *testing.T) captured {
	t.Helper()
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.requests) == 0 {
		t.Fatal("no request captured")
	}
	return fs.requests[len(fs.requests)-1]
}

func newClient(t *testing.T, fs *fakeServer, collector *perf.Collector) *postgrest.Client {
	t.Helper()
	c, err := postgrest.NewClient(postgrest.Config{BaseURL: fs.URL, APIKey: "anon-key", Collector: collector})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

// TestNewClient_Validation verifies required config.
func TestNewClient_Validation(t *testing.T) {
	if _, err := postgrest.NewClient(postgrest.Config{APIKey: "k"}); !errors.Is(err, postgrest.ErrMissingConfig) {
		t.Errorf("missing URL err = %v", err)
	}
	if _, err := postgrest.NewClient(postgrest.Config{BaseURL: "example.com", APIKey: "k"}); err == nil {
		t.Error("relative URL accepted")
	}
}

// TestListAttendance verifies the query, the headers and the session id fill-in.
func TestListAttendance(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, `[{"fincode":1,"status":"P"},{"fincode":2,"status":"A"}]`)
	collector := perf.NewCollector(10)
	c := newClient(t, fs, collector)

	recs, err := c.ListAttendance(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListAttendance: %v", err)
	}
	if len(recs) != 2 || recs[0].SessionID != 42 || recs[1].Status != attendance.StatusAbsent {
		t.Errorf("records = %+v", recs)
	}

	req := fs.last(t)
	if req.Method != http.MethodGet || req.Path != "/rest/v1/attendance" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	if !strings.Contains(req.RawQuery, "session_id=eq.42") || !strings.Contains(req.RawQuery, "select=fincode,status") {
		t.Errorf("query = %q", req.RawQuery)
	}
	if req.Header.Get("apikey") != "anon-key" || req.Header.Get("Authorization") != "Bearer anon-key" {
		t.Errorf("auth headers = %v", req.Header)
	}
	if collector.TotalRecorded() != 1 {
		t.Errorf("collector recorded %d, want 1", collector.TotalRecorded())
	}
}

// TestDeleteAttendance verifies the in-list filter is sent unescaped.
func TestDeleteAttendance(t *testing.T) {
	fs := newFakeServer(t, http.StatusNoContent, "")
	c := newClient(t, fs, nil)

	if err := c.DeleteAttendance(context.Background(), 7, []int{1, 4}); err != nil {
		t.Fatalf("DeleteAttendance: %v", err)
	}
	req := fs.last(t)
	if req.Method != http.MethodDelete {
		t.Errorf("method = %s", req.Method)
	}
	if !strings.Contains(req.RawQuery, "fincode=in.(1,4)") || !strings.Contains(req.RawQuery, "session_id=eq.7") {
		t.Errorf("query = %q", req.RawQuery)
	}
}

// TestQueryOrderIsStable verifies repeated calls send the same URL, with
// repeated filters on one column kept in order.
func TestQueryOrderIsStable(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, `[]`)
	c := newClient(t, fs, nil)

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{
			name: "delete attendance",
			call: func() error { return c.DeleteAttendance(context.Background(), 7, []int{1, 4}) },
			want: "fincode=in.(1,4)&session_id=eq.7",
		},
		{
			name: "sessions in range",
			call: func() error {
				_, err := c.ListSessionsInRange(context.Background(), "2025-03-10", "2025-03-16")
				return err
			},
			want: "date=gte.2025-03-10&date=lte.2025-03-16&order=date.asc,starttime.asc&select=%2A",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				if err := tt.call(); err != nil {
					t.Fatalf("call %d: %v", i, err)
				}
				if got := fs.last(t).RawQuery; got != tt.want {
					t.Fatalf("call %d: query = %q, want %q", i, got, tt.want)
				}
			}
		})
	}
}

// TestDeleteAttendance_EmptyIsNoop verifies no request for an empty list.
func TestDeleteAttendance_EmptyIsNoop(t *testing.T) {
	fs := newFakeServer(t, http.StatusNoContent, "")
	c := newClient(t, fs, nil)
	if err := c.DeleteAttendance(context.Background(), 7, nil); err != nil {
		t.Fatalf("DeleteAttendance: %v", err)
	}
	if len(fs.requests) != 0 {
		t.Errorf("requests = %d, want 0", len(fs.requests))
	}
}

// TestUpsertAttendance verifies the conflict key and merge preference.
func TestUpsertAttendance(t *testing.T) {
	fs := newFakeServer(t, http.StatusCreated, "")
	c := newClient(t, fs, nil)

	recs := []attendance.Record{{SessionID: 7, Fincode: 2, Status: attendance.StatusPresent}}
	if err := c.UpsertAttendance(context.Background(), recs); err != nil {
		t.Fatalf("UpsertAttendance: %v", err)
	}
	req := fs.last(t)
	if req.Method != http.MethodPost || !strings.Contains(req.RawQuery, "on_conflict=session_id,fincode") {
		t.Errorf("request = %s ?%s", req.Method, req.RawQuery)
	}
	if !strings.Contains(req.Header.Get("Prefer"), "resolution=merge-duplicates") {
		t.Errorf("Prefer = %q", req.Header.Get("Prefer"))
	}
	var sent []attendance.Record
	if err := json.Unmarshal([]byte(req.Body), &sent); err != nil {
		t.Fatalf("body: %v", err)
	}
	if len(sent) != 1 || sent[0] != recs[0] {
		t.Errorf("sent = %+v", sent)
	}
}

// TestUpsertAttendance_RejectsNotSet verifies N is never written.
func TestUpsertAttendance_RejectsNotSet(t *testing.T) {
	fs := newFakeServer(t, http.StatusCreated, "")
	c := newClient(t, fs, nil)
	err := c.UpsertAttendance(context.Background(), []attendance.Record{{SessionID: 7, Fincode: 2, Status: attendance.StatusNotSet}})
	if !errors.Is(err, attendance.ErrNotPersistable) {
		t.Errorf("err = %v, want ErrNotPersistable", err)
	}
	if len(fs.requests) != 0 {
		t.Error("request sent for invalid record")
	}
}

// TestAPIError verifies PostgREST error bodies are decoded.
func TestAPIError(t *testing.T) {
	fs := newFakeServer(t, http.StatusConflict, `{"code":"23505","message":"duplicate key","details":"Key exists","hint":null}`)
	collector := perf.NewCollector(10)
	c := newClient(t, fs, collector)

	_, err := c.ListAttendance(context.Background(), 1)
	var apiErr *postgrest.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Code != "23505" || apiErr.Details != "Key exists" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if postgrest.IsNotFound(err) {
		t.Error("conflict reported as not found")
	}
	if collector.GatewayErrors() != 1 {
		t.Errorf("GatewayErrors = %d, want 1", collector.GatewayErrors())
	}
}

// TestAPIError_PlainBody keeps a non-JSON body as the message.
func TestAPIError_PlainBody(t *testing.T) {
	fs := newFakeServer(t, http.StatusBadGateway, "upstream down")
	c := newClient(t, fs, nil)
	_, err := c.ListSeasons(context.Background())
	var apiErr *postgrest.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "upstream down" {
		t.Errorf("err = %v", err)
	}
}

// TestRosterBySeasonAndGroup verifies the function arguments and team fallback.
func TestRosterBySeasonAndGroup(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, `[{"fincode":10,"name":"Anna","groups":" ass "},{"fincode":11,"name":"","team":"ea"}]`)
	c := newClient(t, fs, nil)

	got, err := c.RosterBySeasonAndGroup(context.Background(), "2024-25", "ASS")
	if err != nil {
		t.Fatalf("RosterBySeasonAndGroup: %v", err)
	}
	if len(got) != 2 || got[0].Groups != "ASS" || got[1].Groups != "EA" || got[1].Name != athlete.UnnamedAthlete {
		t.Errorf("athletes = %+v", got)
	}
	req := fs.last(t)
	if req.Path != "/rest/v1/rpc/get_athletes_with_rosters" {
		t.Errorf("path = %s", req.Path)
	}
	var args map[string]string
	json.Unmarshal([]byte(req.Body), &args)
	if args["paramseason"] != "2024-25" || args["paramgroups"] != "ASS" {
		t.Errorf("args = %v", args)
	}
}

// TestListSeasons verifies ordering and date parsing.
func TestListSeasons(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, `[{"seasonid":3,"description":"2025-26","seasonstart":"2025-09-01","seasonend":"2026-08-31"}]`)
	c := newClient(t, fs, nil)

	got, err := c.ListSeasons(context.Background())
	if err != nil {
		t.Fatalf("ListSeasons: %v", err)
	}
	if len(got) != 1 || got[0].Description != "2025-26" || got[0].Start.Month() != time.September {
		t.Errorf("seasons = %+v", got)
	}
	if req := fs.last(t); !strings.Contains(req.RawQuery, "order=seasonid.desc") || req.Path != "/rest/v1/_seasons" {
		t.Errorf("request = %s ?%s", req.Path, req.RawQuery)
	}
}

// TestSessions verifies session CRUD requests.
func TestSessions(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, `[{"session_id":5,"title":"Aerobic","date":"2025-03-15","starttime":"18:00","endtime":"20:00","type":"Swim","groups":"ASS","poollength":25}]`)
	c := newClient(t, fs, nil)
	ctx := context.Background()

	s, err := c.GetSession(ctx, 5)
	if err != nil || s.ID != 5 || s.Title != "Aerobic" {
		t.Fatalf("GetSession = %+v, %v", s, err)
	}

	created, err := c.InsertSession(ctx, session.Session{ID: 99, Title: "Aerobic"})
	if err != nil || created.ID != 5 {
		t.Fatalf("InsertSession = %+v, %v", created, err)
	}
	if req := fs.last(t); strings.Contains(req.Body, "session_id") {
		t.Errorf("insert body carries an id: %s", req.Body)
	}

	if err := c.UpdateSession(ctx, session.Session{ID: 5, Title: "Renamed"}); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	req := fs.last(t)
	if req.Method != http.MethodPatch || !strings.Contains(req.RawQuery, "session_id=eq.5") || strings.Contains(req.Body, "session_id") {
		t.Errorf("update request = %s ?%s %s", req.Method, req.RawQuery, req.Body)
	}

	if _, err := c.ListSessionsInRange(ctx, "2025-03-10", "2025-03-16"); err != nil {
		t.Fatalf("ListSessionsInRange: %v", err)
	}
	if req := fs.last(t); !strings.Contains(req.RawQuery, "date=gte.2025-03-10") || !strings.Contains(req.RawQuery, "date=lte.2025-03-16") {
		t.Errorf("range query = %q", req.RawQuery)
	}
}

// TestGetSession_NotFound verifies an empty answer maps to ErrSessionNotFound.
func TestGetSession_NotFound(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, `[]`)
	c := newClient(t, fs, nil)
	if _, err := c.GetSession(context.Background(), 5); !errors.Is(err, postgrest.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

// TestAttendanceStatsBySeason verifies null filters and ordering.
func TestAttendanceStatsBySeason(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, `[{"fincode":1,"name":"Anna","presenze":10,"giustificate":2,"total_sessions":12,"percent":83.3},{"fincode":2,"name":"Bruno","presenze":0,"giustificate":0,"total_sessions":0,"percent":null}]`)
	c := newClient(t, fs, nil)

	rows, err := c.AttendanceStatsBySeason(context.Background(), stats.Filter{Season: "2024-25", Group: "EA"})
	if err != nil {
		t.Fatalf("AttendanceStatsBySeason: %v", err)
	}
	if len(rows) != 2 || rows[0].Present != 10 || rows[1].Percent != nil {
		t.Errorf("rows = %+v", rows)
	}
	req := fs.last(t)
	if !strings.Contains(req.RawQuery, "order=percent.desc") {
		t.Errorf("query = %q", req.RawQuery)
	}
	var args map[string]*string
	json.Unmarshal([]byte(req.Body), &args)
	if args["session_type"] != nil || args["group_name"] == nil || *args["group_name"] != "EA" {
		t.Errorf("args = %s", req.Body)
	}
}

// TestMonthlyAttendancePercentage verifies the trend function call.
func TestMonthlyAttendancePercentage(t *testing.T) {
	fs := newFakeServer(t, http.StatusOK, `[{"month":"2024-09","attendance_percentage":75}]`)
	c := newClient(t, fs, nil)
	rows, err := c.MonthlyAttendancePercentage(context.Background(), 10, "2024-25", "Swim")
	if err != nil || len(rows) != 1 || rows[0].Percent != 75 {
		t.Fatalf("rows = %+v, err = %v", rows, err)
	}
	if !strings.Contains(fs.last(t).Body, `"fincode_input":10`) {
		t.Errorf("body = %s", fs.last(t).Body)
	}
}

// TestAtomicClient verifies the replace function is called with both sets.
func TestAtomicClient(t *testing.T) {
	fs := newFakeServer(t, http.StatusNoContent, "")
	c := postgrest.NewAtomicClient(newClient(t, fs, nil), "replace_session_attendance")
	err := c.ReplaceAttendance(context.Background(), 7, nil, []attendance.Record{{SessionID: 7, Fincode: 1, Status: attendance.StatusJustified}})
	if err != nil {
		t.Fatalf("ReplaceAttendance: %v", err)
	}
	req := fs.last(t)
	if req.Path != "/rest/v1/rpc/replace_session_attendance" {
		t.Errorf("path = %s", req.Path)
	}
	if !strings.Contains(req.Body, `"p_delete":[]`) || !strings.Contains(req.Body, `"p_session_id":7`) {
		t.Errorf("body = %s", req.Body)
	}
}

// TestCountAthletes verifies the exact count is read from Content-Range.
func TestCountAthletes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Prefer") != "count=exact" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Range", "0-0/42")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	c, _ := postgrest.NewClient(postgrest.Config{BaseURL: srv.URL + "/rest/v1", APIKey: "k"})

	n, err := c.CountAthletes(context.Background())
	if err != nil || n != 42 {
		t.Errorf("CountAthletes = %d, %v", n, err)
	}
}

// TestContextCancel verifies a cancelled context aborts the call.
func TestContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)
	c, _ := postgrest.NewClient(postgrest.Config{BaseURL: srv.URL, APIKey: "k"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.ListAttendance(ctx, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}
