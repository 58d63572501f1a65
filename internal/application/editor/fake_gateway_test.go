package editor

import (
	"context"
	"sort"
	"sync"

	"swimtrack/internal/domain/athlete"
	"swimtrack/internal/domain/attendance"
)

// fakeGateway is an in-memory Gateway with injectable failures.
type fakeGateway struct {
	mu       sync.Mutex
	athletes []athlete.Athlete
	records  map[int]map[int]attendance.Status

	rosterErr error
	listErr   error
	deleteErr error
	upsertErr error

	// block, when set, makes RosterBySeasonAndGroup wait for release or ctx.
	block   chan struct{}
	entered chan struct{}
	// ignoreCtx makes a blocked call wait for release only.
	ignoreCtx bool

	calls []string
}

func newFakeGateway(athletes ...athlete.Athlete) *fakeGateway {
	return &fakeGateway{athletes: athletes, records: make(map[int]map[int]attendance.Status)}
}

func (f *fakeGateway) seed(sessionID int, recs map[int]attendance.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[sessionID] = recs
}

func (f *fakeGateway) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeGateway) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// persisted returns the stored rows of a session.
func (f *fakeGateway) persisted(sessionID int) map[int]attendance.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]attendance.Status)
	for k, v := range f.records[sessionID] {
		out[k] = v
	}
	return out
}

func (f *fakeGateway) RosterBySeasonAndGroup(ctx context.Context, _, _ string) ([]athlete.Athlete, error) {
	f.record("roster")
	if f.block != nil {
		if f.entered != nil {
			close(f.entered)
		}
		if f.ignoreCtx {
			<-f.block
		} else {
			select {
			case <-f.block:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	return append([]athlete.Athlete(nil), f.athletes...), nil
}

func (f *fakeGateway) ListAttendance(_ context.Context, sessionID int) ([]attendance.Record, error) {
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Record
	for fincode, status := range f.records[sessionID] {
		out = append(out, attendance.Record{SessionID: sessionID, Fincode: fincode, Status: status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fincode < out[j].Fincode })
	return out, nil
}

func (f *fakeGateway) DeleteAttendance(_ context.Context, sessionID int, fincodes []int) error {
	f.record("delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fc := range fincodes {
		delete(f.records[sessionID], fc)
	}
	return nil
}

func (f *fakeGateway) UpsertAttendance(_ context.Context, records []attendance.Record) error {
	f.record("upsert")
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		if f.records[r.SessionID] == nil {
			f.records[r.SessionID] = make(map[int]attendance.Status)
		}
		f.records[r.SessionID][r.Fincode] = r.Status
	}
	return nil
}

// atomicGateway adds a transactional replace to fakeGateway.
type atomicGateway struct {
	*fakeGateway
	replaceErr error
}

func (a *atomicGateway) ReplaceAttendance(ctx context.Context, sessionID int, deletes []int, upserts []attendance.Record) error {
	a.record("replace")
	if a.replaceErr != nil {
		return a.replaceErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	rows := a.records[sessionID]
	if rows == nil {
		rows = make(map[int]attendance.Status)
		a.records[sessionID] = rows
	}
	for _, fc := range deletes {
		delete(rows, fc)
	}
	for _, r := range upserts {
		rows[r.Fincode] = r.Status
	}
	return nil
}
