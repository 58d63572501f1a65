package web

import (
	"context"
	"sort"
	"sync"

	"swimtrack/internal/adapters/gateway/postgrest"
	"swimtrack/internal/domain/athlete"
	"swimtrack/internal/domain/attendance"
	"swimtrack/internal/domain/season"
	"swimtrack/internal/domain/session"
	"swimtrack/internal/domain/stats"
)

// fakeRemote is an in-memory remote store. It serves both the handlers and
// the editors, so a save is visible to the next load.
type fakeRemote struct {
	mu       sync.Mutex
	seasons  []season.Season
	athletes []athlete.Athlete
	sessions map[int]session.Session
	records  map[int]map[int]attendance.Status
	stats    []stats.AthleteStat
	monthly  []stats.MonthlyPercentage
	nextID   int

	rosterErr error
	upsertErr error
	countErr  error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		seasons: []season.Season{{ID: 2, Description: "2024-25"}, {ID: 1, Description: "2023-24"}},
		athletes: []athlete.Athlete{
			{Fincode: 101, Name: "Rossi Anna", Groups: "ASS"},
			{Fincode: 102, Name: "Bianchi Luca", Groups: "ASS"},
			{Fincode: 103, Name: "Verdi Sara", Groups: "ASS"},
		},
		sessions: map[int]session.Session{},
		records:  map[int]map[int]attendance.Status{},
		nextID:   1,
	}
}

func (f *fakeRemote) ListSeasons(context.Context) ([]season.Season, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]season.Season(nil), f.seasons...), nil
}

func (f *fakeRemote) CountAthletes(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.athletes), nil
}

func (f *fakeRemote) RosterBySeasonAndGroup(_ context.Context, _, group string) ([]athlete.Athlete, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	var out []athlete.Athlete
	for _, a := range f.athletes {
		if a.Groups == group {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRemote) UpdateAthlete(_ context.Context, a athlete.Athlete) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.athletes {
		if f.athletes[i].Fincode == a.Fincode {
			f.athletes[i] = a
			return nil
		}
	}
	return &postgrest.APIError{Status: 404, Code: "PGRST116"}
}

func (f *fakeRemote) DeleteAthlete(_ context.Context, fincode int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.athletes {
		if f.athletes[i].Fincode == fincode {
			f.athletes = append(f.athletes[:i], f.athletes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRemote) ListSessionsByDate(_ context.Context, date string) ([]session.Session, error) {
	return f.filterSessions(func(s session.Session) bool { return s.Date == date }), nil
}

func (f *fakeRemote) ListSessionsInRange(_ context.Context, from, to string) ([]session.Session, error) {
	return f.filterSessions(func(s session.Session) bool { return s.Date >= from && s.Date <= to }), nil
}

func (f *fakeRemote) filterSessions(keep func(session.Session) bool) []session.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []session.Session
	for _, s := range f.sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func (f *fakeRemote) GetSession(_ context.Context, id int) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return session.Session{}, postgrest.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeRemote) InsertSession(_ context.Context, s session.Session) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.nextID
	f.nextID++
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeRemote) UpdateSession(_ context.Context, s session.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeRemote) DeleteSession(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	delete(f.records, id)
	return nil
}

func (f *fakeRemote) AttendanceStatsBySeason(context.Context, stats.Filter) ([]stats.AthleteStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stats.AthleteStat(nil), f.stats...), nil
}

func (f *fakeRemote) MonthlyAttendancePercentage(context.Context, int, string, string) ([]stats.MonthlyPercentage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stats.MonthlyPercentage(nil), f.monthly...), nil
}

func (f *fakeRemote) ListAttendance(_ context.Context, sessionID int) ([]attendance.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Record
	for fincode, st := range f.records[sessionID] {
		out = append(out, attendance.Record{SessionID: sessionID, Fincode: fincode, Status: st})
	}
	return out, nil
}

func (f *fakeRemote) DeleteAttendance(_ context.Context, sessionID int, fincodes []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fc := range fincodes {
		delete(f.records[sessionID], fc)
	}
	return nil
}

func (f *fakeRemote) UpsertAttendance(_ context.Context, records []attendance.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, rec := range records {
		if f.records[rec.SessionID] == nil {
			f.records[rec.SessionID] = map[int]attendance.Status{}
		}
		f.records[rec.SessionID][rec.Fincode] = rec.Status
	}
	return nil
}

func (f *fakeRemote) persisted(sessionID int) map[int]attendance.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int]attendance.Status{}
	for k, v := range f.records[sessionID] {
		out[k] = v
	}
	return out
}
