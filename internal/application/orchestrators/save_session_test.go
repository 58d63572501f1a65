package orchestrators

import (
	"context"
	"errors"
	"testing"

	"swimtrack/internal/domain/session"
)

// mockSessionWriter implements SessionWriter for testing.
type mockSessionWriter struct {
	inserted []session.Session
	updated  []session.Session
	deleted  []int
	nextID   int
	err      error
}

func (m *mockSessionWriter) InsertSession(_ context.Context, s session.Session) (session.Session, error) {
	if m.err != nil {
		return session.Session{}, m.err
	}
	m.nextID++
	s.ID = m.nextID
	m.inserted = append(m.inserted, s)
	return s, nil
}

func (m *mockSessionWriter) UpdateSession(_ context.Context, s session.Session) error {
	if m.err != nil {
		return m.err
	}
	m.updated = append(m.updated, s)
	return nil
}

func (m *mockSessionWriter) DeleteSession(_ context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func validSession() session.Session {
	s := session.New("2025-03-15")
	s.Title = "Aerobic base"
	return s
}

func TestExecuteSaveSession_InsertsWithoutID(t *testing.T) {
	store := &mockSessionWriter{nextID: 40}
	s := validSession()
	s.StartTime = "18:00:00"
	s.Groups = " ea "

	got, err := ExecuteSaveSession(context.Background(), SaveSessionInput{Session: s}, SaveSessionDeps{Sessions: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 41 {
		t.Errorf("ID = %d, want 41", got.ID)
	}
	if len(store.inserted) != 1 || len(store.updated) != 0 {
		t.Fatalf("inserted=%d updated=%d", len(store.inserted), len(store.updated))
	}
	if store.inserted[0].StartTime != "18:00" || store.inserted[0].Groups != "EA" {
		t.Errorf("session not normalised: %+v", store.inserted[0])
	}
}

func TestExecuteSaveSession_UpdatesWithID(t *testing.T) {
	store := &mockSessionWriter{}
	s := validSession()
	s.ID = 12

	got, err := ExecuteSaveSession(context.Background(), SaveSessionInput{Session: s}, SaveSessionDeps{Sessions: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 12 || len(store.updated) != 1 || len(store.inserted) != 0 {
		t.Errorf("got %+v, inserted=%d updated=%d", got, len(store.inserted), len(store.updated))
	}
}

func TestExecuteSaveSession_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*session.Session)
		want   error
	}{
		{"empty title", func(s *session.Session) { s.Title = "  " }, session.ErrEmptyTitle},
		{"bad date", func(s *session.Session) { s.Date = "15/03/2025" }, session.ErrInvalidDate},
		{"bad type", func(s *session.Session) { s.Type = "Run" }, session.ErrInvalidType},
		{"negative id", func(s *session.Session) { s.ID = -1 }, ErrInvalidSessionID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockSessionWriter{}
			s := validSession()
			tt.mutate(&s)
			_, err := ExecuteSaveSession(context.Background(), SaveSessionInput{Session: s}, SaveSessionDeps{Sessions: store})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(store.inserted)+len(store.updated) != 0 {
				t.Error("invalid session reached the store")
			}
		})
	}
}

func TestExecuteSaveSession_StoreError(t *testing.T) {
	store := &mockSessionWriter{err: errors.New("gateway down")}
	_, err := ExecuteSaveSession(context.Background(), SaveSessionInput{Session: validSession()}, SaveSessionDeps{Sessions: store})
	if err == nil {
		t.Fatal("expected store error")
	}
}

func TestExecuteDeleteSession(t *testing.T) {
	store := &mockSessionWriter{}
	if err := ExecuteDeleteSession(context.Background(), DeleteSessionInput{SessionID: 9}, DeleteSessionDeps{Sessions: store}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 9 {
		t.Errorf("deleted = %v", store.deleted)
	}

	err := ExecuteDeleteSession(context.Background(), DeleteSessionInput{}, DeleteSessionDeps{Sessions: store})
	if !errors.Is(err, ErrInvalidSessionID) {
		t.Errorf("err = %v, want ErrInvalidSessionID", err)
	}
}
