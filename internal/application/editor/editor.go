package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"swimtrack/internal/domain/roster"
	"swimtrack/internal/domain/season"
)

// DefaultCallTimeout bounds each gateway call made by an editor.
const DefaultCallTimeout = 20 * time.Second

// State is the lifecycle state of an editor.
type State string

const (
	StateUnloaded   State = "unloaded"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateLoadFailed State = "load_failed"
	StateClosed     State = "closed"
)

// Context errors
var (
	ErrInvalidSessionID   = errors.New("session id must be positive")
	ErrInvalidSessionDate = errors.New("session date must be YYYY-MM-DD")
	ErrMissingGroup       = errors.New("group is required")
)

// SessionContext identifies the session being edited. It does not change
// for the lifetime of an editor.
type SessionContext struct {
	SessionID   int    `json:"session_id"`
	SessionDate string `json:"session_date"`
	Group       string `json:"group"`
}

// Validate checks the context before an editor is built from it.
func (sc SessionContext) Validate() error {
	if sc.SessionID <= 0 {
		return ErrInvalidSessionID
	}
	if _, err := time.Parse(season.DateLayout, sc.SessionDate); err != nil {
		return ErrInvalidSessionDate
	}
	if strings.TrimSpace(sc.Group) == "" {
		return ErrMissingGroup
	}
	return nil
}

// Options tunes an editor.
type Options struct {
	// CallTimeout bounds each gateway call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration
}

// Editor owns the in-memory roster of one attendance session. It is created
// for one visit to the attendance screen and never reused.
type Editor struct {
	mu     sync.Mutex
	sc     SessionContext
	season string
	gw     Gateway

	base   context.Context
	cancel context.CancelFunc

	state   State
	roster  roster.Roster
	loadErr error
}

// View is a point-in-time copy of an editor for presentation.
type View struct {
	SessionContext
	Season  string         `json:"season"`
	State   State          `json:"state"`
	Entries []roster.Entry `json:"entries"`
	Counts  roster.Counts  `json:"counts"`
	Error   string         `json:"error,omitempty"`
}

// New builds an unloaded editor for sc.
// PRE: gw is non-nil
// POST: State() == StateUnloaded; Season() is derived from the session date
func New(sc SessionContext, gw Gateway, opts Options) (*Editor, error) {
	sc.Group = strings.TrimSpace(sc.Group)
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	label, err := season.ForDateString(sc.SessionDate)
	if err != nil {
		return nil, err
	}
	timeout := opts.CallTimeout
	if timeout == 0 {
		timeout = DefaultCallTimeout
	}
	base, cancel := context.WithCancel(context.Background())
	return &Editor{
		sc:     sc,
		season: label,
		gw:     withCallTimeout(gw, timeout),
		base:   base,
		cancel: cancel,
		state:  StateUnloaded,
		roster: roster.Empty,
	}, nil
}

// bind ties ctx to the editor lifetime so Close aborts in-flight calls.
func (e *Editor) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Load fetches the roster and its recorded statuses.
// PRE: State is unloaded or load_failed
// POST: State is ready, or load_failed with a *LoadFailure returned.
// A result that arrives after Close is dropped and ErrClosed is returned.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case StateClosed:
		e.mu.Unlock()
		return ErrClosed
	case StateLoading:
		e.mu.Unlock()
		return ErrLoadInFlight
	case StateReady:
		e.mu.Unlock()
		return nil
	}
	e.state = StateLoading
	e.mu.Unlock()

	ctx, release := e.bind(ctx)
	defer release()

	start := time.Now()
	r, err := LoadRoster(ctx, e.gw, e.season, e.sc.Group, e.sc.SessionID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		slog.Info("attendance_event", "event", "stale_load_discarded", "session_id", e.sc.SessionID)
		return ErrClosed
	}
	if err != nil {
		e.state = StateLoadFailed
		e.roster = roster.Empty
		e.loadErr = err
		slog.Error("attendance_event", "event", "roster_load_failed", "session_id", e.sc.SessionID, "group", e.sc.Group, "season", e.season, "error", err)
		return err
	}
	e.state = StateReady
	e.roster = r
	e.loadErr = nil
	slog.Info("attendance_event", "event", "roster_loaded", "session_id", e.sc.SessionID, "group", e.sc.Group, "season", e.season, "athletes", r.Len(), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// guard returns the error for a call that needs a ready editor.
// PRE: e.mu is held
func (e *Editor) guard() error {
	switch e.state {
	case StateReady:
		return nil
	case StateClosed:
		return ErrClosed
	}
	return fmt.Errorf("%w: state %s", ErrNotReady, e.state)
}

// Cycle advances the status of one athlete.
// PRE: State is ready
// POST: returns the updated entry and true; an unknown fincode changes nothing and returns false
func (e *Editor) Cycle(fincode int) (roster.Entry, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return roster.Entry{}, false, err
	}
	next, ok := e.roster.Cycle(fincode)
	if !ok {
		return roster.Entry{}, false, nil
	}
	e.roster = next
	entry, _ := next.Entry(fincode)
	return entry, true, nil
}

// Save writes the current roster to the remote store.
// PRE: State is ready
// POST: the in-memory roster is unchanged whatever the outcome; failures are *SaveFailure
func (e *Editor) Save(ctx context.Context) (SaveResult, error) {
	e.mu.Lock()
	if err := e.guard(); err != nil {
		e.mu.Unlock()
		return SaveResult{}, err
	}
	snapshot := e.roster
	e.mu.Unlock()

	ctx, release := e.bind(ctx)
	defer release()

	start := time.Now()
	result, err := Reconcile(ctx, e.gw, e.sc.SessionID, snapshot)
	if err != nil {
		slog.Error("attendance_event", "event", "attendance_save_failed", "session_id", e.sc.SessionID, "error", err)
		return SaveResult{}, err
	}
	slog.Info("attendance_event", "event", "attendance_saved", "session_id", e.sc.SessionID, "deleted", result.Deleted, "upserted", result.Upserted, "atomic", result.Atomic, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Close disposes the editor and aborts any in-flight gateway call. It is idempotent.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return
	}
	e.state = StateClosed
	e.roster = roster.Empty
	e.cancel()
}

// Context returns the session context.
func (e *Editor) Context() SessionContext {
	return e.sc
}

// Season returns the season label derived from the session date.
func (e *Editor) Season() string {
	return e.season
}

// State returns the lifecycle state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Roster returns the current roster. It is immutable and safe to keep.
func (e *Editor) Roster() roster.Roster {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roster
}

// Counts tallies the current roster.
func (e *Editor) Counts() roster.Counts {
	return e.Roster().Counts()
}

// LoadErr returns the error of the last failed load, if any.
func (e *Editor) LoadErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// Snapshot returns a presentation copy of the editor.
func (e *Editor) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := View{
		SessionContext: e.sc,
		Season:         e.season,
		State:          e.state,
		Entries:        e.roster.Entries(),
		Counts:         e.roster.Counts(),
	}
	if e.loadErr != nil {
		v.Error = e.loadErr.Error()
	}
	return v
}
