package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdleTimeout is how long an untouched editor stays open.
const DefaultIdleTimeout = 2 * time.Hour

// Registry holds the open editors of the server, one per visit to the
// attendance screen, keyed by an opaque id.
type Registry struct {
	mu      sync.Mutex
	editors map[string]*slot
	gw      Gateway
	opts    Options
	idle    time.Duration
	now     func() time.Time
}

type slot struct {
	editor   *Editor
	lastSeen time.Time
}

// NewRegistry creates an empty registry.
// PRE: gw is non-nil
func NewRegistry(gw Gateway, opts Options, idle time.Duration) *Registry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Registry{
		editors: make(map[string]*slot),
		gw:      gw,
		opts:    opts,
		idle:    idle,
		now:     time.Now,
	}
}

// Open builds a fresh editor for sc and loads it.
// PRE: sc validates
// POST: on success the editor is ready and registered under the returned id;
// a failed load is closed, never registered, and its error returned
func (reg *Registry) Open(ctx context.Context, sc SessionContext) (string, *Editor, error) {
	ed, err := New(sc, reg.gw, reg.opts)
	if err != nil {
		return "", nil, err
	}
	if err := ed.Load(ctx); err != nil {
		ed.Close()
		return "", nil, err
	}

	id := uuid.NewString()
	reg.mu.Lock()
	reg.editors[id] = &slot{editor: ed, lastSeen: reg.now()}
	reg.mu.Unlock()
	slog.Info("attendance_event", "event", "editor_opened", "editor_id", id, "session_id", sc.SessionID, "group", sc.Group)
	return id, ed, nil
}

// Get returns the editor registered under id and marks it as used.
func (reg *Registry) Get(id string) (*Editor, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	s, ok := reg.editors[id]
	if !ok {
		return nil, ErrEditorUnknown
	}
	s.lastSeen = reg.now()
	return s.editor, nil
}

// Close disposes and forgets the editor registered under id.
func (reg *Registry) Close(id string) error {
	reg.mu.Lock()
	s, ok := reg.editors[id]
	delete(reg.editors, id)
	reg.mu.Unlock()
	if !ok {
		return ErrEditorUnknown
	}
	s.editor.Close()
	slog.Info("attendance_event", "event", "editor_closed", "editor_id", id)
	return nil
}

// Len returns the number of open editors.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.editors)
}

// Sweep closes editors idle for longer than the idle timeout.
// POST: returns the number of editors closed
func (reg *Registry) Sweep() int {
	cutoff := reg.now().Add(-reg.idle)
	var expired []*Editor
	reg.mu.Lock()
	for id, s := range reg.editors {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s.editor)
			delete(reg.editors, id)
		}
	}
	reg.mu.Unlock()
	for _, ed := range expired {
		ed.Close()
	}
	if len(expired) > 0 {
		slog.Info("attendance_event", "event", "editors_expired", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps idle editors every interval until ctx is done, then closes all editors.
func (reg *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			reg.closeAll()
			return
		case <-ticker.C:
			reg.Sweep()
		}
	}
}

func (reg *Registry) closeAll() {
	reg.mu.Lock()
	open := reg.editors
	reg.editors = make(map[string]*slot)
	reg.mu.Unlock()
	for _, s := range open {
		s.editor.Close()
	}
}
