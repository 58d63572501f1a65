package editor

import (
	"context"
	"time"

	"swimtrack/internal/domain/athlete"
	"swimtrack/internal/domain/attendance"
)

// Gateway is the remote data surface the editor reads and writes through.
type Gateway interface {
	// RosterBySeasonAndGroup returns the athletes enrolled in group for season.
	// POST: athletes carry no attendance status
	RosterBySeasonAndGroup(ctx context.Context, season, group string) ([]athlete.Athlete, error)

	// ListAttendance returns the persisted records of a session.
	// POST: every record has status P, J or A
	ListAttendance(ctx context.Context, sessionID int) ([]attendance.Record, error)

	// DeleteAttendance removes the (sessionID, fincode) rows.
	// PRE: fincodes is non-empty
	DeleteAttendance(ctx context.Context, sessionID int, fincodes []int) error

	// UpsertAttendance inserts or replaces records keyed on (session_id, fincode).
	// PRE: records is non-empty and every record validates
	UpsertAttendance(ctx context.Context, records []attendance.Record) error
}

// AtomicReplacer is implemented by gateways that can apply the deletes and
// upserts of one save in a single transactional call. When available the
// reconciler prefers it, and a save can no longer be left half-applied.
type AtomicReplacer interface {
	ReplaceAttendance(ctx context.Context, sessionID int, deletes []int, upserts []attendance.Record) error
}

// bounded gives every gateway call its own deadline.
type bounded struct {
	gw      Gateway
	timeout time.Duration
}

// boundedAtomic keeps the AtomicReplacer capability visible through the wrapper.
type boundedAtomic struct {
	bounded
	replacer AtomicReplacer
}

// withCallTimeout wraps gw so that no single call can hang past timeout.
func withCallTimeout(gw Gateway, timeout time.Duration) Gateway {
	if timeout <= 0 {
		return gw
	}
	b := bounded{gw: gw, timeout: timeout}
	if r, ok := gw.(AtomicReplacer); ok {
		return &boundedAtomic{bounded: b, replacer: r}
	}
	return &b
}

func (b *bounded) RosterBySeasonAndGroup(ctx context.Context, season, group string) ([]athlete.Athlete, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.gw.RosterBySeasonAndGroup(ctx, season, group)
}

func (b *bounded) ListAttendance(ctx context.Context, sessionID int) ([]attendance.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.gw.ListAttendance(ctx, sessionID)
}

func (b *bounded) DeleteAttendance(ctx context.Context, sessionID int, fincodes []int) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.gw.DeleteAttendance(ctx, sessionID, fincodes)
}

func (b *bounded) UpsertAttendance(ctx context.Context, records []attendance.Record) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.gw.UpsertAttendance(ctx, records)
}

func (b *boundedAtomic) ReplaceAttendance(ctx context.Context, sessionID int, deletes []int, upserts []attendance.Record) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.replacer.ReplaceAttendance(ctx, sessionID, deletes, upserts)
}
