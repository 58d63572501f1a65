package editor

import (
	"context"
	"log/slog"

	"swimtrack/internal/domain/attendance"
	"swimtrack/internal/domain/roster"
)

// SavePlan is the set of remote writes that brings a session in line with a roster.
type SavePlan struct {
	SessionID int                 `json:"session_id"`
	ToDelete  []int               `json:"to_delete"`
	ToUpsert  []attendance.Record `json:"to_upsert"`
}

// Empty reports whether the plan has nothing to write.
func (p SavePlan) Empty() bool {
	return len(p.ToDelete) == 0 && len(p.ToUpsert) == 0
}

// SaveResult describes a completed save.
type SaveResult struct {
	SessionID int           `json:"session_id"`
	Deleted   int           `json:"deleted"`
	Upserted  int           `json:"upserted"`
	Atomic    bool          `json:"atomic"`
	Counts    roster.Counts `json:"counts"`
}

// PlanSave computes the writes for one save. It performs no I/O.
// PRE: existing holds the fincodes currently persisted for sessionID
// POST: ToDelete holds the N entries that exist remotely; ToUpsert holds every
// non-N entry; persisted fincodes absent from entries are left alone
func PlanSave(sessionID int, entries []roster.Entry, existing []int) SavePlan {
	persisted := make(map[int]struct{}, len(existing))
	for _, f := range existing {
		persisted[f] = struct{}{}
	}
	plan := SavePlan{SessionID: sessionID}
	for _, e := range entries {
		status := e.Status.Normalize()
		if status == attendance.StatusNotSet {
			if _, ok := persisted[e.Fincode]; ok {
				plan.ToDelete = append(plan.ToDelete, e.Fincode)
			}
			continue
		}
		plan.ToUpsert = append(plan.ToUpsert, attendance.Record{
			SessionID: sessionID,
			Fincode:   e.Fincode,
			Status:    status,
		})
	}
	return plan
}

// Reconcile writes r to the remote store for sessionID.
// PRE: r is a snapshot the caller will not change
// POST: on success the remote rows of every roster fincode match r; on failure
// returns a *SaveFailure. Deletes precede upserts and nothing is retried or rolled back.
// INVARIANT: r is never modified
func Reconcile(ctx context.Context, gw Gateway, sessionID int, r roster.Roster) (SaveResult, error) {
	records, err := gw.ListAttendance(ctx, sessionID)
	if err != nil {
		return SaveResult{}, &SaveFailure{Phase: PhaseFetch, Err: err}
	}
	existing := make([]int, len(records))
	for i, rec := range records {
		existing[i] = rec.Fincode
	}

	plan := PlanSave(sessionID, r.Entries(), existing)
	result := SaveResult{SessionID: sessionID, Counts: r.Counts()}

	if replacer, ok := gw.(AtomicReplacer); ok {
		result.Atomic = true
		if plan.Empty() {
			return result, nil
		}
		if err := replacer.ReplaceAttendance(ctx, sessionID, plan.ToDelete, plan.ToUpsert); err != nil {
			return SaveResult{}, &SaveFailure{Phase: PhaseReplace, Plan: plan, Err: err}
		}
		result.Deleted = len(plan.ToDelete)
		result.Upserted = len(plan.ToUpsert)
		return result, nil
	}

	if len(plan.ToDelete) > 0 {
		if err := gw.DeleteAttendance(ctx, sessionID, plan.ToDelete); err != nil {
			return SaveResult{}, &SaveFailure{Phase: PhaseDelete, Plan: plan, Err: err}
		}
		result.Deleted = len(plan.ToDelete)
	}

	if len(plan.ToUpsert) > 0 {
		if err := gw.UpsertAttendance(ctx, plan.ToUpsert); err != nil {
			partial := result.Deleted > 0
			if partial {
				slog.Warn("attendance_event", "event", "save_partial", "session_id", sessionID, "deleted", result.Deleted, "error", err)
			}
			return SaveResult{}, &SaveFailure{Phase: PhaseUpsert, Partial: partial, Plan: plan, Err: err}
		}
		result.Upserted = len(plan.ToUpsert)
	}
	return result, nil
}
