package web

import (
	"errors"
	"log/slog"
	"net/http"

	"swimtrack/internal/application/editor"
	"swimtrack/internal/application/orchestrators"
	"swimtrack/internal/domain/athlete"
	"swimtrack/internal/domain/roster"
)

type openEditorRequest struct {
	SessionID   int    `json:"session_id" validate:"required,gt=0"`
	SessionDate string `json:"session_date" validate:"required,datetime=2006-01-02"`
	Group       string `json:"group" validate:"required,max=16"`
}

type editorResponse struct {
	EditorID string `json:"editor_id"`
	editor.View
}

type cycleResponse struct {
	Entry  *roster.Entry `json:"entry,omitempty"`
	Found  bool          `json:"found"`
	Counts roster.Counts `json:"counts"`
}

// handleOpenEditor handles POST /api/editors.
// A failed load never reports an empty roster as success.
func handleOpenEditor(w http.ResponseWriter, r *http.Request) {
	var req openEditorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	group := athlete.NormalizeGroup(req.Group)
	if !athlete.KnownGroup(group) {
		writeError(w, http.StatusBadRequest, athlete.ErrUnknownGroup.Error())
		return
	}

	sc := editor.SessionContext{SessionID: req.SessionID, SessionDate: req.SessionDate, Group: group}
	id, ed, err := stores.Editors.Open(r.Context(), sc)
	if err != nil {
		var lf *editor.LoadFailure
		if errors.As(err, &lf) {
			slog.Warn("attendance_event", "event", "editor_load_failed", "session_id", sc.SessionID, "step", lf.Step, "error", lf.Err, "staff", staffUser(r))
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"state": string(editor.StateLoadFailed),
				"step":  lf.Step,
				"error": "roster could not be loaded",
			})
			return
		}
		if errors.Is(err, editor.ErrInvalidSessionID) || errors.Is(err, editor.ErrInvalidSessionDate) || errors.Is(err, editor.ErrMissingGroup) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, editorResponse{EditorID: id, View: ed.Snapshot()})
}

// lookupEditor resolves the {id} path value, writing 404 when unknown.
func lookupEditor(w http.ResponseWriter, r *http.Request) (string, *editor.Editor, bool) {
	id := r.PathValue("id")
	ed, err := stores.Editors.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, editor.ErrEditorUnknown.Error())
		return "", nil, false
	}
	return id, ed, true
}

// handleGetEditor handles GET /api/editors/{id}.
func handleGetEditor(w http.ResponseWriter, r *http.Request) {
	id, ed, ok := lookupEditor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, editorResponse{EditorID: id, View: ed.Snapshot()})
}

// handleCycleEntry handles POST /api/editors/{id}/entries/{fincode}/cycle.
// An unknown fincode is a no-op reported with found=false.
func handleCycleEntry(w http.ResponseWriter, r *http.Request) {
	_, ed, ok := lookupEditor(w, r)
	if !ok {
		return
	}
	fincode, ok := pathInt(r, "fincode")
	if !ok {
		writeError(w, http.StatusBadRequest, "fincode must be a positive integer")
		return
	}
	entry, found, err := ed.Cycle(fincode)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	resp := cycleResponse{Found: found, Counts: ed.Counts()}
	if found {
		resp.Entry = &entry
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSaveEditor handles POST /api/editors/{id}/save.
func handleSaveEditor(w http.ResponseWriter, r *http.Request) {
	_, ed, ok := lookupEditor(w, r)
	if !ok {
		return
	}
	result, err := orchestrators.ExecuteSaveAttendance(r.Context(),
		orchestrators.SaveAttendanceInput{Editor: ed},
		orchestrators.SaveAttendanceDeps{Journal: stores.Journal})
	if err != nil {
		if sf, ok := editor.AsSaveFailure(err); ok {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"saved":   false,
				"phase":   sf.Phase,
				"partial": sf.Partial,
				"error":   "attendance could not be saved",
			})
			return
		}
		if errors.Is(err, editor.ErrNotReady) || errors.Is(err, editor.ErrClosed) {
			writeJSON(w, http.StatusConflict, map[string]any{"saved": false, "error": err.Error()})
			return
		}
		internalError(w, r, err)
		return
	}
	slog.Info("attendance_event", "event", "attendance_save_requested", "session_id", result.SessionID, "staff", staffUser(r))
	writeJSON(w, http.StatusOK, map[string]any{"saved": true, "result": result})
}

// handleCloseEditor handles DELETE /api/editors/{id}.
func handleCloseEditor(w http.ResponseWriter, r *http.Request) {
	if err := stores.Editors.Close(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, editor.ErrEditorUnknown.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
