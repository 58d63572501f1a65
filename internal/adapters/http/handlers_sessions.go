package web

import (
	"errors"
	"net/http"
	"strconv"

	"swimtrack/internal/application/orchestrators"
	"swimtrack/internal/application/projections"
	"swimtrack/internal/domain/savelog"
	"swimtrack/internal/domain/session"
)

// sessionRequest is the editable part of a session. The id comes from the path.
type sessionRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"starttime" validate:"omitempty,max=8"`
	EndTime     string `json:"endtime" validate:"omitempty,max=8"`
	Type        string `json:"type" validate:"omitempty,oneof=Swim Gym"`
	Description string `json:"description" validate:"max=4000"`
	Volume      int    `json:"volume" validate:"gte=0"`
	Location    string `json:"location" validate:"max=120"`
	PoolName    string `json:"poolname" validate:"max=120"`
	PoolLength  int    `json:"poollength" validate:"omitempty,oneof=25 50"`
	Groups      string `json:"groups" validate:"max=64"`
}

func (req sessionRequest) toSession(id int) session.Session {
	return session.Session{
		ID:          id,
		Title:       req.Title,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Type:        req.Type,
		Description: req.Description,
		Volume:      req.Volume,
		Location:    req.Location,
		PoolName:    req.PoolName,
		PoolLength:  req.PoolLength,
		Groups:      req.Groups,
	}
}

var sessionValidationErrors = []error{
	session.ErrEmptyTitle, session.ErrTitleTooLong, session.ErrInvalidDate,
	session.ErrInvalidTime, session.ErrInvalidType, session.ErrEmptyGroups,
	session.ErrNegativeVolume, session.ErrInvalidPool, session.ErrDescriptionSize,
	orchestrators.ErrInvalidSessionID,
}

// isAny reports whether err matches one of targets.
func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func sessionDeps() projections.GetSessionsDeps {
	return projections.GetSessionsDeps{Sessions: stores.Remote, Saves: stores.Journal}
}

// handleListSessions handles GET /api/sessions.
// ?date= lists one day; otherwise the week of ?week= (default today) is returned.
func handleListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if date := q.Get("date"); date != "" {
		views, err := projections.QueryGetSessionsForDay(r.Context(), projections.GetSessionsForDayQuery{Date: date}, sessionDeps())
		if err != nil {
			if errors.Is(err, session.ErrInvalidDate) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			upstreamError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"date": date, "sessions": views})
		return
	}

	result, err := projections.QueryGetWeekSessions(r.Context(), projections.GetWeekSessionsQuery{Date: q.Get("week")}, sessionDeps())
	if err != nil {
		if errors.Is(err, session.ErrInvalidDate) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetSession handles GET /api/sessions/{id}.
func handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	view, err := projections.QueryGetSession(r.Context(), projections.GetSessionQuery{SessionID: id}, sessionDeps())
	if err != nil {
		upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleCreateSession handles POST /api/sessions.
func handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	saveSession(w, r, req.toSession(0), http.StatusCreated)
}

// handleUpdateSession handles PUT /api/sessions/{id}.
func handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	var req sessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	saveSession(w, r, req.toSession(id), http.StatusOK)
}

func saveSession(w http.ResponseWriter, r *http.Request, s session.Session, status int) {
	saved, err := orchestrators.ExecuteSaveSession(r.Context(),
		orchestrators.SaveSessionInput{Session: s},
		orchestrators.SaveSessionDeps{Sessions: stores.Remote})
	if err != nil {
		if isAny(err, sessionValidationErrors) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upstreamError(w, r, err)
		return
	}
	writeJSON(w, status, saved)
}

// handleDeleteSession handles DELETE /api/sessions/{id}.
func handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	err := orchestrators.ExecuteDeleteSession(r.Context(),
		orchestrators.DeleteSessionInput{SessionID: id},
		orchestrators.DeleteSessionDeps{Sessions: stores.Remote})
	if err != nil {
		upstreamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionSaves handles GET /api/sessions/{id}/saves.
func handleSessionSaves(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := projections.QueryGetSaveHistory(r.Context(),
		projections.GetSaveHistoryQuery{SessionID: id, Limit: limit},
		projections.GetSaveHistoryDeps{Journal: stores.Journal})
	if err != nil {
		if errors.Is(err, savelog.ErrMissingSession) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "saves": events})
}
