package web

import (
	"net/http"

	"swimtrack/internal/application/orchestrators"
	"swimtrack/internal/application/projections"
	"swimtrack/internal/domain/athlete"
	"swimtrack/internal/domain/season"
)

type athleteRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Groups    string `json:"groups" validate:"omitempty,max=16"`
	Gender    string `json:"gender" validate:"omitempty,max=16"`
	BirthDate string `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Active    *bool  `json:"active"`
}

type seasonView struct {
	season.Season
	DisplayText string `json:"display_text"`
}

var athleteValidationErrors = []error{
	athlete.ErrInvalidFincode, athlete.ErrEmptyName, athlete.ErrNameTooLong,
	athlete.ErrInvalidEmail, athlete.ErrUnknownGroup,
}

// handleListSeasons handles GET /api/seasons, newest first.
func handleListSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := stores.Remote.ListSeasons(r.Context())
	if err != nil {
		upstreamError(w, r, err)
		return
	}
	out := make([]seasonView, len(seasons))
	for i, s := range seasons {
		out[i] = seasonView{Season: s, DisplayText: season.DisplayText(s.Description)}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleListAthletes handles GET /api/athletes?season=&group=.
func handleListAthletes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := projections.QueryGetRoster(r.Context(),
		projections.GetRosterQuery{Season: q.Get("season"), Group: q.Get("group")},
		projections.GetRosterDeps{Athletes: stores.Remote})
	if err != nil {
		if isAny(err, athleteValidationErrors) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleUpdateAthlete handles PUT /api/athletes/{fincode}.
func handleUpdateAthlete(w http.ResponseWriter, r *http.Request) {
	fincode, ok := pathInt(r, "fincode")
	if !ok {
		writeError(w, http.StatusBadRequest, athlete.ErrInvalidFincode.Error())
		return
	}
	var req athleteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	a := athlete.Athlete{
		Fincode:   fincode,
		Name:      req.Name,
		Groups:    req.Groups,
		Gender:    req.Gender,
		BirthDate: req.BirthDate,
		Email:     req.Email,
		Phone:     req.Phone,
		Active:    req.Active,
	}
	saved, err := orchestrators.ExecuteUpdateAthlete(r.Context(),
		orchestrators.UpdateAthleteInput{Athlete: a},
		orchestrators.UpdateAthleteDeps{Athletes: stores.Remote})
	if err != nil {
		if isAny(err, athleteValidationErrors) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// handleDeleteAthlete handles DELETE /api/athletes/{fincode}.
func handleDeleteAthlete(w http.ResponseWriter, r *http.Request) {
	fincode, ok := pathInt(r, "fincode")
	if !ok {
		writeError(w, http.StatusBadRequest, athlete.ErrInvalidFincode.Error())
		return
	}
	err := orchestrators.ExecuteDeleteAthlete(r.Context(),
		orchestrators.DeleteAthleteInput{Fincode: fincode},
		orchestrators.DeleteAthleteDeps{Athletes: stores.Remote})
	if err != nil {
		upstreamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
