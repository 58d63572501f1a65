package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"swimtrack/internal/application/orchestrators"
	"swimtrack/internal/application/projections"
	"swimtrack/internal/domain/season"
	"swimtrack/internal/domain/stats"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var statsRequestErrors = []error{
	stats.ErrMissingSeason, stats.ErrMissingFincode, season.ErrInvalidLabel,
}

// handleStats handles GET /api/stats?season=&type=&group=.
func handleStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := projections.QueryGetAttendanceStats(r.Context(),
		projections.GetAttendanceStatsQuery{Season: q.Get("season"), Type: q.Get("type"), Group: q.Get("group")},
		projections.GetStatsDeps{Stats: stores.Remote})
	if err != nil {
		if isAny(err, statsRequestErrors) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleExportStats handles GET /api/stats/export.xlsx with the same filters as handleStats.
// The workbook is built in memory so a remote failure still yields a JSON error.
func handleExportStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := stats.NewFilter(q.Get("season"), q.Get("type"), q.Get("group"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	n, err := orchestrators.ExecuteExportStats(r.Context(),
		orchestrators.ExportStatsInput{Filter: f},
		orchestrators.ExportStatsDeps{Stats: stores.Remote}, &buf)
	if err != nil {
		if errors.Is(err, stats.ErrMissingSeason) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upstreamError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance-%s.xlsx"`, fileSafe(f.Season)))
	w.Header().Set("X-Row-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// fileSafe keeps letters, digits and dashes.
func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-':
			return r
		}
		return -1
	}, s)
}

// handleTrend handles GET /api/trend?fincode=&season=&type=.
func handleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fincode, _ := strconv.Atoi(q.Get("fincode"))
	result, err := projections.QueryGetAttendanceTrend(r.Context(),
		projections.GetAttendanceTrendQuery{Fincode: fincode, Season: q.Get("season"), Type: q.Get("type")},
		projections.GetStatsDeps{Stats: stores.Remote})
	if err != nil {
		if isAny(err, statsRequestErrors) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
