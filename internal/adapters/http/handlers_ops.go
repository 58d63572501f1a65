package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const healthTimeout = 5 * time.Second

// handleHealth handles GET /healthz. It is public and probes the remote store.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	n, err := stores.Remote.CountAthletes(ctx)
	if err != nil {
		slog.Warn("http_event", "event", "health_degraded", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"athletes":     n,
		"open_editors": stores.Editors.Len(),
	})
}

// handlePerf handles GET /api/admin/perf?minutes=N, default the last hour.
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		writeError(w, http.StatusNotFound, "performance data unavailable")
		return
	}
	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil || minutes <= 0 || minutes > 24*60 {
		minutes = 60
	}
	since := time.Now().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, 10))
}
