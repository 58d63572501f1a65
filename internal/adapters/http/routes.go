package web

import "net/http"

// registerRoutes binds every API route. Method patterns reject other verbs with 405.
func registerRoutes(mux *http.ServeMux) {
	// Attendance editors
	mux.HandleFunc("POST /api/editors", handleOpenEditor)
	mux.HandleFunc("GET /api/editors/{id}", handleGetEditor)
	mux.HandleFunc("POST /api/editors/{id}/entries/{fincode}/cycle", handleCycleEntry)
	mux.HandleFunc("POST /api/editors/{id}/save", handleSaveEditor)
	mux.HandleFunc("DELETE /api/editors/{id}", handleCloseEditor)

	// Trainings
	mux.HandleFunc("GET /api/sessions", handleListSessions)
	mux.HandleFunc("POST /api/sessions", handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", handleGetSession)
	mux.HandleFunc("PUT /api/sessions/{id}", handleUpdateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", handleDeleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/saves", handleSessionSaves)

	// Athletes and seasons
	mux.HandleFunc("GET /api/seasons", handleListSeasons)
	mux.HandleFunc("GET /api/athletes", handleListAthletes)
	mux.HandleFunc("PUT /api/athletes/{fincode}", handleUpdateAthlete)
	mux.HandleFunc("DELETE /api/athletes/{fincode}", handleDeleteAthlete)

	// Stats
	mux.HandleFunc("GET /api/stats", handleStats)
	mux.HandleFunc("GET /api/stats/export.xlsx", handleExportStats)
	mux.HandleFunc("GET /api/trend", handleTrend)

	// Ops
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /api/admin/perf", handlePerf)
}
