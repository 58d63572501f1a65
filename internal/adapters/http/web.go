package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"swimtrack/internal/adapters/http/middleware"
	"swimtrack/internal/adapters/http/perf"
	savelogStore "swimtrack/internal/adapters/storage/savelog"
	"swimtrack/internal/application/editor"
	"swimtrack/internal/application/orchestrators"
	"swimtrack/internal/application/projections"
)

// Remote is the remote data surface read and written by the handlers.
type Remote interface {
	projections.SessionReader
	projections.RosterReader
	projections.AttendanceStatsReader
	orchestrators.SessionWriter
	orchestrators.AthleteWriter
	CountAthletes(ctx context.Context) (int, error)
}

// Stores holds all storage dependencies.
type Stores struct {
	Remote  Remote
	Editors *editor.Registry
	Journal savelogStore.Store
}

// Config carries the HTTP security settings resolved by main.
type Config struct {
	Production     bool
	CSRFKey        []byte
	TrustedOrigins []string
	Staff          *middleware.StaffAuth
}

// LoadCSRFKey decodes a hex-encoded 32-byte CSRF secret. An empty value yields
// a random key outside production.
func LoadCSRFKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("SWIMTRACK_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, fmt.Errorf("SWIMTRACK_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	slog.Warn("config_event", "event", "random_csrf_key", "detail", "set SWIMTRACK_CSRF_KEY for production")
	return key, nil
}

// Global stores instance (set by NewMux)
var stores *Stores

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// publicPaths skip staff authentication.
var publicPaths = []string{"/healthz"}

// NewMux wires HTTP handlers for the app. The returned stop function ends the
// rate limiter's eviction loop.
func NewMux(s *Stores, cfg Config, collector *perf.Collector) (http.Handler, func()) {
	stores = s
	perfCollector = collector

	mux := http.NewServeMux()
	registerRoutes(mux)

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	done := make(chan struct{})
	go limiter.Run(done)

	// Apply middleware: Timing -> SecurityHeaders -> RateLimit -> Auth -> CSRF -> Mux
	h := middleware.Chain(mux,
		middleware.CSRF(cfg.CSRFKey, cfg.Production, cfg.TrustedOrigins),
		middleware.Auth(cfg.Staff, publicPaths...),
		middleware.RateLimit(limiter),
		middleware.SecurityHeaders,
		middleware.Timing(collector),
	)
	return h, func() { close(done) }
}
