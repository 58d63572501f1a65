package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"swimtrack/internal/adapters/gateway/postgrest"
	web "swimtrack/internal/adapters/http"
	"swimtrack/internal/adapters/http/middleware"
	"swimtrack/internal/adapters/http/perf"
	"swimtrack/internal/adapters/storage"
	savelogStore "swimtrack/internal/adapters/storage/savelog"
	"swimtrack/internal/application/editor"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// sweepInterval is how often idle editors are closed.
const sweepInterval = 5 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(newLogger(cfg))

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	client, err := postgrest.NewClient(postgrest.Config{
		BaseURL:   cfg.SupabaseURL,
		APIKey:    cfg.SupabaseKey,
		Timeout:   cfg.GatewayTimeout,
		SlowCall:  cfg.SlowGateway,
		Collector: collector,
	})
	if err != nil {
		log.Fatalf("failed to configure remote store: %v", err)
	}

	// Saves are two calls unless the remote schema offers a replace function
	var gateway editor.Gateway = client
	if cfg.ReplaceRPC != "" {
		gateway = postgrest.NewAtomicClient(client, cfg.ReplaceRPC)
		slog.Info("config_event", "event", "atomic_save_enabled", "function", cfg.ReplaceRPC)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := editor.NewRegistry(gateway, editor.Options{CallTimeout: cfg.GatewayTimeout}, cfg.EditorIdle)
	go registry.Run(ctx, sweepInterval)

	csrfKey, err := web.LoadCSRFKey(cfg.CSRFKeyHex, cfg.production())
	if err != nil {
		log.Fatalf("invalid CSRF key: %v", err)
	}
	staff := middleware.NewStaffAuth(cfg.StaffUser, cfg.StaffHash)
	if !staff.Enabled() {
		slog.Warn("config_event", "event", "auth_disabled", "detail", "set SWIMTRACK_STAFF_USER to require staff login")
	}

	stores := &web.Stores{
		Remote:  client,
		Editors: registry,
		Journal: savelogStore.NewSQLiteStore(timedDB),
	}
	handler, stopMux := web.NewMux(stores, web.Config{
		Production:     cfg.production(),
		CSRFKey:        csrfKey,
		TrustedOrigins: cfg.TrustedOrigins,
		Staff:          staff,
	}, collector)
	defer stopMux()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http_event", "event", "shutdown_failed", "error", err)
		}
	}()

	slog.Info("server_event", "event", "starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", storage.LatestSchemaVersion())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
