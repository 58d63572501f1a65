package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"swimtrack/internal/adapters/http/middleware"
)

// config is the process configuration read from the environment.
type config struct {
	Addr           string
	Env            string
	DBPath         string
	LogLevel       slog.Level
	SupabaseURL    string
	SupabaseKey    string
	GatewayTimeout time.Duration
	SlowGateway    time.Duration
	ReplaceRPC     string
	EditorIdle     time.Duration
	StaffUser      string
	StaffHash      []byte
	CSRFKeyHex     string
	TrustedOrigins []string
}

func (c config) production() bool {
	return c.Env == "production"
}

// loadConfig reads SWIMTRACK_* variables. Durations accept Go syntax ("90s")
// or a plain number of seconds.
func loadConfig() (config, error) {
	c := config{
		Addr:        envOrDefault("SWIMTRACK_ADDR", ":8080"),
		Env:         envOrDefault("SWIMTRACK_ENV", "development"),
		DBPath:      envOrDefault("SWIMTRACK_DB_PATH", "swimtrack.db"),
		SupabaseURL: os.Getenv("SWIMTRACK_SUPABASE_URL"),
		SupabaseKey: os.Getenv("SWIMTRACK_SUPABASE_KEY"),
		ReplaceRPC:  os.Getenv("SWIMTRACK_REPLACE_RPC"),
		StaffUser:   os.Getenv("SWIMTRACK_STAFF_USER"),
		CSRFKeyHex:  os.Getenv("SWIMTRACK_CSRF_KEY"),
	}
	if c.SupabaseURL == "" || c.SupabaseKey == "" {
		return config{}, fmt.Errorf("SWIMTRACK_SUPABASE_URL and SWIMTRACK_SUPABASE_KEY are required")
	}

	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("SWIMTRACK_LOG_LEVEL", "info"))); err != nil {
		return config{}, fmt.Errorf("SWIMTRACK_LOG_LEVEL: %w", err)
	}

	var err error
	if c.GatewayTimeout, err = envDuration("SWIMTRACK_GATEWAY_TIMEOUT", 20*time.Second); err != nil {
		return config{}, err
	}
	if c.EditorIdle, err = envDuration("SWIMTRACK_EDITOR_IDLE", 2*time.Hour); err != nil {
		return config{}, err
	}
	slowMS, err := strconv.Atoi(envOrDefault("SWIMTRACK_SLOW_GATEWAY_MS", "1000"))
	if err != nil || slowMS <= 0 {
		return config{}, fmt.Errorf("SWIMTRACK_SLOW_GATEWAY_MS must be a positive integer")
	}
	c.SlowGateway = time.Duration(slowMS) * time.Millisecond

	if origins := os.Getenv("SWIMTRACK_TRUSTED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.TrustedOrigins = append(c.TrustedOrigins, o)
			}
		}
	}

	if err := c.loadStaff(); err != nil {
		return config{}, err
	}
	return c, nil
}

// loadStaff resolves the staff password. A stored hash wins over a plain password.
func (c *config) loadStaff() error {
	if c.StaffUser == "" {
		if c.production() {
			return fmt.Errorf("SWIMTRACK_STAFF_USER is required in production")
		}
		return nil
	}
	if h := os.Getenv("SWIMTRACK_STAFF_PASSWORD_HASH"); h != "" {
		c.StaffHash = []byte(h)
		return nil
	}
	pw := os.Getenv("SWIMTRACK_STAFF_PASSWORD")
	if pw == "" {
		return fmt.Errorf("SWIMTRACK_STAFF_PASSWORD or SWIMTRACK_STAFF_PASSWORD_HASH is required with SWIMTRACK_STAFF_USER")
	}
	if c.production() {
		slog.Warn("config_event", "event", "plain_staff_password", "detail", "prefer SWIMTRACK_STAFF_PASSWORD_HASH")
	}
	h, err := middleware.HashPassword(pw)
	if err != nil {
		return fmt.Errorf("hash staff password: %w", err)
	}
	c.StaffHash = h
	return nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLogger returns a JSON handler in production and a text handler otherwise.
func newLogger(c config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.production() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
