package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const staffContextKey contextKey = "staff"

// verifiedTTL is how long a checked credential pair skips bcrypt.
const verifiedTTL = 10 * time.Minute

// StaffAuth guards the API with HTTP basic auth for the club staff account.
// Successful checks are cached by a digest of the credentials so bcrypt runs
// once per client rather than once per request.
type StaffAuth struct {
	user string
	hash []byte

	mu       sync.Mutex
	verified map[string]time.Time
	now      func() time.Time
}

// NewStaffAuth creates a guard for one staff account.
// PRE: hash is a bcrypt hash, or user is empty to disable the guard
func NewStaffAuth(user string, hash []byte) *StaffAuth {
	return &StaffAuth{
		user:     user,
		hash:     hash,
		verified: make(map[string]time.Time),
		now:      time.Now,
	}
}

// HashPassword returns the bcrypt hash stored for a plain-text staff password.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Enabled reports whether requests are checked at all.
func (a *StaffAuth) Enabled() bool {
	return a != nil && a.user != ""
}

// Check verifies a user and password pair.
// POST: returns true only for the configured user with a matching password
func (a *StaffAuth) Check(user, password string) bool {
	digest := sha256.Sum256([]byte(user + "\x00" + password))
	key := hex.EncodeToString(digest[:])

	a.mu.Lock()
	if exp, ok := a.verified[key]; ok && a.now().Before(exp) {
		a.mu.Unlock()
		return true
	}
	a.mu.Unlock()

	if subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) != 1 {
		return false
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		return false
	}

	a.mu.Lock()
	now := a.now()
	for k, exp := range a.verified {
		if now.After(exp) {
			delete(a.verified, k)
		}
	}
	a.verified[key] = now.Add(verifiedTTL)
	a.mu.Unlock()
	return true
}

// Auth returns middleware that requires staff credentials on every path except
// the listed public prefixes. A disabled guard lets everything through.
func Auth(a *StaffAuth, public ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.Enabled() || isPublic(r.URL.Path, public) {
				next.ServeHTTP(w, r)
				return
			}
			user, password, ok := r.BasicAuth()
			if !ok || !a.Check(user, password) {
				if ok {
					slog.Warn("auth_event", "event", "login_failed", "user", user, "ip", clientIP(r))
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="swimtrack", charset="UTF-8"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), staffContextKey, user)))
		})
	}
}

func isPublic(path string, public []string) bool {
	for _, p := range public {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

// StaffFromContext returns the authenticated staff user, if any.
func StaffFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(staffContextKey).(string)
	return user, ok
}

// ContextWithStaff returns a context carrying user as the authenticated staff member.
// Intended for use in tests.
func ContextWithStaff(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, staffContextKey, user)
}
