package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"swimtrack/internal/adapters/gateway/postgrest"
	"swimtrack/internal/adapters/http/middleware"
)

// validate checks request DTO tags. Field names in errors follow the json tags.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "error", err.Error(), "request_id", middleware.RequestIDFromContext(r.Context()))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// upstreamError maps a remote store failure. Details stay in the log.
func upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *postgrest.APIError
	switch {
	case errors.Is(err, postgrest.ErrSessionNotFound), postgrest.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &apiErr):
		slog.Error("upstream_error", "status", apiErr.Status, "code", apiErr.Code, "error", err.Error(), "request_id", middleware.RequestIDFromContext(r.Context()))
		writeError(w, http.StatusBadGateway, "remote store error")
	default:
		internalError(w, r, err)
	}
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeAndValidate reads a JSON body into v and checks its validate tags.
// It writes the 400 response itself and reports whether the handler may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := strictDecode(r, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		validationError(w, err)
		return false
	}
	return true
}

// validationError reports each failing field with the tag it failed.
func validationError(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, "invalid input")
		return
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("http_event", "event", "encode_failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// pathInt parses a positive integer path value.
func pathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// staffUser names the caller in logs.
func staffUser(r *http.Request) string {
	if u, ok := middleware.StaffFromContext(r.Context()); ok {
		return u
	}
	return "anonymous"
}
