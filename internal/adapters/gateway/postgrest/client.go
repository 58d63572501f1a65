package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"swimtrack/internal/adapters/http/perf"
)

// DefaultTimeout is the transport timeout when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// DefaultSlowCall is the threshold above which a call is logged at WARN.
const DefaultSlowCall = 1500 * time.Millisecond

const restPrefix = "/rest/v1/"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// ErrMissingConfig is returned when the base URL or key is empty.
var ErrMissingConfig = errors.New("postgrest: base URL and API key are required")

// Config configures a Client.
type Config struct {
	// BaseURL is the project URL, with or without the /rest/v1 suffix.
	BaseURL string
	// APIKey is sent both as apikey and as bearer token.
	APIKey string
	// Timeout bounds a whole HTTP exchange. Zero means DefaultTimeout.
	Timeout time.Duration
	// SlowCall is the slow-call logging threshold. Zero means DefaultSlowCall.
	SlowCall time.Duration
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
	// Collector receives one perf.KindGateway entry per call when non-nil.
	Collector *perf.Collector
}

// Client talks to a PostgREST (Supabase) REST endpoint.
type Client struct {
	base      *url.URL
	apiKey    string
	http      *http.Client
	collector *perf.Collector
	slow      time.Duration
}

// NewClient validates cfg and builds a client.
// PRE: cfg.BaseURL is an absolute URL, cfg.APIKey is non-empty
// POST: Returns a ready client or an error describing the bad field
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingConfig
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("postgrest: parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("postgrest: base URL %q must be absolute", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, strings.TrimSuffix(restPrefix, "/")) {
		base.Path += strings.TrimSuffix(restPrefix, "/")
	}
	base.Path += "/"

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	slow := cfg.SlowCall
	if slow <= 0 {
		slow = DefaultSlowCall
	}
	return &Client{
		base:      base,
		apiKey:    cfg.APIKey,
		http:      hc,
		collector: cfg.Collector,
		slow:      slow,
	}, nil
}

// APIError is a non-2xx answer from PostgREST.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("postgrest %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("postgrest %d: %s", e.Status, msg)
}

// IsNotFound reports whether err is a PostgREST "no rows" answer.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || apiErr.Code == "PGRST116"
}

// request describes one REST exchange.
type request struct {
	method   string
	resource string // table name or rpc/<function>
	query    url.Values
	body     any
	prefer   []string
}

// do performs req and decodes a JSON answer into out when out is non-nil.
// PRE: ctx carries the caller's deadline
// POST: non-2xx answers are returned as *APIError
func (c *Client) do(ctx context.Context, req request, out any) error {
	u := *c.base
	u.Path += req.resource
	if len(req.query) > 0 {
		u.RawQuery = encodeQuery(req.query)
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("postgrest: encode %s body: %w", req.resource, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("postgrest: build request: %w", err)
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if len(req.prefer) > 0 {
		httpReq.Header.Set("Prefer", strings.Join(req.prefer, ","))
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.logCall(req, status, start, err)
	if err != nil {
		return fmt.Errorf("postgrest: %s %s: %w", req.method, req.resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("postgrest: decode %s: %w", req.resource, err)
	}
	return nil
}

// encodeQuery keeps PostgREST operator syntax readable: url.Values.Encode
// would escape the parentheses and commas of in.(1,2,3). Keys are sorted
// so a request always has the same URL.
func encodeQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		for _, v := range q[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(escapeValue(v))
		}
	}
	return b.String()
}

func escapeValue(v string) string {
	escaped := url.QueryEscape(v)
	r := strings.NewReplacer("%28", "(", "%29", ")", "%2C", ",")
	return r.Replace(escaped)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, apiErr); err != nil {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
	}
	return apiErr
}

// logCall logs the call and records it to the collector.
func (c *Client) logCall(req request, status int, start time.Time, err error) {
	elapsed := time.Since(start)
	durationMs := float64(elapsed.Microseconds()) / 1000.0
	switch {
	case err != nil:
		slog.Error("gateway_call", "method", req.method, "resource", req.resource, "duration_ms", durationMs, "error", err)
	case elapsed >= c.slow:
		slog.Warn("gateway_call", "method", req.method, "resource", req.resource, "status", status, "duration_ms", durationMs, "slow", true)
	default:
		slog.Debug("gateway_call", "method", req.method, "resource", req.resource, "status", status, "duration_ms", durationMs)
	}
	if c.collector != nil {
		c.collector.Record(perf.Entry{
			Kind:       perf.KindGateway,
			Path:       req.method + " " + req.resource,
			StatusCode: status,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
}

// eq renders a PostgREST equality filter.
func eq(v any) string {
	return fmt.Sprintf("eq.%v", v)
}

// inList renders a PostgREST membership filter.
func inList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return "in.(" + strings.Join(parts, ",") + ")"
}
