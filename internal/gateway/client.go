// Package gateway is the single path from the client to the catalog backend.
// Every call goes through Client.Call, which builds the request, decodes the
// answer whatever its content type, turns failures into typed errors and
// notifies the user exactly once per failed call.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theLastOfCats/series-browser/internal/logging"
)

// CatalogEndpoint lists the whole catalog. A failure there means the backend
// itself is unreachable, so it gets its own notification text.
const CatalogEndpoint = "series"

// Notifier shows a failure to the user.
type Notifier interface {
	NotifyError(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) NotifyError(message string) { f(message) }

// TokenSource yields the bearer token of the current session, or "".
type TokenSource func() string

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Options override the request defaults of Call.
type Options struct {
	Method  string
	Body    any
	Headers map[string]string
	// Quiet suppresses the user notification; the error is still returned.
	Quiet bool
}

// Result is a successful response.
type Result struct {
	Status      int
	ContentType string
	Body        []byte
}

// IsJSON reports whether the response declared a JSON content type.
func (r *Result) IsJSON() bool {
	return isJSON(r.ContentType)
}

// JSON decodes the body into v.
func (r *Result) JSON(v any) error {
	if !r.IsJSON() {
		return fmt.Errorf("expected a JSON response, got %q", r.ContentType)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Text returns the body as a string.
func (r *Result) Text() string {
	return string(r.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	notifier   Notifier
	token      TokenSource
	log        zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource attaches the session token to every request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

func New(cfg Config, notifier Notifier, opts ...Option) *Client {
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		notifier:   notifier,
		log:        logging.WithComponent("gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the absolute URL of endpoint.
func (c *Client) URL(endpoint string) string {
	return c.baseURL + "/" + strings.TrimPrefix(endpoint, "/")
}

// Call issues one request against endpoint. On failure it notifies the user
// (unless opts.Quiet) and returns a *RequestFailed or *NetworkError.
func (c *Client) Call(ctx context.Context, endpoint string, opts Options) (*Result, error) {
	res, err := c.do(ctx, endpoint, opts)
	if err != nil {
		if !opts.Quiet {
			c.notifier.NotifyError(notification(endpoint, err))
		}
		return nil, err
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, endpoint string, opts Options) (*Result, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	body, err := encodeBody(opts.Body)
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(endpoint), body)
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("request_id", requestID).Str("method", method).Str("endpoint", endpoint).Msg("request failed")
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	contentType := resp.Header.Get("Content-Type")
	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestFailed{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Message:  errorMessage(endpoint, resp.StatusCode, contentType, data),
		}
	}

	return &Result{Status: resp.StatusCode, ContentType: contentType, Body: data}, nil
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}

// errorMessage prefers the backend's JSON "error" field and falls back to a
// message naming the status and endpoint.
func errorMessage(endpoint string, status int, contentType string, body []byte) string {
	if isJSON(contentType) {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
			return payload.Error
		}
	}
	return fmt.Sprintf("HTTP %d on %s", status, endpoint)
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func notification(endpoint string, err error) string {
	if path(endpoint) == CatalogEndpoint {
		return "Backend unreachable: " + Message(err)
	}
	return "Error: " + Message(err)
}

func path(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	return endpoint
}
