// Package engine talks to the external search and recommendation service.
// The backend never scores anything itself: it forwards the query and maps
// the returned slugs onto catalog rows.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/theLastOfCats/series-browser/internal/metrics"
	"github.com/theLastOfCats/series-browser/internal/model"
)

// ErrUnavailable is returned when no engine is configured.
var ErrUnavailable = errors.New("engine not available")

// Hit is one scored result.
type Hit struct {
	Slug    string              `json:"slug"`
	Score   float64             `json:"score"`
	Details *model.ScoreDetails `json:"details,omitempty"`
}

type response struct {
	Results []Hit `json:"results"`
}

type profileRequest struct {
	Series []string `json:"series"`
	Limit  int      `json:"limit"`
}

// Engine is what the API handlers need from the scoring service.
type Engine interface {
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
	Similar(ctx context.Context, slug string, limit int) ([]Hit, error)
	Profile(ctx context.Context, liked []string, limit int) ([]Hit, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	return c.do(ctx, "search", http.MethodGet, "search?"+q.Encode(), nil)
}

func (c *Client) Similar(ctx context.Context, slug string, limit int) ([]Hit, error) {
	q := url.Values{}
	q.Set("serie", slug)
	q.Set("limit", strconv.Itoa(limit))
	return c.do(ctx, "similar", http.MethodGet, "similar?"+q.Encode(), nil)
}

func (c *Client) Profile(ctx context.Context, liked []string, limit int) ([]Hit, error) {
	return c.do(ctx, "profile", http.MethodPost, "profile", profileRequest{Series: liked, Limit: limit})
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) ([]Hit, error) {
	start := time.Now()
	defer func() {
		metrics.EngineRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine %s request failed: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("engine %s returned status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode engine %s response: %w", op, err)
	}
	return out.Results, nil
}
