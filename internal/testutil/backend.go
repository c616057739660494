package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

// Request is one call received by a Backend.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   string
	Header http.Header
}

// Response is a scripted answer.
type Response struct {
	Status      int
	ContentType string
	Body        string
}

// Backend is an httptest server standing in for the catalog API. It answers
// scripted responses keyed by method and path (relative to /api/) and
// records every request.
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	routes   map[string]Response
	requests []Request
}

func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{routes: make(map[string]Response)}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the API base the gateway should be configured with.
func (b *Backend) URL() string {
	return b.Server.URL + "/api"
}

// On scripts a JSON response. body is sent as is when it is a string and
// JSON-encoded otherwise.
func (b *Backend) On(method, path string, status int, body any) {
	var data string
	switch v := body.(type) {
	case string:
		data = v
	case nil:
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		data = string(raw)
	}
	b.set(method, path, Response{Status: status, ContentType: "application/json", Body: data})
}

// OnText scripts a plain-text response.
func (b *Backend) OnText(method, path string, status int, text string) {
	b.set(method, path, Response{Status: status, ContentType: "text/plain; charset=utf-8", Body: text})
}

func (b *Backend) set(method, path string, resp Response) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+strings.TrimPrefix(path, "/")] = resp
}

// Requests returns every recorded request.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns how many requests hit method and path.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Reset forgets recorded requests but keeps the script.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/api/")

	b.mu.Lock()
	b.requests = append(b.requests, Request{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.RawQuery,
		Body:   string(body),
		Header: r.Header.Clone(),
	})
	resp, ok := b.routes[r.Method+" "+path]
	b.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"no route for `+r.Method+` `+path+`"}`)
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp.Body)
}
