// Package testutil provides a mock workflow API server for tests.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"

	json "github.com/bytedance/sonic"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is a request the mock received.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// MockAPI is a configurable mock workflow API server.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requests         []RecordedRequest
	conditionalCount int
}

// NewMockAPI starts a mock server. Unregistered routes answer 404 with an
// error envelope.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.conditionalCount++
		}
		handler, exists := mock.handlers[route(r.Method, r.URL.Path)]
		if !exists {
			handler, exists = mock.handlers[route("", r.URL.Path)]
		}
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		WriteEnvelope(w, http.StatusNotFound, 404, "not found", nil)
	}))

	return mock
}

func route(method, path string) string {
	return method + " " + path
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears recorded requests.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.conditionalCount = 0
}

// SetHandler routes method and path to handler. An empty method matches
// any method not registered explicitly.
func (m *MockAPI) SetHandler(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[route(method, path)] = handler
}

// SetResponse configures a fixed response for method and path.
func (m *MockAPI) SetResponse(method, path string, resp MockResponse) {
	m.SetHandler(method, path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetData answers method and path with a success envelope around data.
func (m *MockAPI) SetData(method, path string, data any) {
	m.SetHandler(method, path, func(w http.ResponseWriter, r *http.Request) {
		WriteEnvelope(w, http.StatusOK, 200, "ok", data)
	})
}

// Requests returns a copy of the recorded requests.
func (m *MockAPI) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// LastRequest returns the most recent request, or nil.
func (m *MockAPI) LastRequest() *RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return nil
	}
	r := m.requests[len(m.requests)-1]
	return &r
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// WriteEnvelope writes {"code","message","data"} with status.
func WriteEnvelope(w http.ResponseWriter, status, code int, message string, data any) {
	body, err := json.Marshal(map[string]any{
		"code":    code,
		"message": message,
		"data":    data,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

// Envelope renders a success envelope body.
func Envelope(data any) string {
	body, _ := json.Marshal(map[string]any{"code": 200, "message": "ok", "data": data})
	return string(body)
}

// NewHealthyResponse creates a 200 envelope response with rate limit and
// caching headers.
func NewHealthyResponse(data any) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       Envelope(data),
		Headers: map[string]string{
			"X-RateLimit-Remaining": "100",
			"X-RateLimit-Reset":     "60",
			"ETag":                  `"test-etag-123"`,
			"Cache-Control":         "max-age=300",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewErrorResponse creates an error envelope response.
func NewErrorResponse(status int, message string) MockResponse {
	body, _ := json.Marshal(map[string]any{"code": status, "message": message, "data": nil})
	return MockResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter time.Duration) MockResponse {
	resp := NewErrorResponse(http.StatusTooManyRequests, "rate limit exceeded")
	resp.Headers["Retry-After"] = strconv.Itoa(int(retryAfter.Seconds()))
	return resp
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return NewErrorResponse(http.StatusInternalServerError, "internal server error")
}

// NewConditionalHandler answers 304 when If-None-Match equals etag.
func NewConditionalHandler(etag string, data any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=300")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		WriteEnvelope(w, http.StatusOK, 200, "ok", data)
	}
}

// NewPagedHandler serves items as a paginated list, honoring the page and
// pageSize query parameters.
func NewPagedHandler[T any](items []T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
		if pageSize < 1 {
			pageSize = 10
		}

		start := (page - 1) * pageSize
		if start > len(items) {
			start = len(items)
		}
		end := start + pageSize
		if end > len(items) {
			end = len(items)
		}

		WriteEnvelope(w, http.StatusOK, 200, "ok", map[string]any{
			"total":    len(items),
			"page":     page,
			"pageSize": pageSize,
			"data":     items[start:end],
		})
	}
}
