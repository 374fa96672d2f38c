package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	lastModified := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header: http.Header{
			"Cache-Control": []string{"private, max-age=120"},
			"Last-Modified": []string{lastModified.Format(http.TimeFormat)},
			"Etag":          []string{`"v7"`},
			"Content-Type":  []string{"application/json"},
		},
		Body: io.NopCloser(bytes.NewReader([]byte(`{"code":200}`))),
	}

	entry, ok, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}
	if !ok {
		t.Fatal("ResponseToEntry() reported uncacheable response")
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"code":200}` {
		t.Errorf("response body not restored, got %q", body)
	}
	if string(entry.Data) != `{"code":200}` {
		t.Errorf("Data = %q", entry.Data)
	}
	if entry.ETag != `"v7"` {
		t.Errorf("ETag = %q", entry.ETag)
	}
	if !entry.LastModified.Equal(lastModified) {
		t.Errorf("LastModified = %v, want %v", entry.LastModified, lastModified)
	}
	if ttl := entry.TTL(); ttl < 115*time.Second || ttl > 120*time.Second {
		t.Errorf("TTL = %v, want about 120s", ttl)
	}
	if !entry.CanRevalidate() {
		t.Error("CanRevalidate() = false with ETag set")
	}
}

func TestResponseToEntry_NilResponse(t *testing.T) {
	if _, _, err := ResponseToEntry(nil); err == nil {
		t.Error("ResponseToEntry(nil) should fail")
	}
}

func TestExpiresFrom(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		headers       http.Header
		wantExpires   time.Time
		wantCacheable bool
	}{
		{
			name:          "max-age wins over expires",
			headers:       http.Header{"Cache-Control": {"max-age=60"}, "Expires": {now.Add(time.Hour).Format(http.TimeFormat)}},
			wantExpires:   now.Add(time.Minute),
			wantCacheable: true,
		},
		{
			name:          "expires header",
			headers:       http.Header{"Expires": {now.Add(time.Hour).Format(http.TimeFormat)}},
			wantExpires:   now.Add(time.Hour),
			wantCacheable: true,
		},
		{
			name:          "no headers uses default",
			headers:       http.Header{},
			wantExpires:   now.Add(DefaultTTL),
			wantCacheable: true,
		},
		{
			name:          "invalid expires uses default",
			headers:       http.Header{"Expires": {"soon"}},
			wantExpires:   now.Add(DefaultTTL),
			wantCacheable: true,
		},
		{
			name:          "no-store",
			headers:       http.Header{"Cache-Control": {"No-Store"}},
			wantExpires:   now,
			wantCacheable: false,
		},
		{
			name:          "max-age zero",
			headers:       http.Header{"Cache-Control": {"max-age=0"}},
			wantExpires:   now,
			wantCacheable: false,
		},
		{
			name:          "expires in the past",
			headers:       http.Header{"Expires": {now.Add(-time.Hour).Format(http.TimeFormat)}},
			wantExpires:   now,
			wantCacheable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cacheable := expiresFrom(tt.headers, now)
			if cacheable != tt.wantCacheable {
				t.Errorf("cacheable = %v, want %v", cacheable, tt.wantCacheable)
			}
			if !got.Equal(tt.wantExpires) {
				t.Errorf("expires = %v, want %v", got, tt.wantExpires)
			}
		})
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	lastModified := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name          string
		entry         *Entry
		wantETag      string
		wantSinceTime string
	}{
		{
			name:     "etag preferred",
			entry:    &Entry{ETag: `"abc"`, LastModified: lastModified},
			wantETag: `"abc"`,
		},
		{
			name:          "last-modified fallback",
			entry:         &Entry{LastModified: lastModified},
			wantSinceTime: lastModified.Format(http.TimeFormat),
		},
		{
			name:  "nothing to revalidate",
			entry: &Entry{},
		},
		{
			name: "nil entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://api.test/api/v1/customers", nil)
			AddConditionalHeaders(req, tt.entry)

			if got := req.Header.Get("If-None-Match"); got != tt.wantETag {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantETag)
			}
			if got := req.Header.Get("If-Modified-Since"); got != tt.wantSinceTime {
				t.Errorf("If-Modified-Since = %q, want %q", got, tt.wantSinceTime)
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://api.test/api/v1/roles", nil)
	entry := &Entry{
		Data:    []byte(`{"code":200,"data":[]}`),
		Headers: http.Header{"Content-Type": {"application/json"}},
	}

	resp := EntryToResponse(req, entry)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Flowdesk-Cache") != "hit" {
		t.Error("missing cache marker header")
	}
	if entry.Headers.Get("X-Flowdesk-Cache") != "" {
		t.Error("entry headers were mutated")
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != string(entry.Data) {
		t.Errorf("body = %q", body)
	}
	if resp.Request != req {
		t.Error("Request not set on response")
	}
}
