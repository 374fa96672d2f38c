package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL applies when the response carries neither max-age nor Expires.
const DefaultTTL = 5 * time.Minute

// ResponseToEntry reads resp into an Entry and restores resp.Body for the
// caller. ok is false when the response must not be cached.
func ResponseToEntry(resp *http.Response) (entry *Entry, ok bool, err error) {
	if resp == nil {
		return nil, false, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	now := time.Now()
	entry = &Entry{
		Data:       body,
		ETag:       resp.Header.Get("ETag"),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		CachedAt:   now,
	}

	if lastModStr := resp.Header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	expires, cacheable := expiresFrom(resp.Header, now)
	entry.Expires = expires
	return entry, cacheable, nil
}

// expiresFrom derives the expiry from Cache-Control, then Expires, then
// DefaultTTL. cacheable is false for no-store.
func expiresFrom(headers http.Header, now time.Time) (expires time.Time, cacheable bool) {
	for _, directive := range strings.Split(headers.Get("Cache-Control"), ",") {
		directive = strings.ToLower(strings.TrimSpace(directive))
		switch {
		case directive == "no-store":
			return now, false
		case directive == "no-cache":
			return now, false
		case strings.HasPrefix(directive, "max-age="):
			if secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age=")); err == nil {
				if secs <= 0 {
					return now, false
				}
				return now.Add(time.Duration(secs) * time.Second), true
			}
		}
	}

	if expiresStr := headers.Get("Expires"); expiresStr != "" {
		if expires, err := http.ParseTime(expiresStr); err == nil {
			if !expires.After(now) {
				return now, false
			}
			return expires, true
		}
	}

	return now.Add(DefaultTTL), true
}

// AddConditionalHeaders sets If-None-Match (preferred) or If-Modified-Since
// on req from entry.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if entry == nil || req == nil {
		return
	}
	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else if !entry.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", entry.LastModified.UTC().Format(http.TimeFormat))
	}
}

// EntryToResponse rebuilds an HTTP response for req from a cached entry.
func EntryToResponse(req *http.Request, entry *Entry) *http.Response {
	headers := entry.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("X-Flowdesk-Cache", "hit")

	status := entry.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
		Request:       req,
	}
}
