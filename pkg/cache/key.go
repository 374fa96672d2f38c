package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix prefixes every cache key in Redis.
const KeyPrefix = "flowdesk:cache"

const anonymous = "_"

// Key identifies a cached GET response.
type Key struct {
	// Principal is the username the response was fetched for.
	Principal string

	// Endpoint is the request path, e.g. "/api/v1/customers".
	Endpoint string

	// QueryParams are the request query parameters.
	QueryParams url.Values
}

// String renders a deterministic Redis key:
//
//	flowdesk:cache:alice:api/v1/customers:page=1:search=acme
func (k Key) String() string {
	parts := []string{resourcePrefix(k.Principal, k.Endpoint)}

	if len(k.QueryParams) > 0 {
		names := make([]string, 0, len(k.QueryParams))
		for name := range k.QueryParams {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.QueryParams[name]...)
			sort.Strings(values)
			parts = append(parts, name+"="+strings.Join(values, ","))
		}
	}

	return strings.Join(parts, ":")
}

// ResourceOf returns the collection path an endpoint belongs to: the path
// up to and including the first segment after the API version, so
// "/api/v1/customers/42/contacts" -> "api/v1/customers".
func ResourceOf(endpoint string) string {
	segments := strings.Split(strings.Trim(endpoint, "/"), "/")
	for i, seg := range segments {
		if len(seg) > 1 && seg[0] == 'v' && isDigits(seg[1:]) && i+1 < len(segments) {
			return strings.Join(segments[:i+2], "/")
		}
	}
	return segments[0]
}

func resourcePrefix(principal, endpoint string) string {
	if principal == "" {
		principal = anonymous
	}
	return KeyPrefix + ":" + principal + ":" + strings.Trim(endpoint, "/")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
