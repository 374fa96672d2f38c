// Package cache keeps GET responses of the workflow API in Redis so list
// screens can be redrawn without refetching, and revalidates them with
// conditional requests.
//
// Entries are scoped to the principal that fetched them: two operators
// sharing one Redis never see each other's cached lists.
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Principal:   "alice",
//		Endpoint:    "/api/v1/customers",
//		QueryParams: url.Values{"page": []string{"1"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the API, then manager.Set(ctx, key, entry)
//	}
//
// A write to a resource drops every cached read of it for that principal:
//
//	manager.InvalidateResource(ctx, "alice", "/api/v1/customers/42")
//
// Expiry comes from Cache-Control max-age, then Expires, then DefaultTTL.
// Responses marked no-store are never cached.
//
// Metrics:
//
//   - flowdesk_cache_hits_total{layer="redis"}
//   - flowdesk_cache_misses_total
//   - flowdesk_cache_size_bytes{layer="redis"}
//   - flowdesk_cache_not_modified_total
//   - flowdesk_cache_conditional_requests_total
//   - flowdesk_cache_invalidations_total
//   - flowdesk_cache_errors_total{operation}
package cache
