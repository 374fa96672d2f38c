// Package pagination fetches every page of a server-paginated list endpoint.
//
// List endpoints answer `?page=N&pageSize=P` with an envelope whose data is
// a Page: the slice for that page plus the total item count. FetchAll loads
// page 1 to learn the total, then fetches the remaining pages with a bounded
// worker pool and reassembles the items in page order.
//
// Example usage:
//
//	source := pagination.SourceFunc[Customer](svc.List)
//	items, err := pagination.FetchAll(ctx, source, pagination.DefaultConfig())
//
// The batch fetcher:
//   - Fetches the first page to determine the total
//   - Spawns a worker pool (default 5 workers)
//   - Bounds every page fetch by Config.Timeout
//   - Returns the pages it got plus an error when any page fails
package pagination
