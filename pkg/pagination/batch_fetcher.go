package pagination

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Page is one page of a list endpoint.
type Page[T any] struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Data     []T   `json:"data"`
}

// TotalPages returns the number of pages the total spans at this page size.
func (p *Page[T]) TotalPages() int {
	if p.Total <= 0 || p.PageSize <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// PageSource fetches a single page.
type PageSource[T any] interface {
	FetchPage(ctx context.Context, page, pageSize int) (*Page[T], error)
}

// SourceFunc adapts a function to PageSource.
type SourceFunc[T any] func(ctx context.Context, page, pageSize int) (*Page[T], error)

// FetchPage calls f.
func (f SourceFunc[T]) FetchPage(ctx context.Context, page, pageSize int) (*Page[T], error) {
	return f(ctx, page, pageSize)
}

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// PageSize requested from the server
	PageSize int
}

// DefaultConfig returns safe default configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		Timeout:        15 * time.Second,
		PageSize:       100,
	}
}

// pageResult represents the result of fetching a single page
type pageResult[T any] struct {
	pageNumber int
	items      []T
	err        error
}

// BatchFetcher handles parallel fetching of multiple pages
type BatchFetcher[T any] struct {
	source PageSource[T]
	config Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](source PageSource[T], config Config) *BatchFetcher[T] {
	defaults := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}

	return &BatchFetcher[T]{
		source: source,
		config: config,
	}
}

// FetchAll is shorthand for NewBatchFetcher(source, config).FetchAll(ctx).
func FetchAll[T any](ctx context.Context, source PageSource[T], config Config) ([]T, error) {
	return NewBatchFetcher(source, config).FetchAll(ctx)
}

// FetchAll fetches every page and returns the items in page order. When
// some pages fail it returns the items of the pages that succeeded together
// with an error wrapping the first failure.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context) ([]T, error) {
	start := time.Now()

	firstCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	first, err := bf.source.FetchPage(firstCtx, 1, bf.config.PageSize)
	cancel()
	countPage(err)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	// The server may clamp the page size; trust what it reports.
	if first.PageSize <= 0 {
		first.PageSize = bf.config.PageSize
	}
	totalPages := first.TotalPages()

	if totalPages <= 1 {
		log.Debug().
			Int("items", len(first.Data)).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return append([]T{}, first.Data...), nil
	}

	log.Debug().
		Int("total_pages", totalPages).
		Int64("total_items", first.Total).
		Msg("Starting parallel page fetch")

	pages := map[int][]T{1: first.Data}

	pageQueue := make(chan int, totalPages-1)
	for page := 2; page <= totalPages; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	results := make(chan pageResult[T], totalPages-1)

	workers := bf.config.MaxConcurrency
	if workers > totalPages-1 {
		workers = totalPages - 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, first.PageSize, pageQueue, results, &wg, i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var failures []pageResult[T]
	for result := range results {
		if result.err != nil {
			failures = append(failures, result)
			continue
		}
		pages[result.pageNumber] = result.items
	}

	items := assemble(pages)

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].pageNumber < failures[j].pageNumber })
		log.Warn().
			Err(failures[0].err).
			Int("fetched_pages", len(pages)).
			Int("total_pages", totalPages).
			Msg("Page fetch failed - returning partial results")
		return items, fmt.Errorf("fetch page %d (partial data: %d/%d pages): %w",
			failures[0].pageNumber, len(pages), totalPages, failures[0].err)
	}

	if err := ctx.Err(); err != nil {
		return items, fmt.Errorf("fetch cancelled (partial data: %d/%d pages): %w", len(pages), totalPages, err)
	}

	log.Info().
		Int("pages", totalPages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}

func assemble[T any](pages map[int][]T) []T {
	numbers := make([]int, 0, len(pages))
	size := 0
	for n, data := range pages {
		numbers = append(numbers, n)
		size += len(data)
	}
	sort.Ints(numbers)

	items := make([]T, 0, size)
	for _, n := range numbers {
		items = append(items, pages[n]...)
	}
	return items
}

// worker processes pages from the queue
func (bf *BatchFetcher[T]) worker(ctx context.Context, pageSize int, pageQueue <-chan int, results chan<- pageResult[T], wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		if ctx.Err() != nil {
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		page, err := bf.source.FetchPage(pageCtx, pageNum, pageSize)
		cancel()
		countPage(err)

		if err != nil {
			results <- pageResult[T]{pageNumber: pageNum, err: err}
			continue
		}

		results <- pageResult[T]{pageNumber: pageNum, items: page.Data}
		pagesProcessed++
	}
}
