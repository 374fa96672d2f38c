// Package pager derives the visible page of an in-memory collection and the
// navigation state a list view needs (current page, total pages, page-button
// window).
//
// A Pager is owned by a single view and is not safe for concurrent use.
package pager

import "fmt"

// DefaultWindow is the number of page buttons rendered when the caller does
// not pick one.
const DefaultWindow = 5

// Pager pages over a collection of T. The collection is replaced, never
// mutated in place.
type Pager[T any] struct {
	items       []T
	pageSize    int
	currentPage int
}

// New creates a Pager on page 1 over items.
// It panics if pageSize < 1.
func New[T any](items []T, pageSize int) *Pager[T] {
	if pageSize < 1 {
		panic(fmt.Sprintf("pager: page size must be >= 1 (got %d)", pageSize))
	}
	return &Pager[T]{
		items:       items,
		pageSize:    pageSize,
		currentPage: 1,
	}
}

// SetCollection replaces the backing collection. The current page is kept,
// only clamped into the new range. Callers replacing the collection because
// the filter changed use FilterChanged instead.
func (p *Pager[T]) SetCollection(items []T) {
	p.items = items
	p.currentPage = p.clamp(p.currentPage)
}

// FilterChanged replaces the collection after a search/filter change and
// returns to page 1.
func (p *Pager[T]) FilterChanged(items []T) {
	p.items = items
	p.Reset()
}

// ChangePage moves to requested, clamped into [1, TotalPages()] (1 when the
// collection is empty), and returns the resulting page.
func (p *Pager[T]) ChangePage(requested int) int {
	p.currentPage = p.clamp(requested)
	return p.currentPage
}

// Reset returns to page 1.
func (p *Pager[T]) Reset() {
	p.currentPage = 1
}

// CurrentPage returns the 1-based current page.
func (p *Pager[T]) CurrentPage() int {
	return p.currentPage
}

// PageSize returns the page size.
func (p *Pager[T]) PageSize() int {
	return p.pageSize
}

// Len returns the size of the whole collection.
func (p *Pager[T]) Len() int {
	return len(p.items)
}

// TotalPages returns ceil(Len()/PageSize()); 0 for an empty collection.
func (p *Pager[T]) TotalPages() int {
	return (len(p.items) + p.pageSize - 1) / p.pageSize
}

// CurrentItems returns the items of the current page. The result aliases the
// collection.
func (p *Pager[T]) CurrentItems() []T {
	start := (p.currentPage - 1) * p.pageSize
	if start >= len(p.items) {
		return []T{}
	}
	end := min(start+p.pageSize, len(p.items))
	return p.items[start:end]
}

// HasPrev reports whether a previous page exists.
func (p *Pager[T]) HasPrev() bool {
	return p.currentPage > 1
}

// HasNext reports whether a next page exists.
func (p *Pager[T]) HasNext() bool {
	return p.currentPage < p.TotalPages()
}

// VisiblePageNumbers returns a window of at most maxVisible page numbers
// centered on the current page and clamped to [1, TotalPages()]. It is empty
// when there are no pages or maxVisible < 1.
func (p *Pager[T]) VisiblePageNumbers(maxVisible int) []int {
	total := p.TotalPages()
	if total == 0 || maxVisible < 1 {
		return []int{}
	}

	start := max(1, p.currentPage-maxVisible/2)
	end := start + maxVisible - 1
	if end > total {
		end = total
		start = max(1, end-maxVisible+1)
	}

	pages := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		pages = append(pages, n)
	}
	return pages
}

func (p *Pager[T]) clamp(page int) int {
	total := max(p.TotalPages(), 1)
	return max(1, min(page, total))
}
