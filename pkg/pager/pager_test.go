package pager

import (
	"reflect"
	"testing"
)

func seq(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func TestNew_PanicsOnInvalidPageSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("New with page size %d should panic", size)
				}
			}()
			New(seq(3), size)
		}()
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		pageSize int
		want     int
	}{
		{"empty", 0, 5, 0},
		{"single partial page", 3, 5, 1},
		{"exact fit", 10, 5, 2},
		{"one over", 11, 5, 3},
		{"page size one", 7, 1, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(seq(tt.n), tt.pageSize)
			if got := p.TotalPages(); got != tt.want {
				t.Errorf("TotalPages() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChangePage_Clamps(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		requested int
		want      int
	}{
		{"in range", 12, 2, 2},
		{"above range", 12, 5, 3},
		{"zero", 12, 0, 1},
		{"negative", 12, -4, 1},
		{"empty collection", 0, 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(seq(tt.n), 5)
			if got := p.ChangePage(tt.requested); got != tt.want {
				t.Errorf("ChangePage(%d) = %d, want %d", tt.requested, got, tt.want)
			}
			if p.CurrentPage() != tt.want {
				t.Errorf("CurrentPage() = %d, want %d", p.CurrentPage(), tt.want)
			}
		})
	}
}

func TestChangePage_Idempotent(t *testing.T) {
	p := New(seq(23), 5)
	first := p.ChangePage(4)
	second := p.ChangePage(p.CurrentPage())
	if first != second {
		t.Errorf("ChangePage(current) = %d, want %d", second, first)
	}
	if !reflect.DeepEqual(p.CurrentItems(), []int{15, 16, 17, 18, 19}) {
		t.Errorf("CurrentItems() = %v after idempotent change", p.CurrentItems())
	}
}

func TestCurrentItems_Lengths(t *testing.T) {
	const n, size = 23, 5
	p := New(seq(n), size)

	for page := 1; page <= p.TotalPages(); page++ {
		p.ChangePage(page)
		want := size
		if page == p.TotalPages() && n%size != 0 {
			want = n % size
		}
		if got := len(p.CurrentItems()); got != want {
			t.Errorf("page %d: len(CurrentItems()) = %d, want %d", page, got, want)
		}
	}
}

func TestScenario_TwelveItems(t *testing.T) {
	items := seq(12)
	p := New(items, 5)

	if p.TotalPages() != 3 {
		t.Fatalf("TotalPages() = %d, want 3", p.TotalPages())
	}
	if got := p.ChangePage(5); got != 3 {
		t.Fatalf("ChangePage(5) = %d, want 3", got)
	}
	if got := p.CurrentItems(); !reflect.DeepEqual(got, items[10:12]) {
		t.Errorf("CurrentItems() = %v, want %v", got, items[10:12])
	}
}

func TestScenario_Empty(t *testing.T) {
	p := New([]string{}, 5)

	if p.TotalPages() != 0 {
		t.Errorf("TotalPages() = %d, want 0", p.TotalPages())
	}
	if got := p.CurrentItems(); len(got) != 0 {
		t.Errorf("CurrentItems() = %v, want empty", got)
	}
	if got := p.ChangePage(42); got != 1 {
		t.Errorf("ChangePage(42) = %d, want 1", got)
	}
	if got := p.VisiblePageNumbers(5); len(got) != 0 {
		t.Errorf("VisiblePageNumbers(5) = %v, want empty", got)
	}
	if p.HasNext() || p.HasPrev() {
		t.Error("empty pager should have no navigation")
	}
}

func TestVisiblePageNumbers(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		page       int
		maxVisible int
		want       []int
	}{
		{"centered", 200, 10, 5, []int{8, 9, 10, 11, 12}},
		{"fewer pages than window", 30, 1, 5, []int{1, 2, 3}},
		{"near start", 200, 2, 5, []int{1, 2, 3, 4, 5}},
		{"near end", 200, 19, 5, []int{16, 17, 18, 19, 20}},
		{"last page", 200, 20, 5, []int{16, 17, 18, 19, 20}},
		{"even window", 200, 10, 4, []int{8, 9, 10, 11}},
		{"window of one", 200, 7, 1, []int{7}},
		{"zero window", 200, 7, 0, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(seq(tt.n), 10)
			p.ChangePage(tt.page)
			if got := p.VisiblePageNumbers(tt.maxVisible); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("VisiblePageNumbers(%d) = %v, want %v", tt.maxVisible, got, tt.want)
			}
		})
	}
}

func TestSetCollection_KeepsPageWithinRange(t *testing.T) {
	p := New(seq(50), 5)
	p.ChangePage(8)

	p.SetCollection(seq(45))
	if p.CurrentPage() != 8 {
		t.Errorf("CurrentPage() = %d, want 8 (still in range)", p.CurrentPage())
	}

	p.SetCollection(seq(12))
	if p.CurrentPage() != 3 {
		t.Errorf("CurrentPage() = %d, want 3 (clamped)", p.CurrentPage())
	}

	p.SetCollection(nil)
	if p.CurrentPage() != 1 {
		t.Errorf("CurrentPage() = %d, want 1 for empty collection", p.CurrentPage())
	}
}

func TestFilterChanged_ResetsToFirstPage(t *testing.T) {
	p := New(seq(50), 5)
	p.ChangePage(6)

	p.FilterChanged(seq(40))
	if p.CurrentPage() != 1 {
		t.Errorf("CurrentPage() = %d, want 1 after filter change", p.CurrentPage())
	}
	if !reflect.DeepEqual(p.CurrentItems(), []int{0, 1, 2, 3, 4}) {
		t.Errorf("CurrentItems() = %v", p.CurrentItems())
	}
}

func TestReset(t *testing.T) {
	p := New(seq(50), 5)
	p.ChangePage(4)
	p.Reset()
	if p.CurrentPage() != 1 {
		t.Errorf("CurrentPage() = %d, want 1", p.CurrentPage())
	}
	if p.HasPrev() {
		t.Error("HasPrev() should be false on page 1")
	}
	if !p.HasNext() {
		t.Error("HasNext() should be true on page 1 of 10")
	}
}
