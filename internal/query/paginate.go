package query

// DefaultPageSize is used when a page size below 1 is requested.
const DefaultPageSize = 8

// PageSizes are the sizes offered to users; others are accepted too.
var PageSizes = []int{6, 8, 12, 16}

// Page is one slice of a filtered collection.
type Page[T any] struct {
	Items []T
	// Index is the effective zero-based page after clamping.
	Index      int
	Size       int
	TotalPages int
	// Total is the filtered item count across all pages.
	Total int
}

// HasNext reports whether a later page exists.
func (p Page[T]) HasNext() bool { return p.Index < p.TotalPages-1 }

// HasPrev reports whether an earlier page exists.
func (p Page[T]) HasPrev() bool { return p.Index > 0 }

// TotalPages returns max(1, ceil(n/size)).
func TotalPages(n, size int) int {
	if size < 1 {
		size = DefaultPageSize
	}
	pages := (n + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage limits page to [0, totalPages-1].
func ClampPage(page, totalPages int) int {
	if page >= totalPages {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

// Paginate returns the requested page, clamped to the last valid page.
// The returned Items alias the input slice.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size < 1 {
		size = DefaultPageSize
	}
	total := len(items)
	pages := TotalPages(total, size)
	page = ClampPage(page, pages)

	start := page * size
	end := min(start+size, total)
	start = min(start, end)

	return Page[T]{
		Items:      items[start:end:end],
		Index:      page,
		Size:       size,
		TotalPages: pages,
		Total:      total,
	}
}
