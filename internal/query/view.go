package query

import (
	"strings"
	"sync"
)

// View holds listing parameters across refreshes. F is the category type.
//
// Changing the query, the filter or the page size resets the page to 0.
// Compute stores the clamped page so a shrinking collection never leaves the
// view pointing past its last page. View is safe for concurrent use.
type View[F comparable] struct {
	mu       sync.Mutex
	query    string
	filter   F
	pageSize int
	page     int
}

// NewView returns a view with the given filter and page size on page 0.
func NewView[F comparable](filter F, pageSize int) *View[F] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &View[F]{filter: filter, pageSize: pageSize}
}

// State is a copy of a view's parameters.
type State[F comparable] struct {
	Query    string
	Filter   F
	PageSize int
	Page     int
}

// State returns the current parameters.
func (v *View[F]) State() State[F] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State[F]{Query: v.query, Filter: v.filter, PageSize: v.pageSize, Page: v.page}
}

// SetQuery changes the search text. Whitespace-only differences still count
// as a change of text.
func (v *View[F]) SetQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if q != v.query {
		v.query = q
		v.page = 0
	}
}

// SetFilter changes the category.
func (v *View[F]) SetFilter(f F) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if f != v.filter {
		v.filter = f
		v.page = 0
	}
}

// SetPageSize changes the page size; sizes below 1 use DefaultPageSize.
func (v *View[F]) SetPageSize(size int) {
	if size < 1 {
		size = DefaultPageSize
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if size != v.pageSize {
		v.pageSize = size
		v.page = 0
	}
}

// SetPage moves to page; it is clamped at the next Compute.
func (v *View[F]) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = max(page, 0)
}

// Next advances one page.
func (v *View[F]) Next() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page++
}

// Prev goes back one page, stopping at 0.
func (v *View[F]) Prev() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = max(v.page-1, 0)
}

// ResetPage returns to page 0, as after a refresh.
func (v *View[F]) ResetPage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = 0
}

// Compute runs search, then the category predicate built by match, then
// pagination, and stores the effective page.
func Compute[T any, F comparable](v *View[F], items []T, fields []Field[T], match func(F) func(T) bool) Page[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	found := Search(items, v.query, fields...)
	var pred func(T) bool
	if match != nil {
		pred = match(v.filter)
	}
	filtered := Filter(found, pred)
	page := Paginate(filtered, v.page, v.pageSize)
	v.page = page.Index
	return page
}

// Normalize trims a user-entered query; callers may use it before SetQuery
// when whitespace-only edits should not reset the page.
func Normalize(q string) string {
	return strings.TrimSpace(q)
}
