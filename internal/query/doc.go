// Package query implements the client-side listing pipeline: free-text
// search, then a categorical filter over derived status, then pagination.
//
// The stages are pure functions over slices. View carries the user's
// parameters between refreshes and enforces that the page index returns to
// zero whenever the search text, filter or page size changes.
package query
