// Package progress computes project completion as a {total, done, pct} triple.
//
// A Progress always satisfies 0 <= Done <= Total and Pct == round(Done/Total*100)
// when Total > 0, else 0. The Resolver obtains it from the remote summary
// endpoint, tolerating several legacy response shapes, and falls back to
// counting the project's tasks when the summary is unavailable. Both paths
// produce identical values for the same underlying tasks.
//
// Results are never cached by the Resolver. Callers that need per-refresh
// memoization use a Memo and discard it at the end of the cycle.
package progress
