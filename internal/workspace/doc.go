// Package workspace ties the remote service, progress resolution,
// optimistic mutations and listing views into the three views a user
// works with: the project list, one project's task board, and the task
// board across all projects.
//
// Each view owns an optimistic.Store holding its collection and a
// query.View holding its search, filter and page. Reads recompute the
// listing from the store's current snapshot, so a toggle or delete is
// visible in the next listing before the service confirms it.
package workspace
