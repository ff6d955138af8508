// Package apitest runs an in-memory copy of the remote projects and tasks
// service for tests. It speaks the same routes and error bodies as the
// real service and lets a test vary the progress summary shape, inject
// failures, hold calls in flight and revoke credentials.
package apitest
