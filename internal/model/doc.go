// Package model defines the workspace entities shared by every taskflow
// package: projects, tasks, the cross-project task row and calendar dates.
//
// Projects and tasks are owned by the remote service. Values held here are a
// read-through cache and are never mutated in place once published.
package model
