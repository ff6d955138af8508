// Package optimistic applies local changes to an in-memory collection before
// the remote service confirms them, and restores the prior collection when
// it does not.
//
// A Store publishes its collection as an immutable slice: every write swaps
// in a new slice and no published slice is modified afterwards. Each
// mutation captures the whole collection it replaced. A failed mutation
// restores that collection when nothing was written after its local change,
// and otherwise only its own entry, so overlapping mutations roll back
// independently. A successful mutation
// writes the server's authoritative entity into the current collection, but
// only while that entity is still present.
package optimistic
