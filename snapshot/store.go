// Package snapshot supplies the optional durability collaborator sketched
// by the "no persistence" design note: an interface a document.Supervisor
// can use to seed an actor from something other than the hard-coded
// constant, and to save a copy of each live document's state on every
// periodic SnapshotAll sweep. The document actor's correctness never
// depends on this package. A store is always wired; the default
// MemoryStore keeps snapshots only for the life of the process.
package snapshot

import "context"

// Snapshot is the durable projection of a document.State: just enough to
// reseed an actor, not its full transformed-change history (history is
// intentionally not durable — a restarted actor always starts a fresh
// history at the version it was snapshotted with).
type Snapshot struct {
	ID       string
	Version  int
	Contents []byte // delta.Delta JSON, kept opaque here to avoid an import cycle
}

// Store abstracts snapshot persistence.
type Store interface {
	// Load returns the most recent snapshot for id, or (nil, nil) if none
	// exists — the caller falls back to the hard-coded seed.
	Load(ctx context.Context, id string) (*Snapshot, error)
	// Save persists a snapshot, overwriting any previous one for id.
	Save(ctx context.Context, id string, snap *Snapshot) error
}
