// Package syncclient implements the per-client sync engine (§4.4): a
// single-threaded actor that paces at most one in-flight update to the
// server, queues further local edits, and reconciles concurrent remote
// updates against both in-flight and queued local changes.
package syncclient

import (
	"time"

	"github.com/quilldoc/collabcore/delta"
)

// historyEntry is one undo/redo stack entry: the inverse of a recorded
// change plus the time it was recorded, used for the merge-window rule in
// §4.4.2.
type historyEntry struct {
	inverse *delta.Delta
	at      time.Time
}

// state is ClientSyncState from §3.4, private to the engine goroutine.
type state struct {
	version  int
	current  *delta.Delta
	inFlight *delta.Delta
	queued   *delta.Delta

	undo []historyEntry
	redo []historyEntry

	lastLocalChangeTime time.Time
}
