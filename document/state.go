// Package document implements the per-document reconciliation actor: the
// single-writer state machine that owns a document's version, history, and
// contents, and serializes get/update requests against them.
package document

import "github.com/quilldoc/collabcore/delta"

// State is the state owned by one actor. History holds transformed change
// deltas in reverse chronological order (index 0 most recent);
// len(History) == Version.
type State struct {
	ID       string
	Version  int
	Contents *delta.Delta
	History  []*delta.Delta
}

// Seed returns the hard-coded initial state for a document id: version 0,
// empty history, and a single paragraph of seed text.
func Seed(id string) *State {
	return &State{
		ID:       id,
		Version:  0,
		Contents: delta.New().InsertText("Hello world!\n", delta.Attrs{"node_id": "hello"}),
		History:  nil,
	}
}
