package syncclient

import (
	"time"

	"github.com/quilldoc/collabcore/delta"
)

const (
	defaultMergeThreshold      = 1 * time.Second
	defaultMaximumHistoryLength = 100
)

// recordLocalChange implements composeLocalChange from §4.4.2: compute the
// inverse of change against the document as it was before change, and
// either merge it into the top of the undo stack (if within the merge
// window) or push a new entry, evicting the oldest entry past the length
// cap. Any pending redo history is discarded, per undo/redo semantics.
func (s *state) recordLocalChange(change, before *delta.Delta, maxHistory int, mergeThreshold time.Duration, now time.Time) {
	inverse := delta.Invert(change, before)

	if len(s.undo) > 0 && now.Sub(s.lastLocalChangeTime) <= mergeThreshold {
		top := s.undo[len(s.undo)-1]
		s.undo[len(s.undo)-1] = historyEntry{inverse: delta.Compose(inverse, top.inverse), at: top.at}
	} else {
		s.undo = append(s.undo, historyEntry{inverse: inverse, at: now})
		s.lastLocalChangeTime = now
		if len(s.undo) > maxHistory {
			s.undo = s.undo[1:]
		}
	}
	s.redo = nil
}

// transformStack transforms every entry of stack against r, in
// most-recent-to-oldest order, carrying an accumulator so entries
// originally recorded against successive states stay mutually consistent
// after r interleaves. Entries whose transform collapses to empty are
// dropped.
func transformStack(stack []historyEntry, r *delta.Delta) []historyEntry {
	out := make([]historyEntry, 0, len(stack))
	acc := r
	for i := len(stack) - 1; i >= 0; i-- {
		entry := stack[i]
		transformed := delta.Transform(acc, entry.inverse, false)
		acc = delta.Transform(entry.inverse, acc, true)
		if !transformed.IsEmpty() {
			out = append(out, historyEntry{inverse: transformed, at: entry.at})
		}
	}
	// out was built newest-to-oldest; restore chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
