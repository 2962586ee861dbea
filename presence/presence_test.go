package presence

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryTrackerJoinLeave(t *testing.T) {
	tr := NewInMemoryTracker()

	tr.Join("doc1", "clientA")
	tr.Join("doc1", "clientB")
	tr.Join("doc2", "clientC")

	got := tr.Snapshot("doc1")
	sort.Strings(got)
	assert.Equal(t, []string{"clientA", "clientB"}, got)

	tr.Leave("doc1", "clientA")
	assert.Equal(t, []string{"clientB"}, tr.Snapshot("doc1"))

	tr.Leave("doc1", "clientB")
	assert.Empty(t, tr.Snapshot("doc1"))
	assert.Equal(t, []string{"clientC"}, tr.Snapshot("doc2"))
}

func TestInMemoryTrackerLeaveUnknownIsNoop(t *testing.T) {
	tr := NewInMemoryTracker()
	assert.NotPanics(t, func() { tr.Leave("missing", "nobody") })
	assert.Empty(t, tr.Snapshot("missing"))
}
