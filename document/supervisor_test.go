package document

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quilldoc/collabcore/delta"
	"github.com/quilldoc/collabcore/snapshot"
)

func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	return NewSupervisor(zap.NewNop(), snapshot.NewMemoryStore())
}

func TestSupervisorGetSpawnsAndReusesActor(t *testing.T) {
	sup := newTestSupervisor(t)
	ctx := context.Background()

	a1, err := sup.Get(ctx, "doc1")
	require.NoError(t, err)
	a2, err := sup.Get(ctx, "doc1")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
}

func TestSupervisorGetSeedsFromSnapshot(t *testing.T) {
	store := snapshot.NewMemoryStore()
	contents := delta.New().InsertText("stored\n", nil)
	b, err := contents.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "doc1", &snapshot.Snapshot{ID: "doc1", Version: 5, Contents: b}))

	sup := NewSupervisor(zap.NewNop(), store)
	a, err := sup.Get(context.Background(), "doc1")
	require.NoError(t, err)

	version, got, err := a.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, version)
	assert.True(t, delta.Equal(contents, got))
}

// TestSupervisorRestartsPanickedActorAtSeed exercises the supervisor's
// failure semantics: an actor loop panic is contained, the id remains
// joinable, and the replacement actor starts back at the seed document,
// not at whatever state the crashed actor had reached.
func TestSupervisorRestartsPanickedActorAtSeed(t *testing.T) {
	sup := newTestSupervisor(t)
	ctx := context.Background()

	a, err := sup.Get(ctx, "doc1")
	require.NoError(t, err)

	change := delta.New().Retain(13, nil).InsertText("!!!", nil)
	_, _, err = a.Update(ctx, 0, change, "")
	require.NoError(t, err)

	// Force the actor's loop to panic via an unrecognized message, the
	// same failure mode run()'s default case guards against.
	a.inbox <- struct{ unknown bool }{}

	select {
	case <-a.Closed():
	case <-time.After(time.Second):
		t.Fatal("panicked actor never shut down")
	}

	require.Eventually(t, func() bool {
		sup.mu.Lock()
		defer sup.mu.Unlock()
		replacement, ok := sup.actors["doc1"]
		return ok && replacement != a
	}, time.Second, 10*time.Millisecond)

	replacement, err := sup.Get(ctx, "doc1")
	require.NoError(t, err)
	version, contents, err := replacement.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)
	assert.True(t, delta.Equal(Seed("doc1").Contents, contents))
}

func TestSupervisorRemoveClosesActor(t *testing.T) {
	sup := newTestSupervisor(t)
	ctx := context.Background()

	a, err := sup.Get(ctx, "doc1")
	require.NoError(t, err)

	sup.Remove("doc1")

	select {
	case <-a.Closed():
	case <-time.After(time.Second):
		t.Fatal("removed actor did not close")
	}
}

func TestSupervisorSnapshotAllPersistsLiveDocuments(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sup := NewSupervisor(zap.NewNop(), store)
	ctx := context.Background()

	a, err := sup.Get(ctx, "doc1")
	require.NoError(t, err)
	change := delta.New().Retain(13, nil).InsertText("!!!", nil)
	_, _, err = a.Update(ctx, 0, change, "")
	require.NoError(t, err)

	sup.SnapshotAll(ctx)

	snap, err := store.Load(ctx, "doc1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Version)
}
