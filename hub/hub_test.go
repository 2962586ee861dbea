package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quilldoc/collabcore/delta"
	"github.com/quilldoc/collabcore/document"
	"github.com/quilldoc/collabcore/presence"
	"github.com/quilldoc/collabcore/snapshot"
	"github.com/quilldoc/collabcore/wire"
)

type fakeSub struct {
	id     string
	frames chan wire.ServerFrame
}

func newFakeSub(id string) *fakeSub {
	return &fakeSub{id: id, frames: make(chan wire.ServerFrame, 32)}
}

func (f *fakeSub) ID() string { return f.id }

func (f *fakeSub) Send(frame wire.ServerFrame) { f.frames <- frame }

func (f *fakeSub) waitFrame(t *testing.T) wire.ServerFrame {
	t.Helper()
	select {
	case fr := <-f.frames:
		return fr
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return wire.ServerFrame{}
	}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	sup := document.NewSupervisor(zap.NewNop(), snapshot.NewMemoryStore())
	return New(sup, presence.NewInMemoryTracker(), zap.NewNop())
}

func TestHubJoinSendsOpenFrame(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()
	sub := newFakeSub("clientA")

	require.NoError(t, h.Join(ctx, "doc1", sub, "userA"))

	frame := sub.waitFrame(t)
	assert.Equal(t, wire.TypeOpen, frame.Type)
	assert.Equal(t, 0, frame.Version)
}

// TestHubBroadcastsToOthersExcludingSender covers §4.3: the sender gets a
// direct reply, other subscribers get the broadcast, and the sender itself
// never receives its own change back over the fan-out.
func TestHubBroadcastsToOthersExcludingSender(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	senderSub := newFakeSub("clientA")
	otherSub := newFakeSub("clientB")

	require.NoError(t, h.Join(ctx, "doc1", senderSub, "userA"))
	senderSub.waitFrame(t) // open

	require.NoError(t, h.Join(ctx, "doc1", otherSub, "userB"))
	otherSub.waitFrame(t) // open

	change := delta.New().Retain(13, nil).InsertText("!", nil)
	h.Update(ctx, "doc1", senderSub, 0, change)

	reply := senderSub.waitFrame(t)
	assert.Equal(t, wire.TypeReply, reply.Type)
	assert.Equal(t, wire.StatusOK, reply.Status)

	update := otherSub.waitFrame(t)
	assert.Equal(t, wire.TypeUpdate, update.Type)
	assert.Equal(t, 1, update.Version)

	select {
	case fr := <-senderSub.frames:
		t.Fatalf("sender should not receive its own change back, got %+v", fr)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHubUpdateReportsServerBehind covers the client-facing error mapping
// in reasonFor.
func TestHubUpdateReportsServerBehind(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()
	sub := newFakeSub("clientA")

	require.NoError(t, h.Join(ctx, "doc1", sub, "userA"))
	sub.waitFrame(t) // open

	h.Update(ctx, "doc1", sub, 99, delta.New().Retain(1, nil))
	reply := sub.waitFrame(t)
	assert.Equal(t, wire.StatusError, reply.Status)
	require.NotNil(t, reply.Response)
	assert.Equal(t, wire.ReasonServerBehind, reply.Response.Reason)
}

func TestHubLeaveStopsFurtherBroadcasts(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	senderSub := newFakeSub("clientA")
	otherSub := newFakeSub("clientB")
	require.NoError(t, h.Join(ctx, "doc1", senderSub, "userA"))
	senderSub.waitFrame(t)
	require.NoError(t, h.Join(ctx, "doc1", otherSub, "userB"))
	otherSub.waitFrame(t)

	h.Leave("doc1", otherSub)

	change := delta.New().Retain(13, nil).InsertText("!", nil)
	h.Update(ctx, "doc1", senderSub, 0, change)
	senderSub.waitFrame(t) // reply ok

	select {
	case fr := <-otherSub.frames:
		t.Fatalf("left subscriber should not receive further frames, got %+v", fr)
	case <-time.After(50 * time.Millisecond):
	}
}
