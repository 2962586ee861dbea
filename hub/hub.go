// Package hub implements the channel dispatcher (§4.3): it routes
// join/update frames from connected clients to the right document actor
// and fans out each accepted update to that document's other subscribers,
// without ever reordering frames relative to the actor's commit order.
package hub

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/quilldoc/collabcore/delta"
	"github.com/quilldoc/collabcore/document"
	"github.com/quilldoc/collabcore/presence"
	"github.com/quilldoc/collabcore/wire"
)

// Subscriber is anything the dispatcher can push server frames to — a
// transport connection in production, a channel in tests.
type Subscriber interface {
	ID() string
	Send(wire.ServerFrame)
}

// Hub owns per-document subscriber sets and the fan-out goroutine that
// reads each actor's committed-update stream.
type Hub struct {
	supervisor *document.Supervisor
	presence   presence.Tracker
	log        *zap.Logger

	mu       sync.Mutex
	subs     map[string]map[Subscriber]struct{}
	fanoutOn map[string]bool
}

// New returns a Hub. supervisor and presence must be non-nil.
func New(supervisor *document.Supervisor, tracker presence.Tracker, log *zap.Logger) *Hub {
	return &Hub{
		supervisor: supervisor,
		presence:   tracker,
		log:        log,
		subs:       make(map[string]map[Subscriber]struct{}),
		fanoutOn:   make(map[string]bool),
	}
}

// Join ensures the document's actor exists, subscribes sub to it, starts
// that document's fan-out goroutine if not already running, and sends the
// joining client an open frame with the current (version, contents).
func (h *Hub) Join(ctx context.Context, docID string, sub Subscriber, userID string) error {
	actor, err := h.supervisor.Get(ctx, docID)
	if err != nil {
		h.log.Warn("join failed to acquire actor", zap.String("doc_id", docID), zap.Error(err))
		sub.Send(wire.ReplyError(docID, err.Error()))
		return err
	}

	h.mu.Lock()
	set, ok := h.subs[docID]
	if !ok {
		set = make(map[Subscriber]struct{})
		h.subs[docID] = set
	}
	set[sub] = struct{}{}
	starting := !h.fanoutOn[docID]
	if starting {
		h.fanoutOn[docID] = true
	}
	h.mu.Unlock()

	h.presence.Join(docID, sub.ID())
	if starting {
		go h.fanout(docID, actor)
	}

	version, contents, err := actor.Get(ctx)
	if err != nil {
		return err
	}
	sub.Send(wire.Open(docID, version, contents))
	return nil
}

// Leave removes sub's subscription to docID and notifies presence. A
// dropped subscription is simply removed from the set (§5); it does not
// stop the document's actor or fan-out goroutine, which persists for other
// subscribers (or exits naturally once the actor is closed).
func (h *Hub) Leave(docID string, sub Subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[docID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, docID)
		}
	}
	h.mu.Unlock()
	h.presence.Leave(docID, sub.ID())
}

// Update submits change to the document's actor at clientVersion, replies
// to sub, and (on success) relies on the fan-out goroutine to broadcast
// the committed change to every other subscriber.
func (h *Hub) Update(ctx context.Context, docID string, sub Subscriber, clientVersion int, change *delta.Delta) {
	actor, err := h.supervisor.Get(ctx, docID)
	if err != nil {
		sub.Send(wire.ReplyError(docID, err.Error()))
		return
	}

	_, _, err = actor.Update(ctx, clientVersion, change, sub.ID())
	if err != nil {
		sub.Send(wire.ReplyError(docID, reasonFor(err)))
		return
	}
	sub.Send(wire.ReplyOK(docID))
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, document.ErrServerBehind):
		return wire.ReasonServerBehind
	case errors.Is(err, document.ErrDocumentCorrupted):
		return wire.ReasonDocumentCorrupted
	default:
		return err.Error()
	}
}

// fanout is the single reader of actor's committed-update stream for
// docID. Reading it from exactly one goroutine, and broadcasting
// synchronously within that goroutine, is what keeps every subscriber's
// view of a document in commit order even though Update calls arrive on
// arbitrary connection goroutines.
func (h *Hub) fanout(docID string, actor *document.Actor) {
	for c := range actor.Committed() {
		frame := wire.Update(docID, c.Version, c.Transformed)
		h.mu.Lock()
		targets := make([]Subscriber, 0, len(h.subs[docID]))
		for s := range h.subs[docID] {
			if s.ID() == c.Origin {
				continue
			}
			targets = append(targets, s)
		}
		h.mu.Unlock()
		for _, s := range targets {
			s.Send(frame)
		}
	}
	h.mu.Lock()
	delete(h.fanoutOn, docID)
	h.mu.Unlock()
}
