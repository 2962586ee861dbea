package document

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quilldoc/collabcore/delta"
	"github.com/quilldoc/collabcore/metrics"
)

type getRequest struct {
	reply chan getReply
}

type getReply struct {
	version  int
	contents *delta.Delta
}

type updateRequest struct {
	clientVersion int
	change        *delta.Delta
	origin        string
	reply         chan updateReply
}

type updateReply struct {
	version     int
	transformed *delta.Delta
	err         error
}

// Committed is one entry of an actor's committed-update stream: exactly
// what its subscribers must apply to converge, in the order the actor
// committed them. A dispatcher fans these out from a single reader
// goroutine per document so it never reorders frames relative to the
// actor's commit order, regardless of how caller goroutines are scheduled.
type Committed struct {
	Version     int
	Transformed *delta.Delta
	// Origin is the subscriber id that submitted the change, if any (empty
	// for a change with no attributable origin). The dispatcher's fan-out
	// excludes this subscriber, since it already received a direct reply.
	Origin string
}

// Actor is the single-writer state machine for one document id. All state
// mutation happens inside run, driven by messages arriving on inbox; no
// field is safe to touch from another goroutine.
type Actor struct {
	id        string // immutable, safe to read from outside the actor goroutine
	state     *State
	inbox     chan any
	done      chan struct{}
	committed chan Committed
	log       *zap.Logger
}

// NewActor starts an actor goroutine seeded with the given state and
// returns a handle to it. Callers get results back through Get/Update. An
// actor started this way is not supervised: a panic in its loop is not
// recovered. Supervisor starts its own actors through a path that restarts
// them.
func NewActor(seed *State, log *zap.Logger) *Actor {
	a := &Actor{
		id:        seed.ID,
		state:     seed,
		inbox:     make(chan any, 64),
		done:      make(chan struct{}),
		committed: make(chan Committed, 64),
		log:       log.With(zap.String("doc_id", seed.ID)),
	}
	go a.run()
	return a
}

// ID returns the document id this actor owns. Safe to call from any
// goroutine.
func (a *Actor) ID() string { return a.id }

// Committed returns the channel of commits, in commit order. Closed when
// the actor's loop exits.
func (a *Actor) Committed() <-chan Committed { return a.committed }

// Close stops the actor's loop. Requests already buffered in the inbox are
// still serviced normally before the loop exits; a send to the inbox after
// Close panics (send on a closed channel), so callers must stop calling
// Get/Update once they observe Closed().
func (a *Actor) Close() {
	close(a.inbox)
}

// Closed reports whether the actor's loop has exited.
func (a *Actor) Closed() <-chan struct{} {
	return a.done
}

func (a *Actor) run() {
	defer close(a.done)
	defer close(a.committed)
	for msg := range a.inbox {
		switch m := msg.(type) {
		case getRequest:
			m.reply <- getReply{version: a.state.Version, contents: a.state.Contents.Clone()}
		case updateRequest:
			r := a.handleUpdate(m.clientVersion, m.change)
			if r.err == nil {
				a.committed <- Committed{Version: r.version, Transformed: r.transformed, Origin: m.origin}
			}
			m.reply <- r
		default:
			panic(fmt.Sprintf("document: actor received unknown message %T", msg))
		}
	}
}

// handleUpdate implements the five-step algorithm: reject a client that
// claims to have seen a version the server never emitted, transform the
// change against the history the client missed, compose it onto contents,
// reject a result that isn't a pure document, otherwise commit. The
// transform/compose steps are timed as one unit since a lagging client's
// replay cost is exactly what TransformDuration exists to surface.
func (a *Actor) handleUpdate(clientVersion int, change *delta.Delta) updateReply {
	if clientVersion > a.state.Version {
		a.log.Warn("client version ahead of server",
			zap.Int("client_version", clientVersion), zap.Int("server_version", a.state.Version))
		metrics.ServerBehindTotal.Inc()
		return updateReply{err: ErrServerBehind}
	}

	lag := a.state.Version - clientVersion
	if lag > len(a.state.History) {
		// The client claims a version older than this actor's earliest
		// retained history, which happens after a snapshot reseed: the
		// actor genuinely cannot replay back that far. Reject rather than
		// index a.state.History out of range.
		a.log.Warn("client version predates retained history",
			zap.Int("client_version", clientVersion), zap.Int("server_version", a.state.Version),
			zap.Int("retained_history", len(a.state.History)))
		metrics.ServerBehindTotal.Inc()
		return updateReply{err: ErrServerBehind}
	}

	start := time.Now()
	defer func() { metrics.TransformDuration.Observe(time.Since(start).Seconds()) }()

	transformed := change
	for i := lag - 1; i >= 0; i-- {
		transformed = delta.Transform(a.state.History[i], transformed, true)
	}

	newContents := delta.Compose(a.state.Contents, transformed)
	if !newContents.IsDocument() {
		a.log.Error("transform produced a non-document result", zap.Int("client_version", clientVersion))
		metrics.DocumentCorruptedTotal.Inc()
		return updateReply{err: ErrDocumentCorrupted}
	}

	a.state.History = append([]*delta.Delta{transformed}, a.state.History...)
	a.state.Version++
	a.state.Contents = newContents
	metrics.UpdatesAppliedTotal.Inc()

	return updateReply{version: a.state.Version, transformed: transformed}
}

// Get returns a snapshot of (version, contents).
func (a *Actor) Get(ctx context.Context) (int, *delta.Delta, error) {
	reply := make(chan getReply, 1)
	select {
	case a.inbox <- getRequest{reply: reply}:
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.version, r.contents, nil
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

// Update submits a client change at the version the client last saw,
// attributed to origin (a subscriber id, used to exclude the submitter
// from the fan-out of its own committed change; pass "" if not
// applicable). On success it returns the new server version and the
// (possibly transformed) change peers must apply; on ErrServerBehind or
// ErrDocumentCorrupted the actor's state is unchanged.
func (a *Actor) Update(ctx context.Context, clientVersion int, change *delta.Delta, origin string) (int, *delta.Delta, error) {
	reply := make(chan updateReply, 1)
	req := updateRequest{clientVersion: clientVersion, change: change, origin: origin, reply: reply}
	select {
	case a.inbox <- req:
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.version, r.transformed, r.err
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}
