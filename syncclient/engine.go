package syncclient

import (
	"strings"
	"time"

	"github.com/quilldoc/collabcore/delta"
)

// Sender is the transport-facing side of the engine: sending an update
// frame is fire-and-forget from the engine's perspective, the eventual
// result arrives back through HandleAck.
type Sender interface {
	SendUpdate(version int, change *delta.Delta)
}

// Callbacks are invoked from the engine's own goroutine; a caller that
// needs to hop threads (e.g. to touch a UI toolkit) must do its own
// dispatch inside these functions.
type Callbacks struct {
	OnOpened  func(contents *delta.Delta)
	OnChanged func(document, change *delta.Delta)
	// OnFatal is invoked when the server rejects the in-flight update
	// (document_corrupted per §7, or any other error reason) or a local
	// document fails validation; the caller must treat the document as
	// unusable and rejoin.
	OnFatal func(err error)
}

// Engine is the single-threaded actor owning one open document's
// ClientSyncState. Every exported method enqueues a message and, where the
// spec requires a return value, waits for the reply — mirroring
// document.Actor's request/reply shape so "single-threaded cooperative"
// (§5) is realized the same way on both sides of the wire.
type Engine struct {
	sender Sender
	cb     Callbacks

	mergeThreshold time.Duration
	maxHistory     int
	now            func() time.Time

	inbox chan any
	done  chan struct{}
}

// Option configures non-default engine behavior.
type Option func(*Engine)

// WithMergeThreshold overrides the default 1-second undo-merge window.
func WithMergeThreshold(d time.Duration) Option { return func(e *Engine) { e.mergeThreshold = d } }

// WithMaximumHistoryLength overrides the default 100-entry undo cap.
func WithMaximumHistoryLength(n int) Option { return func(e *Engine) { e.maxHistory = n } }

// WithClock overrides the engine's notion of "now", for deterministic
// tests of the undo merge window.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New starts an Engine's goroutine and returns a handle to it.
func New(sender Sender, cb Callbacks, opts ...Option) *Engine {
	e := &Engine{
		sender:         sender,
		cb:             cb,
		mergeThreshold: defaultMergeThreshold,
		maxHistory:     defaultMaximumHistoryLength,
		now:            time.Now,
		inbox:          make(chan any, 64),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	go e.run(&state{})
	return e
}

// Close stops the engine's loop.
func (e *Engine) Close() { close(e.inbox) }

type openMsg struct {
	version  int
	contents *delta.Delta
}

type remoteUpdateMsg struct {
	change *delta.Delta
}

type ackMsg struct {
	ok  bool
	err error
}

type localChangeMsg struct {
	newDocument *delta.Delta
	reply       chan error
}

type undoRedoMsg struct {
	redo  bool
	reply chan bool
}

func (e *Engine) run(s *state) {
	defer close(e.done)
	for msg := range e.inbox {
		switch m := msg.(type) {
		case openMsg:
			s.version = m.version
			s.current = m.contents
			s.undo = nil
			s.redo = nil
			s.inFlight, s.queued = nil, nil
			if e.cb.OnOpened != nil {
				e.cb.OnOpened(m.contents)
			}
		case remoteUpdateMsg:
			e.handleRemoteUpdate(s, m.change)
		case ackMsg:
			e.handleAck(s, m.ok, m.err)
		case localChangeMsg:
			m.reply <- e.handleLocalChange(s, m.newDocument)
		case undoRedoMsg:
			m.reply <- e.handleUndoRedo(s, m.redo)
		}
	}
}

// HandleOpen processes the server's open(v, contents) frame: §4.4
// openDocument's "on receiving open" branch.
func (e *Engine) HandleOpen(version int, contents *delta.Delta) {
	e.inbox <- openMsg{version: version, contents: contents}
}

// HandleRemoteUpdate processes a server update(v, change) frame not
// originated by this client.
func (e *Engine) HandleRemoteUpdate(change *delta.Delta) {
	e.inbox <- remoteUpdateMsg{change: change}
}

// HandleAck reports the outcome of the in-flight update: ok=true for a
// plain success, ok=false with err set for a protocol error (including
// document_corrupted, which the engine surfaces to OnFatal per §7).
func (e *Engine) HandleAck(ok bool, err error) {
	e.inbox <- ackMsg{ok: ok, err: err}
}

// OnLocalDocumentChanged implements §4.4's onLocalDocumentChanged: it
// diffs newDocument against the currently displayed document and, if the
// result is non-empty, records it in local history and pushes it to the
// server.
func (e *Engine) OnLocalDocumentChanged(newDocument *delta.Delta) error {
	reply := make(chan error, 1)
	e.inbox <- localChangeMsg{newDocument: newDocument, reply: reply}
	return <-reply
}

// Undo pops the top inverse off the undo stack, applies it locally, pushes
// its counter-inverse onto the redo stack, and pushes the change to the
// server. Returns whether anything changed.
func (e *Engine) Undo() bool { return e.undoRedo(false) }

// Redo is Undo's mirror image over the redo stack.
func (e *Engine) Redo() bool { return e.undoRedo(true) }

func (e *Engine) undoRedo(redo bool) bool {
	reply := make(chan bool, 1)
	e.inbox <- undoRedoMsg{redo: redo, reply: reply}
	return <-reply
}

func (e *Engine) handleLocalChange(s *state, newDocument *delta.Delta) error {
	if !newDocument.IsDocument() {
		if e.cb.OnFatal != nil {
			e.cb.OnFatal(ErrNotDocument)
		}
		return ErrNotDocument
	}
	if !endsInAddressableBlock(newDocument) {
		if e.cb.OnFatal != nil {
			e.cb.OnFatal(ErrOrphanedOperations)
		}
		return ErrOrphanedOperations
	}
	change, err := delta.Diff(s.current, newDocument)
	if err != nil {
		return err
	}
	if change.IsEmpty() {
		return nil
	}

	before := s.current
	s.current = newDocument
	s.recordLocalChange(change, before, e.maxHistory, e.mergeThreshold, e.now())
	e.pushLocal(s, change)
	return nil
}

// endsInAddressableBlock reports whether d's last op is a text insert ending
// in a newline that carries a node_id attribute — every server-stored
// document must end this way, since the trailing newline is what makes the
// document's final block addressable. A document ending in bare inserts
// past the last such newline (or with none at all) is an orphaned tail.
func endsInAddressableBlock(d *delta.Delta) bool {
	if len(d.Ops) == 0 {
		return false
	}
	last := d.Ops[len(d.Ops)-1]
	if last.Kind != delta.Insert || last.IsEmbed {
		return false
	}
	if !strings.HasSuffix(last.Text, "\n") {
		return false
	}
	_, ok := last.Attrs["node_id"]
	return ok
}

// pushLocal implements §4.4.1's pushLocal: send immediately if nothing is
// in flight, optimistically advancing the local version; otherwise fold
// the change into queued without sending.
func (e *Engine) pushLocal(s *state, change *delta.Delta) {
	if s.inFlight == nil {
		s.inFlight = change
		v := s.version
		s.version++
		e.sender.SendUpdate(v, change)
		return
	}
	if s.queued == nil {
		s.queued = change
	} else {
		s.queued = delta.Compose(s.queued, change)
	}
}

func (e *Engine) handleAck(s *state, ok bool, err error) {
	if !ok {
		s.inFlight = nil
		if err == ErrDocumentCorrupted {
			if e.cb.OnFatal != nil {
				e.cb.OnFatal(err)
			}
			return
		}
		// Any other error (notably server_behind) is a known gap per §9:
		// the client's optimistic version is now out of sync and the
		// engine does not attempt in-place repair; the caller must rejoin.
		if e.cb.OnFatal != nil {
			e.cb.OnFatal(err)
		}
		return
	}

	s.inFlight = nil
	if s.queued != nil {
		next := s.queued
		s.queued = nil
		e.pushLocal(s, next)
	}
}

// handleRemoteUpdate implements §4.4.1's onRemoteUpdate.
func (e *Engine) handleRemoteUpdate(s *state, remoteChange *delta.Delta) {
	r := remoteChange

	if s.inFlight != nil {
		r = delta.Transform(s.inFlight, r, false)
	}
	if s.queued != nil {
		rPrime := delta.Transform(s.queued, r, false)
		s.queued = delta.Transform(r, s.queued, true)
		r = rPrime
	}

	s.current = delta.Compose(s.current, r)
	s.undo = transformStack(s.undo, r)
	s.redo = transformStack(s.redo, r)
	s.version++

	if e.cb.OnChanged != nil {
		e.cb.OnChanged(s.current, r)
	}
}

func (e *Engine) handleUndoRedo(s *state, redo bool) bool {
	from, to := &s.undo, &s.redo
	if redo {
		from, to = &s.redo, &s.undo
	}
	if len(*from) == 0 {
		return false
	}

	n := len(*from) - 1
	entry := (*from)[n]
	*from = (*from)[:n]

	before := s.current
	s.current = delta.Compose(s.current, entry.inverse)
	counter := delta.Invert(entry.inverse, before)
	*to = append(*to, historyEntry{inverse: counter, at: entry.at})

	if e.cb.OnChanged != nil {
		e.cb.OnChanged(s.current, entry.inverse)
	}
	e.pushLocal(s, entry.inverse)
	return true
}
