package document

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/quilldoc/collabcore/delta"
	"github.com/quilldoc/collabcore/metrics"
	"github.com/quilldoc/collabcore/snapshot"
)

// Supervisor owns the id→actor map and restarts an actor's goroutine at
// the seed state if it panics. This concretizes the "a supervisor may
// restart it" language for the document actor's failure semantics: a
// crashed actor loses its history, and every in-flight request against it
// fails, but the id remains joinable afterward.
type Supervisor struct {
	mu     sync.Mutex
	actors map[string]*Actor
	log    *zap.Logger
	store  snapshot.Store
}

// NewSupervisor returns a Supervisor. store may be a no-op
// snapshot.MemoryStore (the default, process-lifetime only) or a durable
// backend; either way the supervisor treats it purely as a seed source and
// a fire-and-forget sink, never a dependency of the actor's correctness.
func NewSupervisor(log *zap.Logger, store snapshot.Store) *Supervisor {
	return &Supervisor{
		actors: make(map[string]*Actor),
		log:    log,
		store:  store,
	}
}

// Get returns the running actor for id, starting one (seeded from the
// snapshot store, or the hard-coded seed if none is stored) if none is
// running yet.
func (s *Supervisor) Get(ctx context.Context, id string) (*Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.actors[id]; ok {
		return a, nil
	}

	seed, err := s.loadSeed(ctx, id)
	if err != nil {
		return nil, err
	}
	a := s.spawn(seed)
	s.actors[id] = a
	metrics.ActiveDocuments.Set(float64(len(s.actors)))
	return a, nil
}

func (s *Supervisor) loadSeed(ctx context.Context, id string) (*State, error) {
	snap, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return Seed(id), nil
	}
	var contents delta.Delta
	if err := json.Unmarshal(snap.Contents, &contents); err != nil {
		return nil, fmt.Errorf("document: decode snapshot for %q: %w", id, err)
	}
	return &State{ID: id, Version: snap.Version, Contents: &contents}, nil
}

// spawn starts an actor and a watchdog goroutine that restarts it at the
// seed state if its message loop panics. A panic can only originate from a
// programmer-error precondition violation deep in the delta algebra (see
// spec's error propagation policy) — bad client input is always a regular
// error reply, never a panic.
func (s *Supervisor) spawn(seed *State) *Actor {
	log := s.log
	a := &Actor{
		id:        seed.ID,
		state:     seed,
		inbox:     make(chan any, 64),
		done:      make(chan struct{}),
		committed: make(chan Committed, 64),
		log:       log.With(zap.String("doc_id", seed.ID)),
	}
	go s.runSupervised(a)
	return a
}

func (s *Supervisor) runSupervised(a *Actor) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("document actor panicked, restarting at seed", zap.Any("panic", r))
			metrics.ActorRestartsTotal.Inc()
			s.replace(a.id)
			return
		}
	}()
	a.run()
}

// replace installs a fresh actor at the seed state under the same id,
// dropping the crashed one's history — restart returns to the seed, per
// the failure semantics: there is no recovery of lost history.
func (s *Supervisor) replace(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := s.spawn(Seed(id))
	s.actors[id] = fresh
}

// Remove drops id from the map, closing its actor. Used on supervisor
// shutdown or an explicit administrative close; the spec does not expose
// document deletion, this is process-lifecycle cleanup only.
func (s *Supervisor) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.actors[id]; ok {
		a.Close()
		delete(s.actors, id)
		metrics.ActiveDocuments.Set(float64(len(s.actors)))
	}
}

// SnapshotAll asks the snapshot store to persist every live document's
// current (version, contents). Called by cmd/collabd on a timer, whichever
// store backend is configured.
func (s *Supervisor) SnapshotAll(ctx context.Context) {
	s.mu.Lock()
	actors := make([]*Actor, 0, len(s.actors))
	for _, a := range s.actors {
		actors = append(actors, a)
	}
	s.mu.Unlock()

	for _, a := range actors {
		version, contents, err := a.Get(ctx)
		if err != nil {
			continue
		}
		b, err := json.Marshal(contents)
		if err != nil {
			s.log.Warn("snapshot encode failed", zap.String("doc_id", a.id), zap.Error(err))
			continue
		}
		snap := &snapshot.Snapshot{ID: a.id, Version: version, Contents: b}
		if err := s.store.Save(ctx, a.id, snap); err != nil {
			s.log.Warn("snapshot save failed", zap.String("doc_id", a.id), zap.Error(err))
		}
	}
}
