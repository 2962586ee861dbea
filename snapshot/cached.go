package snapshot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// dirtyEntry is a snapshot written to the cache but not yet flushed to the
// backing store.
type dirtyEntry struct {
	snap *Snapshot
}

// CachedStore wraps a backing Store (typically FirestoreStore) with an
// in-memory write-behind cache: Save writes only to memory and marks the id
// dirty, a background loop periodically flushes dirty entries to the
// backing store. Load is served from the cache when possible, falling back
// to the backing store on a miss. This absorbs the write-amplification of
// a supervisor that snapshots every live document on every tick without
// hitting the backing store that often.
type CachedStore struct {
	backing Store
	log     *zap.Logger

	mu    sync.Mutex
	cache map[string]*Snapshot
	dirty map[string]dirtyEntry

	flushInterval time.Duration
	stop          chan struct{}
	done          chan struct{}
}

// NewCachedStore starts a CachedStore's background flush loop.
func NewCachedStore(backing Store, flushInterval time.Duration, log *zap.Logger) *CachedStore {
	cs := &CachedStore{
		backing:       backing,
		log:           log,
		cache:         make(map[string]*Snapshot),
		dirty:         make(map[string]dirtyEntry),
		flushInterval: flushInterval,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go cs.flushLoop()
	return cs
}

func (cs *CachedStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	cs.mu.Lock()
	if snap, ok := cs.cache[id]; ok {
		cs.mu.Unlock()
		return cloneSnapshot(snap), nil
	}
	cs.mu.Unlock()

	snap, err := cs.backing.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}
	cs.mu.Lock()
	cs.cache[id] = snap
	cs.mu.Unlock()
	return cloneSnapshot(snap), nil
}

func (cs *CachedStore) Save(ctx context.Context, id string, snap *Snapshot) error {
	cp := cloneSnapshot(snap)
	cs.mu.Lock()
	cs.cache[id] = cp
	cs.dirty[id] = dirtyEntry{snap: cp}
	cs.mu.Unlock()
	return nil
}

func (cs *CachedStore) flushLoop() {
	ticker := time.NewTicker(cs.flushInterval)
	defer ticker.Stop()
	defer close(cs.done)
	for {
		select {
		case <-ticker.C:
			cs.flush()
		case <-cs.stop:
			cs.flush()
			return
		}
	}
}

func (cs *CachedStore) flush() {
	cs.mu.Lock()
	pending := cs.dirty
	cs.dirty = make(map[string]dirtyEntry)
	cs.mu.Unlock()

	ctx := context.Background()
	for id, entry := range pending {
		if err := cs.backing.Save(ctx, id, entry.snap); err != nil {
			cs.log.Warn("snapshot flush failed, will retry", zap.String("doc_id", id), zap.Error(err))
			cs.mu.Lock()
			if _, stillDirty := cs.dirty[id]; !stillDirty {
				cs.dirty[id] = entry
			}
			cs.mu.Unlock()
		}
	}
}

// Close performs a final flush and waits for the loop to exit.
func (cs *CachedStore) Close() {
	close(cs.stop)
	<-cs.done
}

func cloneSnapshot(s *Snapshot) *Snapshot {
	cp := *s
	cp.Contents = append([]byte(nil), s.Contents...)
	return &cp
}
