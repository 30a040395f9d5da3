package cache

import (
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/agentic-research/facet/internal/frame"
	"github.com/agentic-research/facet/internal/view"
)

const (
	// DefaultDatasetCapacity bounds the per-dataset recency index.
	DefaultDatasetCapacity = 128
	// DefaultGlobalCapacity bounds the global frame store.
	DefaultGlobalCapacity = 128
)

// Store is the two-level dataframe cache. The global level holds the
// realized frames and bounds total memory across datasets; the per-dataset
// level is a recency index of view ids. Both levels evict strictly LRU.
// An entry evicted from the global store is absent for per-dataset lookups
// as well.
//
// A Store is an explicit object owned by the session; there are no
// package-level cache singletons.
type Store struct {
	mu        sync.Mutex
	global    *lru.Cache[view.ID, *frame.Frame]
	byDataset map[string]*lru.Cache[view.ID, struct{}]
	datasetOf map[view.ID]string
	capacity  int

	// pending collects ids evicted by a per-dataset index while its
	// internal lock is held; the global entries are removed after the
	// index call returns, never from inside its eviction callback.
	pending []view.ID
}

// New returns a store with the given per-dataset and global capacities.
// Non-positive capacities fall back to the defaults.
func New(datasetCapacity, globalCapacity int) *Store {
	if datasetCapacity <= 0 {
		datasetCapacity = DefaultDatasetCapacity
	}
	if globalCapacity <= 0 {
		globalCapacity = DefaultGlobalCapacity
	}

	s := &Store{
		byDataset: make(map[string]*lru.Cache[view.ID, struct{}]),
		datasetOf: make(map[view.ID]string),
		capacity:  datasetCapacity,
	}
	// The eviction callback fires while s.mu is held by the mutating
	// operation, so it must only touch the maps directly.
	global, err := lru.NewWithEvict(globalCapacity, s.onGlobalEvict)
	if err != nil {
		// Only reachable with a non-positive size, which is guarded above.
		panic(err)
	}
	s.global = global
	return s
}

func (s *Store) onGlobalEvict(id view.ID, _ *frame.Frame) {
	datasetID, ok := s.datasetOf[id]
	if !ok {
		return
	}
	delete(s.datasetOf, id)
	if idx, ok := s.byDataset[datasetID]; ok {
		idx.Remove(id)
	}
}

func (s *Store) indexFor(datasetID string) *lru.Cache[view.ID, struct{}] {
	idx, ok := s.byDataset[datasetID]
	if !ok {
		idx, _ = lru.NewWithEvict[view.ID, struct{}](s.capacity, func(id view.ID, _ struct{}) {
			s.pending = append(s.pending, id)
		})
		s.byDataset[datasetID] = idx
	}
	return idx
}

// flushPending removes frames whose per-dataset index entry was evicted.
// Must be called with s.mu held and no lru-internal lock held.
func (s *Store) flushPending() {
	for len(s.pending) > 0 {
		id := s.pending[0]
		s.pending = s.pending[1:]
		s.global.Remove(id)
	}
}

// Get returns the cached frame for a view, refreshing its recency at both
// levels. A view known to the per-dataset index but already evicted from
// the global store counts as a miss and is dropped from the index.
func (s *Store) Get(datasetID string, id view.ID) (*frame.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byDataset[datasetID]
	if !ok || !idx.Contains(id) {
		return nil, false
	}

	f, ok := s.global.Get(id)
	if !ok {
		idx.Remove(id)
		delete(s.datasetOf, id)
		s.flushPending()
		return nil, false
	}

	idx.Get(id) // refresh per-dataset recency
	return f, true
}

// Put stores a materialized frame at both levels.
func (s *Store) Put(datasetID string, id view.ID, f *frame.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasetOf[id] = datasetID
	s.indexFor(datasetID).Add(id, struct{}{})
	s.global.Add(id, f)
	s.flushPending()
}

// Len returns the number of frames held for a dataset.
func (s *Store) Len(datasetID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byDataset[datasetID]
	if !ok {
		return 0
	}
	n := 0
	for _, id := range idx.Keys() {
		if s.global.Contains(id) {
			n++
		}
	}
	return n
}

// InvalidateDataset drops every cached frame derived from the dataset.
// Called when the dataset handler detects a change in the base data;
// entries are never left silently stale.
func (s *Store) InvalidateDataset(datasetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byDataset[datasetID]
	if !ok {
		return
	}

	ids := idx.Keys()
	for _, id := range ids {
		s.global.Remove(id)
		delete(s.datasetOf, id)
	}
	idx.Purge()
	delete(s.byDataset, datasetID)
	s.flushPending()
	log.Printf("cache: invalidated %d entries for dataset %s", len(ids), datasetID)
}
