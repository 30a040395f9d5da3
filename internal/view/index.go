package view

import (
	"sync"

	"github.com/agentic-research/facet/internal/transform"
)

// TransformIndex records, per dataset, which transform chain produced each
// materialized view. A view is registered only after its result has been
// committed to the cache, so every indexed view is a valid resolver
// candidate.
type TransformIndex struct {
	mu      sync.Mutex
	entries map[ID]*indexEntry
}

type indexEntry struct {
	list transform.List
	set  map[string]struct{}
	// seq is the registration/refresh sequence; higher means more
	// recently cached, which the resolver prefers on prefix-length ties.
	seq uint64
}

// NewTransformIndex returns an empty index.
func NewTransformIndex() *TransformIndex {
	return &TransformIndex{entries: make(map[ID]*indexEntry)}
}

// Register records a materialized view and its transform chain.
func (x *TransformIndex) Register(id ID, list transform.List, seq uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries[id] = &indexEntry{list: list, set: list.KeySet(), seq: seq}
}

// Touch refreshes a view's recency sequence after a cache hit.
func (x *TransformIndex) Touch(id ID, seq uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if e, ok := x.entries[id]; ok {
		e.seq = seq
	}
}

// Remove drops a view from the index.
func (x *TransformIndex) Remove(id ID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.entries, id)
}

// Len returns the number of indexed views.
func (x *TransformIndex) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.entries)
}

// Transforms returns the chain registered for a view.
func (x *TransformIndex) Transforms(id ID) (transform.List, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	e, ok := x.entries[id]
	if !ok {
		return nil, false
	}
	return e.list, true
}

// FindBestBase selects the indexed view whose transform chain is the
// longest strict ordered prefix of target. Transform application is not
// commutative, so only an ordered prefix qualifies; the unordered key set
// serves as a cheap pre-check. Ties on prefix length prefer the most
// recently cached view. ok=false means no non-empty prefix exists and the
// caller must start from the raw base frame; remaining is then the whole
// target chain.
func (x *TransformIndex) FindBestBase(target transform.List) (base ID, remaining transform.List, ok bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	targetSet := target.KeySet()

	var bestID ID
	bestLen := 0
	var bestSeq uint64

	for id, e := range x.entries {
		k := len(e.list)
		if k == 0 || k >= len(target) {
			continue
		}
		if k < bestLen || (k == bestLen && e.seq <= bestSeq) {
			continue
		}
		if !subset(e.set, targetSet) {
			continue
		}
		if !e.list.Equal(target.Prefix(k)) {
			continue
		}
		bestID, bestLen, bestSeq = id, k, e.seq
	}

	if bestLen == 0 {
		return "", target, false
	}
	return bestID, target[bestLen:], true
}

func subset(small, big map[string]struct{}) bool {
	if len(small) > len(big) {
		return false
	}
	for k := range small {
		if _, ok := big[k]; !ok {
			return false
		}
	}
	return true
}

// IndexSet owns one TransformIndex per dataset.
type IndexSet struct {
	mu      sync.Mutex
	indexes map[string]*TransformIndex
}

// NewIndexSet returns an empty set.
func NewIndexSet() *IndexSet {
	return &IndexSet{indexes: make(map[string]*TransformIndex)}
}

// For returns the index for a dataset, creating it on first use.
func (s *IndexSet) For(datasetID string) *TransformIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[datasetID]
	if !ok {
		idx = NewTransformIndex()
		s.indexes[datasetID] = idx
	}
	return idx
}
