package materialize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/agentic-research/facet/internal/cache"
	"github.com/agentic-research/facet/internal/frame"
	"github.com/agentic-research/facet/internal/view"
)

// ErrCorruptIndex is returned when the transform index leads the
// materializer in a circle or claims a base chain at least as long as the
// target's. Either means the index is corrupt; the materializer never
// loops on it.
var ErrCorruptIndex = errors.New("corrupt transform index")

// BaseLoader loads the raw base frame of a dataset. Implemented by the
// dataset store; loading may do I/O and runs outside all cache locks.
type BaseLoader interface {
	LoadBase(ctx context.Context, datasetID string) (*frame.Frame, error)
}

// ViewSource resolves view ids chosen by the resolver back to views.
// Implemented by the data view store.
type ViewSource interface {
	View(id view.ID) (*view.DataView, error)
}

// Materializer realizes data views: cache lookup, best-base resolution,
// remaining-transform application, atomic cache/index commit. At most one
// materialization per view id is in flight; concurrent callers share the
// first caller's result.
type Materializer struct {
	cache   *cache.Store
	indexes *view.IndexSet
	views   ViewSource
	base    BaseLoader

	group singleflight.Group
	seq   atomic.Uint64
}

// New wires a materializer. The cache and index set are owned by the
// session and passed by reference; the materializer holds no other state.
func New(c *cache.Store, indexes *view.IndexSet, views ViewSource, base BaseLoader) *Materializer {
	return &Materializer{cache: c, indexes: indexes, views: views, base: base}
}

// Materialize returns the realized frame for a view. Results are committed
// to the cache even if ctx is cancelled while the work is in flight, since
// other waiters may still want them.
func (m *Materializer) Materialize(ctx context.Context, v *view.DataView) (*frame.Frame, error) {
	return m.materialize(ctx, v, make(map[view.ID]struct{}))
}

// materialize descends through resolver-selected bases. Each step applies
// a strictly shorter transform suffix, so the descent terminates; the
// visited set converts any index cycle into ErrCorruptIndex instead of an
// infinite loop.
func (m *Materializer) materialize(ctx context.Context, v *view.DataView, visited map[view.ID]struct{}) (*frame.Frame, error) {
	if _, seen := visited[v.ID]; seen {
		return nil, fmt.Errorf("%w: revisited view %s", ErrCorruptIndex, v.ID)
	}
	visited[v.ID] = struct{}{}

	idx := m.indexes.For(v.DatasetID)

	if f, ok := m.cache.Get(v.DatasetID, v.ID); ok {
		idx.Touch(v.ID, m.seq.Add(1))
		return f, nil
	}

	res, err, _ := m.group.Do(string(v.ID), func() (any, error) {
		// A waiter queued behind the winning flight re-enters here after
		// the winner's commit; the cache answers without recomputation.
		if f, ok := m.cache.Get(v.DatasetID, v.ID); ok {
			return f, nil
		}
		return m.build(ctx, v, idx, visited)
	})
	if err != nil {
		return nil, err
	}
	return res.(*frame.Frame), nil
}

func (m *Materializer) build(ctx context.Context, v *view.DataView, idx *view.TransformIndex, visited map[view.ID]struct{}) (*frame.Frame, error) {
	baseID, remaining, ok := idx.FindBestBase(v.Transforms)

	var f *frame.Frame
	var err error
	if ok {
		bv, verr := m.views.View(baseID)
		if verr != nil {
			return nil, fmt.Errorf("%w: indexed view %s unknown: %v", ErrCorruptIndex, baseID, verr)
		}
		if len(bv.Transforms) >= len(v.Transforms) {
			return nil, fmt.Errorf("%w: base %s is no shorter than target %s", ErrCorruptIndex, baseID, v.ID)
		}
		log.Printf("materialize: view %s from base %s (%d transforms remain)", v.ID, baseID, len(remaining))
		f, err = m.materialize(ctx, bv, visited)
	} else {
		log.Printf("materialize: view %s from raw base of dataset %s", v.ID, v.DatasetID)
		f, err = m.base.LoadBase(ctx, v.DatasetID)
	}
	if err != nil {
		return nil, err
	}

	for _, t := range remaining {
		f, err = t.Apply(f)
		if err != nil {
			// Nothing is cached and the index is not updated: failure
			// is atomic.
			return nil, err
		}
	}

	m.cache.Put(v.DatasetID, v.ID, f)
	idx.Register(v.ID, v.Transforms, m.seq.Add(1))
	return f, nil
}
