// Package session wires the stores, cache, materializer and category
// machinery into the operations the surface layers call. A Session is an
// explicit object; there are no package-level singletons.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"
	"github.com/go-git/go-billy/v5"

	"github.com/agentic-research/facet/api"
	"github.com/agentic-research/facet/internal/autocat"
	"github.com/agentic-research/facet/internal/cache"
	"github.com/agentic-research/facet/internal/config"
	"github.com/agentic-research/facet/internal/corpus"
	"github.com/agentic-research/facet/internal/frame"
	"github.com/agentic-research/facet/internal/materialize"
	"github.com/agentic-research/facet/internal/store"
	"github.com/agentic-research/facet/internal/transform"
	"github.com/agentic-research/facet/internal/view"
)

// ErrNoAssociatedDataset is returned when a most-recent-view lookup has no
// dataset to resolve against: none requested and none in the user's history.
var ErrNoAssociatedDataset = errors.New("no associated dataset")

// categorySource adapts the most recently built category tree to
// transform.CategorySource. Before any tree is built every text falls into
// the default category.
type categorySource struct {
	tree atomic.Pointer[autocat.CategoryTree]
}

func (c *categorySource) Categorize(text string) string {
	t := c.tree.Load()
	if t == nil {
		return autocat.DefaultCategory
	}
	return t.Categorize(text)
}

// Session owns the engine state for one process: flat-file stores, the
// two-level frame cache, the materializer and the per-dataset corpora.
type Session struct {
	cfg config.Config

	Users    *store.UserStore
	Datasets *store.DatasetStore
	Views    *store.DataViewStore
	History  *store.HistoryStore
	Tags     *store.TagStore

	cache      *cache.Store
	indexes    *view.IndexSet
	mat        *materialize.Materializer
	categories *categorySource
	resources  transform.Resources

	mu      sync.Mutex
	corpora map[string]*corpus.Corpus
	trees   map[string]*autocat.CategoryTree
}

// New constructs a session over the given filesystem and warms it up by
// materializing the default user's most recent view, if any. Warm-up
// failures are logged, never fatal.
func New(cfg config.Config, fs billy.Filesystem) *Session {
	s := &Session{
		cfg:        cfg,
		cache:      cache.New(cfg.DatasetCacheCapacity, cfg.GlobalCacheCapacity),
		indexes:    view.NewIndexSet(),
		categories: &categorySource{},
		corpora:    make(map[string]*corpus.Corpus),
		trees:      make(map[string]*autocat.CategoryTree),
	}

	s.Users = store.NewUserStore(fs, fs.Join(cfg.ConfigDir, "users.json"))
	s.Datasets = store.NewDatasetStore(fs, fs.Join(cfg.ConfigDir, "datasets.json"), cfg.DataDir)
	s.Tags = store.NewTagStore(fs, cfg.ConfigDir, cfg.TagPrefix)
	s.History = store.NewHistoryStore(fs, fs.Join(cfg.ConfigDir, "history.json"))

	s.resources = transform.Resources{Categories: s.categories, Tags: s.Tags}
	s.Views = store.NewDataViewStore(fs, fs.Join(cfg.ConfigDir, "data_views.json"), s.resources)

	s.mat = materialize.New(s.cache, s.indexes, s.Views, s.Datasets)

	s.warmUp()
	return s
}

// warmUp pre-materializes the default user's most recent view so the first
// request after startup hits a warm cache.
func (s *Session) warmUp() {
	user := s.Users.DefaultUser()
	v, err := s.MostRecentView(user.ID, "")
	if err != nil {
		if !errors.Is(err, ErrNoAssociatedDataset) {
			log.Printf("session: warm-up skipped: %v", err)
		}
		return
	}
	if _, err := s.mat.Materialize(context.Background(), v); err != nil {
		log.Printf("session: warm-up of view %s failed: %v", v.ID, err)
	}
}

// Resources returns the enrichment collaborators, for boundary layers that
// parse transform defs themselves.
func (s *Session) Resources() transform.Resources { return s.resources }

// GetOrCreateView normalizes the declarative defs and returns the view for
// (dataset, chain), creating it on first request. The user's history and
// last-dataset pointers are updated either way. Defs are interpreted only
// here; everything below works on canonical transform values.
func (s *Session) GetOrCreateView(userID, datasetID string, defs []api.TransformDef, labels []api.Label) (*view.DataView, error) {
	if _, err := s.Users.Get(userID); err != nil {
		return nil, err
	}
	if _, err := s.Datasets.Get(datasetID); err != nil {
		return nil, err
	}
	for _, l := range labels {
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}

	list, err := transform.ParseDefs(defs, s.resources)
	if err != nil {
		return nil, err
	}

	// The user's current view, if any, is recorded as provenance.
	var parent view.ID
	if prev, ok := s.History.Get(userID, datasetID); ok {
		parent = prev
	}

	v, created := s.Views.GetOrCreate(parent, datasetID, list, labels)
	if created {
		log.Printf("session: created view %s for dataset %s (%d transforms)", v.ID, datasetID, len(list))
	}

	s.History.Set(userID, datasetID, v.ID)
	if err := s.Users.SetLastDatasetID(userID, datasetID); err != nil {
		return nil, err
	}
	return v, nil
}

// MaterializeView realizes a stored view.
func (s *Session) MaterializeView(ctx context.Context, id view.ID) (*frame.Frame, error) {
	v, err := s.Views.View(id)
	if err != nil {
		return nil, err
	}
	return s.mat.Materialize(ctx, v)
}

// MostRecentView returns the user's most recently used view of a dataset.
// An empty datasetID falls back to the user's last dataset;
// ErrNoAssociatedDataset when there is none. A user with no history on the
// dataset gets the untransformed base view.
func (s *Session) MostRecentView(userID, datasetID string) (*view.DataView, error) {
	if _, err := s.Users.Get(userID); err != nil {
		return nil, err
	}
	if datasetID == "" {
		last, ok := s.Users.LastDatasetID(userID)
		if !ok {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNoAssociatedDataset)
		}
		datasetID = last
	}

	if id, ok := s.History.Get(userID, datasetID); ok {
		if v, err := s.Views.View(id); err == nil {
			return v, nil
		}
		log.Printf("session: history of user %s points at missing view %s", userID, id)
	}
	return s.GetOrCreateView(userID, datasetID, nil, nil)
}

// AddTags attaches tags to rows of the view's dataset and returns the
// updated tag set for those keys. Tag enrichments read the tag store at
// apply time, so every cached frame of the dataset is invalidated.
func (s *Session) AddTags(id view.ID, primaryKeys []string, primaryKeyName string, tags []string) ([]string, error) {
	v, err := s.Views.View(id)
	if err != nil {
		return nil, err
	}
	updated := s.Tags.AddTags(primaryKeys, primaryKeyName, tags)
	s.cache.InvalidateDataset(v.DatasetID)
	return updated, nil
}

// corpusFor returns the dataset's corpus, building it from the raw base
// frame on first use. The corpus is frozen at build time since the base
// data of a dataset does not change within a session.
func (s *Session) corpusFor(ctx context.Context, datasetID string) (*corpus.Corpus, error) {
	s.mu.Lock()
	if c, ok := s.corpora[datasetID]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	d, err := s.Datasets.Get(datasetID)
	if err != nil {
		return nil, err
	}
	f, err := s.Datasets.LoadBase(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	c, err := corpus.FromFrame(f, d.PKeyColumn, d.TextColumn, d.AgeColumn, corpus.NewRuleProcessor())
	if err != nil {
		return nil, err
	}
	c.Freeze()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.corpora[datasetID]; ok {
		return existing, nil
	}
	s.corpora[datasetID] = c
	return c, nil
}

// BuildCategories builds (or rebuilds) the category tree of a dataset,
// optionally restricted to a subset of entry ids, and installs it as the
// source for category enrichments. The build runs without any cache lock
// held. Frames enriched under an older tree are invalidated.
func (s *Session) BuildCategories(ctx context.Context, datasetID string, entryIDs *roaring.Bitmap) (*autocat.CategoryTree, error) {
	c, err := s.corpusFor(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	b := autocat.NewBuilder(c)
	b.ExcludeWords = s.cfg.ExcludeWords
	tree, err := b.BuildModel(entryIDs)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.trees[datasetID] = tree
	s.mu.Unlock()
	s.categories.tree.Store(tree)
	s.cache.InvalidateDataset(datasetID)

	log.Printf("session: built %d categories for dataset %s", tree.Len(), datasetID)
	return tree, nil
}

// CategoryTree returns the last tree built for a dataset.
func (s *Session) CategoryTree(datasetID string) (*autocat.CategoryTree, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trees[datasetID]
	return t, ok
}

// CachedFrames reports how many frames the cache holds for a dataset.
func (s *Session) CachedFrames(datasetID string) int {
	return s.cache.Len(datasetID)
}
