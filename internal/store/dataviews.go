package store

import (
	"fmt"
	"log"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/agentic-research/facet/api"
	"github.com/agentic-research/facet/internal/transform"
	"github.com/agentic-research/facet/internal/view"
)

// DataViewStore persists data views in one JSON file. Views are append
// only: a view is immutable once created except for label additions.
// The store implements materialize.ViewSource.
type DataViewStore struct {
	mu        sync.Mutex
	fs        billy.Filesystem
	path      string
	resources transform.Resources

	views []*view.DataView
	byID  map[view.ID]*view.DataView
}

// NewDataViewStore loads (or initializes) the data view file. Transform
// defs are re-parsed against the given resources, so enrichments made in
// earlier sessions reconnect to the category tree and tag store.
func NewDataViewStore(fs billy.Filesystem, path string, res transform.Resources) *DataViewStore {
	s := &DataViewStore{
		fs:        fs,
		path:      path,
		resources: res,
		byID:      make(map[view.ID]*view.DataView),
	}

	var defs []api.DataViewDef
	if !loadOrInit(fs, path, &defs) {
		return s
	}
	for _, def := range defs {
		list, err := transform.ParseDefs(def.Transforms, res)
		if err != nil {
			log.Printf("store: skipping data view %s: %v", def.ID, err)
			continue
		}
		v := &view.DataView{
			ID:         view.ID(def.ID),
			DatasetID:  def.DatasetID,
			ParentID:   view.ID(def.ParentID),
			Transforms: list,
			Labels:     def.Labels,
		}
		s.index(v)
	}
	return s
}

func (s *DataViewStore) index(v *view.DataView) {
	s.views = append(s.views, v)
	s.byID[v.ID] = v
}

func (s *DataViewStore) save() {
	defs := make([]api.DataViewDef, len(s.views))
	for i, v := range s.views {
		defs[i] = v.Def()
	}
	if err := saveJSON(s.fs, s.path, defs); err != nil {
		log.Printf("store: save data views: %v", err)
	}
}

// View implements materialize.ViewSource.
func (s *DataViewStore) View(id view.ID) (*view.DataView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("data view %s: %w", id, ErrNotFound)
	}
	return v, nil
}

// GetOrCreate returns the view for (dataset, transforms), creating and
// persisting it on first request. The id is derived from the pair, so
// identical requests always converge on one view.
func (s *DataViewStore) GetOrCreate(parent view.ID, datasetID string, transforms transform.List, labels []api.Label) (*view.DataView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := view.MakeID(datasetID, transforms)
	if v, ok := s.byID[id]; ok {
		return v, false
	}

	v := &view.DataView{
		ID:         id,
		DatasetID:  datasetID,
		ParentID:   parent,
		Transforms: transforms,
		Labels:     labels,
	}
	s.index(v)
	s.save()
	return v, true
}

// AddLabels appends validated labels to a view.
func (s *DataViewStore) AddLabels(id view.ID, labels []api.Label) error {
	for _, l := range labels {
		if err := l.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("data view %s: %w", id, ErrNotFound)
	}
	v.Labels = append(v.Labels, labels...)
	s.save()
	return nil
}

// Len returns the number of stored views.
func (s *DataViewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}
