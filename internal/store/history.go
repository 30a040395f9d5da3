package store

import (
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/agentic-research/facet/internal/view"
)

const historyKeySeparator = "_"

// historyKey is the composite "{user_id}_{dataset_id}" string key the
// history file is keyed by.
func historyKey(userID, datasetID string) string {
	return userID + historyKeySeparator + datasetID
}

// HistoryStore remembers, per user and dataset, the most recently used
// data view.
type HistoryStore struct {
	mu      sync.Mutex
	fs      billy.Filesystem
	path    string
	history map[string]view.ID
}

// NewHistoryStore loads (or initializes) the history file.
func NewHistoryStore(fs billy.Filesystem, path string) *HistoryStore {
	s := &HistoryStore{fs: fs, path: path, history: make(map[string]view.ID)}
	raw := make(map[string]string)
	if loadOrInit(fs, path, &raw) {
		for key, id := range raw {
			s.history[key] = view.ID(id)
		}
	}
	return s
}

func (s *HistoryStore) save() {
	// Keys are sorted so the file is stable across saves.
	keys := make([]string, 0, len(s.history))
	for k := range s.history {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	raw := make(map[string]string, len(keys))
	for _, k := range keys {
		raw[k] = string(s.history[k])
	}
	if err := saveJSON(s.fs, s.path, raw); err != nil {
		log.Printf("store: save history: %v", err)
	}
}

// Get returns the recorded view for a user and dataset.
func (s *HistoryStore) Get(userID, datasetID string) (view.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.history[historyKey(userID, datasetID)]
	return id, ok
}

// Set records the view for a user and dataset.
func (s *HistoryStore) Set(userID, datasetID string, id view.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[historyKey(userID, datasetID)] = id
	s.save()
}

// ViewIDsByUser returns every recorded view id of a user.
func (s *HistoryStore) ViewIDsByUser(userID string) []view.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []view.ID
	for key, id := range s.history {
		if strings.HasPrefix(key, userID+historyKeySeparator) {
			out = append(out, id)
		}
	}
	return out
}
