package store

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/agentic-research/facet/internal/frame"
)

// Dataset describes one backing file in the data directory plus the
// column roles the corpus needs. Read-only to the core.
type Dataset struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	PKeyColumn string `json:"pkey_column"`
	TextColumn string `json:"text_column"`
	AgeColumn  string `json:"age_column"`
	// Table names the table to read when Filename is a SQLite database.
	Table string `json:"table,omitempty"`
}

// DatasetStore persists dataset descriptors in one JSON file and loads
// base frames from the data directory. It implements
// materialize.BaseLoader.
type DatasetStore struct {
	mu       sync.Mutex
	fs       billy.Filesystem
	path     string
	dataDir  string
	datasets []Dataset
}

// NewDatasetStore loads (or initializes) the dataset file. dataDir is the
// host directory holding the backing files; frames are loaded through the
// OS because SQLite needs a real path.
func NewDatasetStore(fs billy.Filesystem, path, dataDir string) *DatasetStore {
	s := &DatasetStore{fs: fs, path: path, dataDir: dataDir}
	var datasets []Dataset
	if loadOrInit(fs, path, &datasets) {
		s.datasets = datasets
	}
	return s
}

func (s *DatasetStore) save() {
	if err := saveJSON(s.fs, s.path, s.datasets); err != nil {
		log.Printf("store: save datasets: %v", err)
	}
}

// Get returns a dataset by id.
func (s *DatasetStore) Get(id string) (Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.datasets {
		if d.ID == id {
			return d, nil
		}
	}
	return Dataset{}, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
}

// Find returns datasets whose filename contains match, all when empty.
func (s *DatasetStore) Find(match string) []Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Dataset
	for _, d := range s.datasets {
		if match == "" || strings.Contains(d.Filename, match) {
			out = append(out, d)
		}
	}
	return out
}

// ByFilename returns the dataset backed by filename.
func (s *DatasetStore) ByFilename(filename string) (Dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.datasets {
		if d.Filename == filename {
			return d, true
		}
	}
	return Dataset{}, false
}

// Create registers a dataset descriptor with a generated id.
func (s *DatasetStore) Create(d Dataset) Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = uuid.NewString()
	s.datasets = append(s.datasets, d)
	s.save()
	return d
}

// ListFiles returns the viewable filenames in the data directory,
// skipping dotfiles and documentation.
func (s *DatasetStore) ListFiles() ([]string, error) {
	infos, err := s.fs.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("list data dir: %w", err)
	}
	var names []string
	for _, info := range infos {
		name := info.Name()
		if strings.HasPrefix(name, ".") || name == "README.md" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// LoadBase implements materialize.BaseLoader: it loads the raw base frame
// of a dataset from its backing file. CSV files stream through the store
// filesystem; SQLite databases open by OS path.
func (s *DatasetStore) LoadBase(_ context.Context, datasetID string) (*frame.Frame, error) {
	d, err := s.Get(datasetID)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(d.Filename, ".db") || strings.HasSuffix(d.Filename, ".sqlite") {
		table := d.Table
		if table == "" {
			table = "records"
		}
		return frame.LoadSQLite(filepath.Join(s.dataDir, d.Filename), table)
	}

	f, err := s.fs.Open(s.fs.Join(s.dataDir, d.Filename))
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", d.Filename, err)
	}
	defer func() { _ = f.Close() }() // safe to ignore

	return frame.LoadCSV(f)
}
