package store

import (
	"log"
	"sort"
	"sync"

	"github.com/go-git/go-billy/v5"
)

// TagStore persists row tags per primary key in one JSON file per prefix.
// It implements transform.TagSource.
type TagStore struct {
	mu   sync.Mutex
	fs   billy.Filesystem
	path string
	// tags maps primary key -> sorted tag set.
	tags map[string][]string
}

// NewTagStore loads (or initializes) the tag file for a prefix.
func NewTagStore(fs billy.Filesystem, dir, prefix string) *TagStore {
	s := &TagStore{
		fs:   fs,
		path: fs.Join(dir, prefix+".json"),
		tags: make(map[string][]string),
	}
	tags := make(map[string][]string)
	if loadOrInit(fs, s.path, &tags) {
		s.tags = tags
	}
	return s
}

func (s *TagStore) save() {
	if err := saveJSON(s.fs, s.path, s.tags); err != nil {
		log.Printf("store: save tags: %v", err)
	}
}

// AddTags attaches tags to the given primary keys and returns the updated
// tag set across those keys, sorted and deduplicated. primaryKeyName is
// recorded by callers for provenance; the store keys by value only.
func (s *TagStore) AddTags(primaryKeys []string, primaryKeyName string, tags []string) []string {
	_ = primaryKeyName

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make(map[string]struct{})
	for _, pk := range primaryKeys {
		merged := append(append([]string(nil), s.tags[pk]...), tags...)
		sort.Strings(merged)
		merged = dedupe(merged)
		s.tags[pk] = merged
		for _, t := range merged {
			updated[t] = struct{}{}
		}
	}
	s.save()

	out := make([]string, 0, len(updated))
	for t := range updated {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TagsFor implements transform.TagSource.
func (s *TagStore) TagsFor(pkey string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tags[pkey]...)
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	var last string
	for i, s := range sorted {
		if i == 0 || s != last {
			out = append(out, s)
		}
		last = s
	}
	return out
}
