// Package store implements the flat-file collaborators: users, datasets,
// data views, view history and tags, each persisted as a JSON file. The
// stores own persistence policy: corrupt JSON degrades to an empty
// initialized structure with a logged warning instead of a crash.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// ErrNotFound is returned for unknown user, dataset and view ids.
var ErrNotFound = errors.New("not found")

// loadJSON reads a JSON file into v. A missing file leaves v untouched
// and returns os.ErrNotExist; a corrupt file is the caller's to degrade.
func loadJSON(fs billy.Filesystem, path string, v any) error {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// saveJSON writes v as indented JSON.
func saveJSON(fs billy.Filesystem, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := util.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// loadOrInit loads path into v and reports whether it succeeded. Callers
// reset v to its initialization state on failure, so a corrupt file
// degrades to an empty structure with a warning. Missing files are silent.
func loadOrInit(fs billy.Filesystem, path string, v any) bool {
	err := loadJSON(fs, path, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, os.ErrNotExist):
		return false
	default:
		log.Printf("store: could not load %s, starting empty: %v", path, err)
		return false
	}
}
