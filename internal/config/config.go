// Package config loads the session configuration from an HCL file.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config carries the session's directories, cache bounds and category
// builder tuning.
type Config struct {
	// DataDir holds the dataset backing files.
	DataDir string `hcl:"data_dir,optional"`
	// ConfigDir holds the JSON store files.
	ConfigDir string `hcl:"config_dir,optional"`
	// DatasetCacheCapacity bounds each per-dataset view index.
	DatasetCacheCapacity int `hcl:"dataset_cache_capacity,optional"`
	// GlobalCacheCapacity bounds the global frame store.
	GlobalCacheCapacity int `hcl:"global_cache_capacity,optional"`
	// TagPrefix names the tag file.
	TagPrefix string `hcl:"tag_prefix,optional"`
	// ExcludeWords are substrings that disqualify corpus tokens from
	// category building.
	ExcludeWords []string `hcl:"exclude_words,optional"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:              "data",
		ConfigDir:            "config",
		DatasetCacheCapacity: 128,
		GlobalCacheCapacity:  128,
		TagPrefix:            "tags",
	}
}

// Load reads an HCL config file, filling unset fields from the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	var loaded Config
	if err := hclsimple.DecodeFile(path, nil, &loaded); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}

	if loaded.DataDir != "" {
		cfg.DataDir = loaded.DataDir
	}
	if loaded.ConfigDir != "" {
		cfg.ConfigDir = loaded.ConfigDir
	}
	if loaded.DatasetCacheCapacity > 0 {
		cfg.DatasetCacheCapacity = loaded.DatasetCacheCapacity
	}
	if loaded.GlobalCacheCapacity > 0 {
		cfg.GlobalCacheCapacity = loaded.GlobalCacheCapacity
	}
	if loaded.TagPrefix != "" {
		cfg.TagPrefix = loaded.TagPrefix
	}
	if len(loaded.ExcludeWords) > 0 {
		cfg.ExcludeWords = loaded.ExcludeWords
	}
	return cfg, nil
}
