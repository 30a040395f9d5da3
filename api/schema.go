package api

import (
	"errors"
	"fmt"
)

// TransformKind distinguishes the two classes of transform.
// Filters remove rows; enrichments add or modify columns.
type TransformKind string

const (
	KindFilter     TransformKind = "filter"
	KindEnrichment TransformKind = "enrichment"
)

// ErrInvalidLabel is returned when a label payload fails schema validation.
var ErrInvalidLabel = errors.New("invalid label")

// TransformDef is the declarative, serializable form of a transform.
// Name selects the concrete transform; Args carry its parameters.
// Two defs describe the same transform iff kind, name and args match.
type TransformDef struct {
	// Kind of the transform: "filter" or "enrichment".
	Kind TransformKind `json:"kind"`
	// Name of the concrete transform (e.g. "match", "category", "tags").
	Name string `json:"name"`
	// Args are the transform parameters, keyed by parameter name.
	Args map[string]string `json:"args,omitempty"`
}

// Label describes a column label attached to a data view.
type Label struct {
	// Name of the labeled column.
	Name string `json:"name"`
	// Width of the rendered column.
	Width int `json:"width"`
	// FontSize of the rendered column header.
	FontSize int `json:"font_size"`
}

// Validate checks the label payload.
func (l Label) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidLabel)
	}
	if l.Width < 0 {
		return fmt.Errorf("%w: negative width %d", ErrInvalidLabel, l.Width)
	}
	if l.FontSize < 0 {
		return fmt.Errorf("%w: negative font size %d", ErrInvalidLabel, l.FontSize)
	}
	return nil
}

// DataViewDef is the serializable form of a data view.
type DataViewDef struct {
	ID         string         `json:"id"`
	DatasetID  string         `json:"dataset_id"`
	ParentID   string         `json:"parent_id,omitempty"`
	Transforms []TransformDef `json:"transforms,omitempty"`
	Labels     []Label        `json:"labels,omitempty"`
}
