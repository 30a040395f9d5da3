package transform

import (
	"strings"

	"github.com/agentic-research/facet/api"
	"github.com/agentic-research/facet/internal/frame"
)

// CategorySource labels free text with a category name. Satisfied by
// autocat.CategoryTree.
type CategorySource interface {
	Categorize(text string) string
}

// TagSource resolves the tags recorded for a primary key. Satisfied by
// store.TagStore.
type TagSource interface {
	TagsFor(pkey string) []string
}

// Resources carries the external collaborators enrichments draw on.
// Identity of a transform never depends on a resource, only on its
// declarative parameters.
type Resources struct {
	Categories CategorySource
	Tags       TagSource
}

// Category adds a category-label column derived from a text column.
// Rows are never removed.
type Category struct {
	Column     string
	TextColumn string

	source CategorySource
}

func (t Category) Kind() api.TransformKind { return api.KindEnrichment }

func (t Category) Key() string {
	return "enrichment:category:" + t.Column + ":" + t.TextColumn
}

func (t Category) Def() api.TransformDef {
	return api.TransformDef{
		Kind: api.KindEnrichment,
		Name: "category",
		Args: map[string]string{"column": t.Column, "text_column": t.TextColumn},
	}
}

func (t Category) Apply(f *frame.Frame) (*frame.Frame, error) {
	if t.source == nil {
		return nil, &Error{Key: t.Key(), Err: ErrMissingResource}
	}
	if !f.HasColumn(t.TextColumn) {
		return nil, &Error{Key: t.Key(), Err: ErrMissingColumn}
	}

	out := f.Clone()
	out.WithColumn(t.Column)
	for _, row := range out.Rows {
		row[t.Column] = t.source.Categorize(frame.String(row[t.TextColumn]))
	}
	return out, nil
}

// Tags adds a column holding the comma-joined tags recorded for each
// row's primary key.
type Tags struct {
	Column     string
	PKeyColumn string

	source TagSource
}

func (t Tags) Kind() api.TransformKind { return api.KindEnrichment }

func (t Tags) Key() string {
	return "enrichment:tags:" + t.Column + ":" + t.PKeyColumn
}

func (t Tags) Def() api.TransformDef {
	return api.TransformDef{
		Kind: api.KindEnrichment,
		Name: "tags",
		Args: map[string]string{"column": t.Column, "pkey_column": t.PKeyColumn},
	}
}

func (t Tags) Apply(f *frame.Frame) (*frame.Frame, error) {
	if t.source == nil {
		return nil, &Error{Key: t.Key(), Err: ErrMissingResource}
	}
	if !f.HasColumn(t.PKeyColumn) {
		return nil, &Error{Key: t.Key(), Err: ErrMissingColumn}
	}

	out := f.Clone()
	out.WithColumn(t.Column)
	for _, row := range out.Rows {
		tags := t.source.TagsFor(frame.String(row[t.PKeyColumn]))
		row[t.Column] = strings.Join(tags, ",")
	}
	return out, nil
}

// Constant adds a column with a fixed value on every row.
type Constant struct {
	Column string
	Value  string
}

func (t Constant) Kind() api.TransformKind { return api.KindEnrichment }

func (t Constant) Key() string {
	return "enrichment:constant:" + t.Column + ":" + t.Value
}

func (t Constant) Def() api.TransformDef {
	return api.TransformDef{
		Kind: api.KindEnrichment,
		Name: "constant",
		Args: map[string]string{"column": t.Column, "value": t.Value},
	}
}

func (t Constant) Apply(f *frame.Frame) (*frame.Frame, error) {
	out := f.Clone()
	out.WithColumn(t.Column)
	for _, row := range out.Rows {
		row[t.Column] = t.Value
	}
	return out, nil
}
