package view

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/agentic-research/facet/api"
	"github.com/agentic-research/facet/internal/transform"
)

// ID identifies a data view. It is derived from the dataset and the
// transform chain, so the same request always maps to the same view.
type ID string

// MakeID derives a stable view id from a dataset id and a transform chain.
func MakeID(datasetID string, transforms transform.List) ID {
	hash := sha256.Sum256([]byte(datasetID + "\x00" + transforms.Key()))
	return ID(hex.EncodeToString(hash[:8]))
}

// DataView is a transform-derived projection of a dataset. Immutable once
// created, except for label additions. ParentID records provenance only;
// the resolver never consults it.
type DataView struct {
	ID         ID
	DatasetID  string
	ParentID   ID
	Transforms transform.List
	Labels     []api.Label
}

// Def returns the serializable form.
func (v *DataView) Def() api.DataViewDef {
	return api.DataViewDef{
		ID:         string(v.ID),
		DatasetID:  v.DatasetID,
		ParentID:   string(v.ParentID),
		Transforms: v.Transforms.Defs(),
		Labels:     append([]api.Label(nil), v.Labels...),
	}
}
