package transform

import (
	"fmt"

	"github.com/agentic-research/facet/api"
)

// ParseDefs normalizes declarative defs into a transform chain. This is
// the only place defs are interpreted; below this boundary transforms are
// canonical values.
func ParseDefs(defs []api.TransformDef, res Resources) (List, error) {
	list := make(List, 0, len(defs))
	for i, def := range defs {
		t, err := parseDef(def, res)
		if err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
		list = append(list, t)
	}
	return list, nil
}

func parseDef(def api.TransformDef, res Resources) (Transform, error) {
	switch {
	case def.Kind == api.KindFilter && def.Name == "match":
		path := def.Args["path"]
		if path == "" {
			return nil, fmt.Errorf("%w: match filter without path", ErrBadPredicate)
		}
		return Filter{Path: path}, nil

	case def.Kind == api.KindEnrichment && def.Name == "category":
		return Category{
			Column:     argOr(def.Args, "column", "category"),
			TextColumn: argOr(def.Args, "text_column", "text"),
			source:     res.Categories,
		}, nil

	case def.Kind == api.KindEnrichment && def.Name == "tags":
		return Tags{
			Column:     argOr(def.Args, "column", "tags"),
			PKeyColumn: argOr(def.Args, "pkey_column", "id"),
			source:     res.Tags,
		}, nil

	case def.Kind == api.KindEnrichment && def.Name == "constant":
		col := def.Args["column"]
		if col == "" {
			return nil, fmt.Errorf("%w: constant enrichment without column", ErrUnknownTransform)
		}
		return Constant{Column: col, Value: def.Args["value"]}, nil
	}

	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTransform, def.Kind, def.Name)
}

func argOr(args map[string]string, key, fallback string) string {
	if v := args[key]; v != "" {
		return v
	}
	return fallback
}
