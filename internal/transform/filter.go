package transform

import (
	"fmt"

	"github.com/ohler55/ojg/jp"

	"github.com/agentic-research/facet/api"
	"github.com/agentic-research/facet/internal/frame"
)

// Filter keeps the rows selected by a JSONPath predicate, e.g.
// "$[?(@.age < 30)]". Rows the predicate does not select are dropped;
// columns are untouched.
type Filter struct {
	Path string
}

func (t Filter) Kind() api.TransformKind { return api.KindFilter }

func (t Filter) Key() string { return "filter:match:" + t.Path }

func (t Filter) Def() api.TransformDef {
	return api.TransformDef{
		Kind: api.KindFilter,
		Name: "match",
		Args: map[string]string{"path": t.Path},
	}
}

func (t Filter) Apply(f *frame.Frame) (*frame.Frame, error) {
	expr, err := jp.ParseString(t.Path)
	if err != nil {
		return nil, &Error{Key: t.Key(), Err: fmt.Errorf("%w: %v", ErrBadPredicate, err)}
	}

	out := frame.New(f.Columns...)
	// Evaluate per row so matched rows keep their original order and
	// identity regardless of what the selector returns.
	for _, row := range f.Rows {
		if len(expr.Get([]any{row})) > 0 {
			out.Append(row)
		}
	}
	return out, nil
}
