package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/facet/api"
	"github.com/agentic-research/facet/internal/frame"
)

var (
	// ErrBadPredicate is returned when a filter predicate does not parse.
	ErrBadPredicate = errors.New("bad filter predicate")
	// ErrMissingColumn is returned when a transform reads a column the
	// frame does not carry.
	ErrMissingColumn = errors.New("missing column")
	// ErrMissingResource is returned when an enrichment needs a resource
	// (category tree, tag store) that was not configured.
	ErrMissingResource = errors.New("missing transform resource")
	// ErrUnknownTransform is returned for defs naming no known transform.
	ErrUnknownTransform = errors.New("unknown transform")
)

// Error identifies the transform that failed during application.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("apply %s: %v", e.Key, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Transform is a pure, declarative operation over a frame. Implementations
// are immutable values: two transforms are equal iff their keys are equal,
// and the key is derived from kind and parameters only.
type Transform interface {
	Kind() api.TransformKind
	// Key is the stable identity used for set membership and cache keys.
	Key() string
	// Apply produces a new frame. On error the input frame is untouched
	// and no partial result escapes.
	Apply(f *frame.Frame) (*frame.Frame, error)
}

// List is an ordered transform chain. Order is significant: later
// transforms may read columns added by earlier ones, so a list is never
// reordered.
type List []Transform

// Key joins the element keys into a stable chain identity.
func (l List) Key() string {
	keys := make([]string, len(l))
	for i, t := range l {
		keys[i] = t.Key()
	}
	return strings.Join(keys, "|")
}

// Prefix returns the leading k transforms.
func (l List) Prefix(k int) List { return l[:k] }

// Equal reports element-wise key equality.
func (l List) Equal(other List) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i].Key() != other[i].Key() {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether l equals a leading segment of other.
func (l List) IsPrefixOf(other List) bool {
	if len(l) > len(other) {
		return false
	}
	return l.Equal(other[:len(l)])
}

// KeySet returns the unordered element-key set. The resolver uses it only
// as a fast subset pre-check; the ordered prefix test is authoritative.
func (l List) KeySet() map[string]struct{} {
	set := make(map[string]struct{}, len(l))
	for _, t := range l {
		set[t.Key()] = struct{}{}
	}
	return set
}

// Defs returns the declarative form of the chain.
func (l List) Defs() []api.TransformDef {
	defs := make([]api.TransformDef, len(l))
	for i, t := range l {
		defs[i] = t.(definable).Def()
	}
	return defs
}

// definable is implemented by every concrete transform to recover its def.
type definable interface {
	Def() api.TransformDef
}
