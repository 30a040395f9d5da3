package transform

import (
	"errors"
	"testing"

	"github.com/agentic-research/facet/api"
	"github.com/agentic-research/facet/internal/frame"
)

func testFrame() *frame.Frame {
	f := frame.New("id", "age", "text")
	f.Append(map[string]any{"id": "a", "age": int64(20), "text": "likes music"})
	f.Append(map[string]any{"id": "b", "age": int64(35), "text": "builds furniture"})
	f.Append(map[string]any{"id": "c", "age": int64(41), "text": "collects music records"})
	return f
}

func TestFilter_KeepsMatchingRows(t *testing.T) {
	f := testFrame()
	out, err := Filter{Path: "$[?(@.age > 30)]"}.Apply(f)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("rows = %d, want 2", out.Len())
	}
	if out.Rows[0]["id"] != "b" || out.Rows[1]["id"] != "c" {
		t.Errorf("row order not preserved: %v", out.Rows)
	}
	if f.Len() != 3 {
		t.Errorf("input frame mutated: %d rows", f.Len())
	}
}

func TestFilter_BadPredicate(t *testing.T) {
	_, err := Filter{Path: "$[?(@.age >"}.Apply(testFrame())
	if !errors.Is(err, ErrBadPredicate) {
		t.Fatalf("err = %v, want ErrBadPredicate", err)
	}
	var te *Error
	if !errors.As(err, &te) {
		t.Fatal("error should identify the failing transform")
	}
}

type fixedCategories struct{ label string }

func (c fixedCategories) Categorize(string) string { return c.label }

type fixedTags struct{ tags map[string][]string }

func (s fixedTags) TagsFor(pkey string) []string { return s.tags[pkey] }

func TestCategory_AddsColumn(t *testing.T) {
	tr := Category{Column: "category", TextColumn: "text", source: fixedCategories{label: "music"}}
	out, err := tr.Apply(testFrame())
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if !out.HasColumn("category") {
		t.Fatal("category column missing")
	}
	if out.Rows[0]["category"] != "music" {
		t.Errorf("category = %v", out.Rows[0]["category"])
	}
	if out.Len() != 3 {
		t.Errorf("enrichment dropped rows: %d", out.Len())
	}
}

func TestCategory_MissingResource(t *testing.T) {
	_, err := Category{Column: "category", TextColumn: "text"}.Apply(testFrame())
	if !errors.Is(err, ErrMissingResource) {
		t.Fatalf("err = %v, want ErrMissingResource", err)
	}
}

func TestCategory_MissingColumn(t *testing.T) {
	tr := Category{Column: "category", TextColumn: "nope", source: fixedCategories{}}
	_, err := tr.Apply(testFrame())
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
}

func TestTags_JoinsTagList(t *testing.T) {
	tr := Tags{
		Column:     "tags",
		PKeyColumn: "id",
		source:     fixedTags{tags: map[string][]string{"b": {"wood", "work"}}},
	}
	out, err := tr.Apply(testFrame())
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if out.Rows[1]["tags"] != "wood,work" {
		t.Errorf("tags = %v", out.Rows[1]["tags"])
	}
	if out.Rows[0]["tags"] != "" {
		t.Errorf("untagged row got %v", out.Rows[0]["tags"])
	}
}

func TestList_KeyAndPrefix(t *testing.T) {
	a := Filter{Path: "$[?(@.age > 30)]"}
	b := Constant{Column: "source", Value: "x"}

	long := List{a, b}
	short := List{a}

	if long.Key() == short.Key() {
		t.Error("different chains share a key")
	}
	if !short.IsPrefixOf(long) {
		t.Error("short should be a prefix of long")
	}
	if long.IsPrefixOf(short) {
		t.Error("long cannot be a prefix of short")
	}
	if !long.Prefix(1).Equal(short) {
		t.Error("Prefix(1) should equal the one-element chain")
	}

	// Order matters: the reversed chain is a different identity.
	reversed := List{b, a}
	if reversed.Key() == long.Key() {
		t.Error("reordered chain shares a key")
	}
	if short.IsPrefixOf(reversed) {
		t.Error("prefix check must be ordered")
	}
}

func TestParseDefs_RoundTrip(t *testing.T) {
	defs := []api.TransformDef{
		{Kind: api.KindFilter, Name: "match", Args: map[string]string{"path": "$[?(@.age > 30)]"}},
		{Kind: api.KindEnrichment, Name: "category", Args: map[string]string{"text_column": "text"}},
		{Kind: api.KindEnrichment, Name: "tags", Args: map[string]string{"pkey_column": "id"}},
		{Kind: api.KindEnrichment, Name: "constant", Args: map[string]string{"column": "src", "value": "v"}},
	}
	res := Resources{Categories: fixedCategories{}, Tags: fixedTags{}}

	list, err := ParseDefs(defs, res)
	if err != nil {
		t.Fatalf("ParseDefs returned error: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("parsed %d transforms, want 4", len(list))
	}

	again, err := ParseDefs(list.Defs(), res)
	if err != nil {
		t.Fatalf("re-parse returned error: %v", err)
	}
	if !list.Equal(again) {
		t.Error("defs round trip changed the chain identity")
	}
}

func TestParseDefs_Unknown(t *testing.T) {
	_, err := ParseDefs([]api.TransformDef{{Kind: api.KindFilter, Name: "bogus"}}, Resources{})
	if !errors.Is(err, ErrUnknownTransform) {
		t.Fatalf("err = %v, want ErrUnknownTransform", err)
	}
}
