package corpus

import (
	"errors"
	"testing"

	"github.com/agentic-research/facet/internal/frame"
)

// fixedProcessor emits one occurrence per pre-split word.
type fixedProcessor struct{}

func (fixedProcessor) Process(text string, _ EntryID) []TokenOccurrence {
	var out []TokenOccurrence
	for _, w := range splitSentences(text) {
		out = append(out, TokenOccurrence{Token: w, Info: TokenInfo{Dep: DepRoot, POS: POSNoun}})
	}
	return out
}

func TestCorpus_AddEntryIndexes(t *testing.T) {
	c := New(fixedProcessor{})
	if err := c.AddEntry(Entry{ID: 0, PKey: "p0", AgeDays: 15, Text: "guitar"}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if err := c.AddEntry(Entry{ID: 1, PKey: "p1", AgeDays: 30, Text: "guitar.drums"}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	if got := c.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	if c.MinAgeWeeks() != 2 || c.MaxAgeWeeks() != 4 {
		t.Errorf("age range = [%d, %d], want [2, 4]", c.MinAgeWeeks(), c.MaxAgeWeeks())
	}

	ids := c.IDsByAge(4)
	if ids == nil || !ids.Contains(1) {
		t.Error("entry 1 missing from its age bucket")
	}

	occs := c.Occurrences("guitar")
	if len(occs) != 2 {
		t.Fatalf("guitar occurrences = %d, want 2", len(occs))
	}
	if occs[0].Entry != 0 || occs[0].Age != 2 {
		t.Errorf("first occurrence = %+v", occs[0])
	}

	if pk, ok := c.PKeyFor(1); !ok || pk != "p1" {
		t.Errorf("PKeyFor(1) = %q, %v", pk, ok)
	}
	if got := c.TokensFor(1); len(got) != 2 {
		t.Errorf("TokensFor(1) = %v", got)
	}
}

func TestCorpus_FrozenRejectsWrites(t *testing.T) {
	c := New(fixedProcessor{})
	c.Freeze()
	err := c.AddEntry(Entry{ID: 0, PKey: "p", Text: "x"})
	if !errors.Is(err, ErrFrozen) {
		t.Fatalf("err = %v, want ErrFrozen", err)
	}
}

func TestFromFrame(t *testing.T) {
	f := frame.New("pk", "text", "age")
	f.Append(map[string]any{"pk": "a", "text": "violin", "age": int64(7)})
	f.Append(map[string]any{"pk": "b", "text": "cello", "age": "14"})

	c, err := FromFrame(f, "pk", "text", "age", fixedProcessor{})
	if err != nil {
		t.Fatalf("FromFrame: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if len(c.Occurrences("cello")) != 1 {
		t.Error("second row not indexed")
	}
}

func TestFromFrame_MissingColumn(t *testing.T) {
	f := frame.New("pk", "text")
	if _, err := FromFrame(f, "pk", "text", "age", fixedProcessor{}); err == nil {
		t.Fatal("expected error for missing age column")
	}
}

func TestFromFrame_BadAge(t *testing.T) {
	f := frame.New("pk", "text", "age")
	f.Append(map[string]any{"pk": "a", "text": "violin", "age": "soon"})
	if _, err := FromFrame(f, "pk", "text", "age", fixedProcessor{}); err == nil {
		t.Fatal("expected error for unparseable age")
	}
}

func TestRuleProcessor_Roles(t *testing.T) {
	p := NewRuleProcessor()
	occs := p.Process("We bought guitars in Nashville, Tennessee.", 0)

	byToken := make(map[string]TokenInfo)
	for _, o := range occs {
		byToken[o.Token] = o.Info
	}

	if info, ok := byToken["guitars"]; !ok || info.Dep != DepDirectObj {
		t.Errorf("guitars = %+v, want dobj", info)
	}
	if info, ok := byToken["nashville"]; !ok || info.Dep != DepObjOfPrep {
		t.Errorf("nashville = %+v, want pobj", info)
	}
	// Last content token anchors the sentence.
	if info, ok := byToken["tennessee"]; !ok || info.Dep != DepRoot {
		t.Errorf("tennessee = %+v, want ROOT", info)
	}
	if _, ok := byToken["guitars nashville"]; !ok {
		t.Error("bigram of adjacent kept tokens missing")
	}
}

func TestRuleProcessor_Cleanse(t *testing.T) {
	p := NewRuleProcessor()
	occs := p.Process("re-search on the website", 0)

	byToken := make(map[string]struct{})
	for _, o := range occs {
		byToken[o.Token] = struct{}{}
	}
	if _, ok := byToken["research"]; !ok {
		t.Error("hyphenated compound not collapsed")
	}
	if _, ok := byToken["site"]; !ok {
		t.Error("website not normalized to site")
	}
	if _, ok := byToken["website"]; ok {
		t.Error("raw variant survived normalization")
	}
}

func TestRuleProcessor_Deterministic(t *testing.T) {
	p := NewRuleProcessor()
	text := "The band bought drums, a guitar and a piano in Memphis."
	a := p.Process(text, 0)
	b := p.Process(text, 0)
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("occurrence %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
