package autocat

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/facet/internal/corpus"
)

// ErrNotFrozen is returned when a model is requested over a corpus that
// still accepts entries.
var ErrNotFrozen = errors.New("corpus must be frozen before building")

// BuilderConfig carries the tunable constants of the tree builder.
type BuilderConfig struct {
	// Base of the exponential recency windows.
	Base int
	// MinAgeExponent is the exponent of the first (most recent) window.
	MinAgeExponent int
	// MinTokenLen drops shorter tokens from the weighted counts.
	MinTokenLen int
	// FilterLenMin drops shorter category-name candidates.
	FilterLenMin int
	// MergeLenMin is the length below which a category name matches
	// tokens by space-bounded affix instead of containment.
	MergeLenMin int
	// CategoriesTopN tokens seed the category-name candidates.
	CategoriesTopN int
	// SubcategoriesTopN tokens are attached as category members.
	SubcategoriesTopN int
	// HeuristicIgnore skips the noisiest tokens when sizing the tree.
	HeuristicIgnore int
	// MinCategorySize is the population below which a category merges
	// into a sibling.
	MinCategorySize int
}

// DefaultBuilderConfig returns the stock tuning.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Base:              2,
		MinAgeExponent:    2,
		MinTokenLen:       2,
		FilterLenMin:      3,
		MergeLenMin:       4,
		CategoriesTopN:    50,
		SubcategoriesTopN: 100,
		HeuristicIgnore:   5,
		MinCategorySize:   3,
	}
}

// includeDeps are the dependency roles counted toward categories; these
// roles carry the topical nouns.
var includeDeps = map[string]struct{}{
	corpus.DepDirectObj: {},
	corpus.DepObjOfPrep: {},
	corpus.DepRoot:      {},
	corpus.DepAppos:     {},
}

// Builder computes time-decayed token frequencies over a frozen corpus
// and derives a category tree from them.
type Builder struct {
	Corpus       *corpus.Corpus
	ExcludeWords []string
	Scorer       MergeScorer
	Config       BuilderConfig

	// NumCategories is the heuristic tree size of the last build.
	NumCategories int
}

// NewBuilder returns a builder with default config and scorer.
func NewBuilder(c *corpus.Corpus) *Builder {
	return &Builder{Corpus: c, Scorer: AffixOverlapScorer{}, Config: DefaultBuilderConfig()}
}

// BuildModel builds the category tree, optionally restricted to a subset
// of entry ids. Given identical corpus state and config the result is
// identical: every ranking tie breaks in a fixed order.
func (b *Builder) BuildModel(entryIDs *roaring.Bitmap) (*CategoryTree, error) {
	if !b.Corpus.Frozen() {
		return nil, ErrNotFrozen
	}
	if b.Corpus.Len() == 0 {
		return nil, fmt.Errorf("autocat: empty corpus")
	}

	counts := b.timeWeightedCounts(entryIDs)
	tree := b.buildInitialTree(counts)
	b.mergeLowerRank(tree)
	return tree, nil
}

// timeWeightedCounts sums weight*occurrences per token across recency
// windows. Windows grow by Config.Base per step ([2^(e-1)+1, 2^e] weeks);
// the most recent window gets the highest weight and each older window
// halves it, so recent discourse dominates but history still contributes.
func (b *Builder) timeWeightedCounts(entryIDs *roaring.Bitmap) *Counter {
	base := float64(b.Config.Base)

	maxAge := b.Corpus.MaxAgeWeeks()
	if maxAge < 1 {
		maxAge = 1
	}
	maxExponent := 1 + int(math.Log(float64(maxAge))/math.Log(base))
	if maxExponent < b.Config.MinAgeExponent {
		maxExponent = b.Config.MinAgeExponent
	}

	weighted := NewCounter()
	for i, exp := 0, b.Config.MinAgeExponent; exp <= maxExponent; i, exp = i+1, exp+1 {
		minAge := intPow(b.Config.Base, exp-1) + 1
		maxAgeW := intPow(b.Config.Base, exp)

		window := b.countTokensInWindow(minAge, maxAgeW, entryIDs)
		weight := math.Pow(base, float64(maxExponent-i-2))

		for _, tc := range window.MostCommon(0) {
			if len([]rune(tc.Token)) < b.Config.MinTokenLen {
				continue
			}
			weighted.Add(tc.Token, weight*tc.Count)
		}
	}
	return weighted
}

// countTokensInWindow counts occurrences whose age falls inside the
// window and whose dependency role is topical. Iteration runs age by age
// and id by ascending id, keeping insertion order reproducible.
func (b *Builder) countTokensInWindow(minAge, maxAge int, entryIDs *roaring.Bitmap) *Counter {
	counts := NewCounter()
	for age := minAge; age <= maxAge; age++ {
		ids := b.Corpus.IDsByAge(age)
		if ids == nil {
			continue
		}
		it := ids.Iterator()
		for it.HasNext() {
			id := it.Next()
			if entryIDs != nil && !entryIDs.Contains(id) {
				continue
			}
			for _, token := range b.Corpus.TokensFor(id) {
				if b.excluded(token) {
					continue
				}
				n := 0
				for _, occ := range b.Corpus.Occurrences(token) {
					if occ.Entry != id {
						continue
					}
					if occ.Age < minAge || occ.Age > age {
						continue
					}
					if _, ok := includeDeps[occ.Dep]; !ok {
						continue
					}
					n++
				}
				if n > 0 {
					counts.Add(token, float64(n))
				}
			}
		}
	}
	return counts
}

func (b *Builder) excluded(token string) bool {
	for _, w := range b.ExcludeWords {
		if w != "" && strings.Contains(token, w) {
			return true
		}
	}
	return false
}

// categoryCountHeuristic sizes the tree from the count distribution: walk
// the ranking past the noise threshold and stop where counts first drop
// below half the count observed just after the skip.
func (b *Builder) categoryCountHeuristic(counts *Counter) int {
	ignore := b.Config.HeuristicIgnore
	ranked := counts.MostCommon(0)

	topCount := -1.0
	i := 1
	for idx, tc := range ranked {
		i = idx
		if idx < ignore {
			continue
		}
		if topCount < 0 {
			topCount = tc.Count
		}
		if tc.Count < topCount/2 {
			break
		}
	}
	return i * 4
}

// buildInitialTree seeds category names from the top-ranked tokens and
// attaches the wider ranking to every affix-matching category. A token
// may appear under multiple categories.
func (b *Builder) buildInitialTree(counts *Counter) *CategoryTree {
	numCategories := b.categoryCountHeuristic(counts)
	b.NumCategories = numCategories
	log.Printf("autocat: num_categories %d", numCategories)

	// Candidate names: words of the top tokens, in rank order, minus the
	// too-short ones.
	var categories []string
	seen := make(map[string]struct{})
	for _, tc := range counts.MostCommon(b.Config.CategoriesTopN) {
		for _, word := range strings.Split(tc.Token, " ") {
			if len([]rune(word)) < b.Config.FilterLenMin {
				continue
			}
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			categories = append(categories, word)
		}
	}
	if numCategories > 0 && len(categories) > numCategories {
		categories = categories[:numCategories]
	}

	tree := newCategoryTree()
	for _, tc := range counts.MostCommon(b.Config.SubcategoriesTopN) {
		for _, category := range categories {
			if !b.matches(category, tc.Token) {
				continue
			}
			tree.add(category)
			tree.attach(category, tc.Token)
		}
	}
	return tree
}

// matches implements the affix rule: short names must match on a space
// boundary (prefix "name ", suffix " name", or interior " name "), longer
// names match by equality or containment.
func (b *Builder) matches(category, token string) bool {
	if len([]rune(category)) < b.Config.MergeLenMin {
		return strings.HasPrefix(token, category+" ") ||
			strings.HasSuffix(token, " "+category) ||
			strings.Contains(token, " "+category+" ")
	}
	return token == category || strings.Contains(token, category)
}

func intPow(base, exp int) int {
	n := 1
	for i := 0; i < exp; i++ {
		n *= base
	}
	return n
}
