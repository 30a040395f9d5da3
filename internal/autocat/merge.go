package autocat

import "log"

// MergeScorer rates how well a low-population category folds into a
// candidate sibling. The exact scoring is a tunable policy, not a fixed
// law: implementations must only be deterministic for identical inputs.
// Higher scores win; ties keep the earlier (higher-ranked) sibling.
type MergeScorer interface {
	Score(small, into Category) float64
}

// Category is a named member list as seen by a MergeScorer.
type Category struct {
	Name    string
	Members []string
}

// AffixOverlapScorer is the default policy: shared members dominate,
// lexical affix similarity of the names breaks the rest.
type AffixOverlapScorer struct{}

func (AffixOverlapScorer) Score(small, into Category) float64 {
	shared := 0
	members := make(map[string]struct{}, len(into.Members))
	for _, m := range into.Members {
		members[m] = struct{}{}
	}
	for _, m := range small.Members {
		if _, ok := members[m]; ok {
			shared++
		}
	}
	return float64(shared)*2 + float64(commonAffix(small.Name, into.Name))
}

// commonAffix returns the longer of the common prefix and common suffix.
func commonAffix(a, b string) int {
	ar, br := []rune(a), []rune(b)

	prefix := 0
	for prefix < len(ar) && prefix < len(br) && ar[prefix] == br[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(ar) && suffix < len(br) && ar[len(ar)-1-suffix] == br[len(br)-1-suffix] {
		suffix++
	}
	if prefix > suffix {
		return prefix
	}
	return suffix
}

// mergeLowerRank folds categories below the population threshold into
// their best-scoring larger sibling and removes them as top-level
// entries. Candidates are visited in rank order so the outcome is stable.
func (b *Builder) mergeLowerRank(tree *CategoryTree) {
	for _, name := range tree.Categories() {
		members := tree.Members(name)
		if len(members) >= b.Config.MinCategorySize {
			continue
		}

		small := Category{Name: name, Members: members}
		bestScore := -1.0
		bestSibling := ""
		for _, sibling := range tree.Categories() {
			if sibling == name {
				continue
			}
			sibMembers := tree.Members(sibling)
			if len(sibMembers) < len(members) {
				continue
			}
			score := b.Scorer.Score(small, Category{Name: sibling, Members: sibMembers})
			if score > bestScore {
				bestScore = score
				bestSibling = sibling
			}
		}
		if bestSibling == "" {
			continue
		}

		for _, m := range members {
			tree.attach(bestSibling, m)
		}
		tree.remove(name)
		log.Printf("autocat: merged category %q into %q", name, bestSibling)
	}
}
