package autocat

import "sort"

// TokenCount is one entry of a ranked counter.
type TokenCount struct {
	Token string
	Count float64
}

// Counter is a weighted counter with reproducible ranking: equal counts
// order by first insertion. The category tree must come out identical for
// identical input, so map iteration order never leaks into results.
type Counter struct {
	counts map[string]float64
	order  map[string]int
	next   int
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]float64), order: make(map[string]int)}
}

// Add accumulates weight for a token.
func (c *Counter) Add(token string, weight float64) {
	if _, ok := c.order[token]; !ok {
		c.order[token] = c.next
		c.next++
	}
	c.counts[token] += weight
}

// Get returns a token's accumulated count.
func (c *Counter) Get(token string) float64 { return c.counts[token] }

// Len returns the number of distinct tokens.
func (c *Counter) Len() int { return len(c.counts) }

// MostCommon returns the top n tokens by count, ties broken by insertion
// order. n <= 0 returns the full ranking.
func (c *Counter) MostCommon(n int) []TokenCount {
	ranked := make([]TokenCount, 0, len(c.counts))
	for tok, cnt := range c.counts {
		ranked = append(ranked, TokenCount{Token: tok, Count: cnt})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return c.order[ranked[i].Token] < c.order[ranked[j].Token]
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
