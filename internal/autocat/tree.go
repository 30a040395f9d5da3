package autocat

import "strings"

// DefaultCategory is the label for text matching no category.
const DefaultCategory = "misc"

// CategoryTree is the built category hierarchy: ordered category names,
// each with an ordered member token list. A tree is a value; rebuilding
// replaces it wholesale and an existing tree is never mutated.
type CategoryTree struct {
	names   []string
	members map[string][]string
}

func newCategoryTree() *CategoryTree {
	return &CategoryTree{members: make(map[string][]string)}
}

// Categories returns the category names in rank order.
func (t *CategoryTree) Categories() []string {
	return append([]string(nil), t.names...)
}

// Members returns the member tokens of a category in rank order.
func (t *CategoryTree) Members(name string) []string {
	return append([]string(nil), t.members[name]...)
}

// Len returns the number of top-level categories.
func (t *CategoryTree) Len() int { return len(t.names) }

func (t *CategoryTree) add(category string) {
	if _, ok := t.members[category]; ok {
		return
	}
	t.names = append(t.names, category)
	t.members[category] = nil
}

func (t *CategoryTree) attach(category, token string) {
	for _, m := range t.members[category] {
		if m == token {
			return
		}
	}
	t.members[category] = append(t.members[category], token)
}

func (t *CategoryTree) remove(category string) {
	delete(t.members, category)
	for i, n := range t.names {
		if n == category {
			t.names = append(t.names[:i], t.names[i+1:]...)
			return
		}
	}
}

// Categorize labels free text with the first category (in rank order)
// whose name or member occurs in the text, falling back to
// DefaultCategory. Implements transform.CategorySource.
func (t *CategoryTree) Categorize(text string) string {
	lower := strings.ToLower(text)
	for _, name := range t.names {
		if strings.Contains(lower, name) {
			return name
		}
		for _, m := range t.members[name] {
			if strings.Contains(lower, m) {
				return name
			}
		}
	}
	return DefaultCategory
}
