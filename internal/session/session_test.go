package session

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/facet/api"
	"github.com/agentic-research/facet/internal/config"
	"github.com/agentic-research/facet/internal/store"
)

// newTestSession builds a session over an in-memory filesystem holding a
// 100-row dataset. Rows i=1..100 carry age i days and a text column that
// mentions guitars on even rows and drums on odd ones.
func newTestSession(t *testing.T) (*Session, store.Dataset, string) {
	t.Helper()

	fs := memfs.New()
	var b strings.Builder
	b.WriteString("id,text,age\n")
	for i := 1; i <= 100; i++ {
		topic := "bought drums for the band"
		if i%2 == 0 {
			topic = "bought guitars for the band"
		}
		fmt.Fprintf(&b, "r%d,%s,%d\n", i, topic, i)
	}
	require.NoError(t, util.WriteFile(fs, "data/band.csv", []byte(b.String()), 0o644))

	cfg := config.DefaultConfig()
	s := New(cfg, fs)
	d := s.Datasets.Create(store.Dataset{
		Filename:   "band.csv",
		PKeyColumn: "id",
		TextColumn: "text",
		AgeColumn:  "age",
	})
	return s, d, s.Users.DefaultUser().ID
}

func filterDefs(path string) []api.TransformDef {
	return []api.TransformDef{
		{Kind: api.KindFilter, Name: "match", Args: map[string]string{"path": path}},
	}
}

func TestSession_FilterViewMaterializes(t *testing.T) {
	s, d, user := newTestSession(t)

	v, err := s.GetOrCreateView(user, d.ID, filterDefs("$[?(@.age > 60)]"), nil)
	require.NoError(t, err)

	f, err := s.MaterializeView(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, f.Len())
	assert.Equal(t, 1, s.CachedFrames(d.ID))

	// Same request converges on the same view and hits the cache.
	again, err := s.GetOrCreateView(user, d.ID, filterDefs("$[?(@.age > 60)]"), nil)
	require.NoError(t, err)
	assert.Equal(t, v.ID, again.ID)
	assert.Equal(t, 1, s.Views.Len())
}

func TestSession_SiblingViewsShareDataset(t *testing.T) {
	s, d, user := newTestSession(t)
	ctx := context.Background()

	base, err := s.GetOrCreateView(user, d.ID, filterDefs("$[?(@.age > 60)]"), nil)
	require.NoError(t, err)
	_, err = s.MaterializeView(ctx, base.ID)
	require.NoError(t, err)

	defs := filterDefs("$[?(@.age > 60)]")
	defs = append(defs, api.TransformDef{
		Kind: api.KindEnrichment, Name: "constant",
		Args: map[string]string{"column": "source", "value": "band"},
	})
	derived, err := s.GetOrCreateView(user, d.ID, defs, nil)
	require.NoError(t, err)

	f, err := s.MaterializeView(ctx, derived.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, f.Len())
	assert.Equal(t, "band", f.Rows[0]["source"])
	assert.Equal(t, 2, s.CachedFrames(d.ID))

	// The derived view records its provenance.
	assert.Equal(t, base.ID, derived.ParentID)
}

func TestSession_UnknownIDs(t *testing.T) {
	s, d, user := newTestSession(t)

	_, err := s.GetOrCreateView("nobody", d.ID, nil, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetOrCreateView(user, "no-dataset", nil, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.MaterializeView(context.Background(), "no-view")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSession_MostRecentView(t *testing.T) {
	s, d, user := newTestSession(t)

	_, err := s.MostRecentView(user, "")
	assert.ErrorIs(t, err, ErrNoAssociatedDataset)

	v, err := s.GetOrCreateView(user, d.ID, filterDefs("$[?(@.age > 60)]"), nil)
	require.NoError(t, err)

	got, err := s.MostRecentView(user, "")
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	// A fresh user on the same dataset falls back to the base view.
	other := s.Users.Create("bob")
	got, err = s.MostRecentView(other.ID, d.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Transforms)
}

func TestSession_AddTagsInvalidatesCache(t *testing.T) {
	s, d, user := newTestSession(t)
	ctx := context.Background()

	defs := []api.TransformDef{{
		Kind: api.KindEnrichment, Name: "tags",
		Args: map[string]string{"pkey_column": "id"},
	}}
	v, err := s.GetOrCreateView(user, d.ID, defs, nil)
	require.NoError(t, err)

	f, err := s.MaterializeView(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "", f.Rows[0]["tags"])

	updated, err := s.AddTags(v.ID, []string{"r1", "r2"}, "id", []string{"vintage"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vintage"}, updated)
	assert.Equal(t, 0, s.CachedFrames(d.ID), "tag writes must drop stale frames")

	f, err = s.MaterializeView(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "vintage", f.Rows[0]["tags"])

	_, err = s.AddTags("no-view", nil, "id", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSession_BuildCategoriesFeedsEnrichment(t *testing.T) {
	s, d, user := newTestSession(t)
	ctx := context.Background()

	defs := []api.TransformDef{{
		Kind: api.KindEnrichment, Name: "category",
		Args: map[string]string{"text_column": "text"},
	}}
	v, err := s.GetOrCreateView(user, d.ID, defs, nil)
	require.NoError(t, err)

	// Before any tree exists everything is miscellaneous.
	f, err := s.MaterializeView(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "misc", f.Rows[0]["category"])

	tree, err := s.BuildCategories(ctx, d.ID, nil)
	require.NoError(t, err)
	require.NotZero(t, tree.Len())

	stored, ok := s.CategoryTree(d.ID)
	require.True(t, ok)
	assert.Equal(t, tree, stored)

	// The rebuild invalidated the dataset's frames; the next
	// materialization labels rows with real categories.
	f, err = s.MaterializeView(ctx, v.ID)
	require.NoError(t, err)
	labels := make(map[string]bool)
	for _, row := range f.Rows {
		labels[row["category"].(string)] = true
	}
	assert.NotEqual(t, map[string]bool{"misc": true}, labels)
}

func TestSession_WarmUpRestoresLastView(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, util.WriteFile(fsys, "data/tiny.csv",
		[]byte("id,text,age\nr1,hello,7\n"), 0o644))

	cfg := config.DefaultConfig()
	s := New(cfg, fsys)
	d := s.Datasets.Create(store.Dataset{
		Filename: "tiny.csv", PKeyColumn: "id", TextColumn: "text", AgeColumn: "age",
	})
	user := s.Users.DefaultUser().ID
	_, err := s.GetOrCreateView(user, d.ID, nil, nil)
	require.NoError(t, err)

	// A new session over the same files warms the cache from history.
	reopened := New(cfg, fsys)
	assert.Equal(t, 1, reopened.CachedFrames(d.ID))
}
