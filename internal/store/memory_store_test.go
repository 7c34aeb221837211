package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

func seedTag(t *testing.T, st *MemoryStore, id, name, book, cat string, created time.Time, content ...string) {
	t.Helper()
	require.NoError(t, st.CreateTag(context.Background(), models.Tag{
		ID:         id,
		Name:       name,
		BookID:     book,
		CategoryID: cat,
		ContentIDs: content,
		CreatedAt:  created,
	}))
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	seedTag(t, st, "t1", "Microsoft", "b1", "c1", time.Time{}, "p1", "p2")

	got, err := st.GetTag(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Microsoft", got.Name)
	assert.Equal(t, []string{"p1", "p2"}, got.ContentIDs)
	assert.False(t, got.CreatedAt.IsZero())

	// Returned copies must not alias stored state.
	got.ContentIDs[0] = "mutated"
	again, err := st.GetTag(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "p1", again.ContentIDs[0])

	err = st.CreateTag(ctx, models.Tag{ID: "t1", Name: "dup"})
	require.Error(t, err)

	_, err = st.GetTag(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_ListTagsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTag(t, st, "t3", "Apple", "b1", "c1", base.Add(2*time.Hour))
	seedTag(t, st, "t1", "Microsoft", "b1", "c1", base)
	seedTag(t, st, "t2", "Microsoft", "b2", "c1", base.Add(time.Hour))
	seedTag(t, st, "t4", "Microsoft", "b1", "c2", base.Add(time.Hour))

	scoped, err := st.ListTags(ctx, ScopeFilter(models.Scope{BookID: "b1", CategoryID: "c1"}))
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	assert.Equal(t, "t1", scoped[0].ID)
	assert.Equal(t, "t3", scoped[1].ID)

	byName, err := st.ListTags(ctx, TagFilter{Name: "micro"})
	require.NoError(t, err)
	assert.Len(t, byName, 3)

	all, err := st.ListTags(ctx, TagFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMemoryStore_LinkContent(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	seedTag(t, st, "t1", "Microsoft", "b1", "c1", time.Time{})

	require.NoError(t, st.LinkContent(ctx, "t1", "p1"))
	require.NoError(t, st.LinkContent(ctx, "t1", "p1"))

	got, err := st.GetTag(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, got.ContentIDs)

	err = st.LinkContent(ctx, "missing", "p1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_ReassignContent(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	seedTag(t, st, "a", "Microsoft", "b1", "c1", time.Time{}, "p1")
	seedTag(t, st, "b", "Microsoft Corp", "b1", "c1", time.Time{}, "p1", "p2", "p3")

	moved, err := st.ReassignContent(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, 3, moved)

	a, err := st.GetTag(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, a.ContentIDs)

	b, err := st.GetTag(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, b.ContentIDs)

	moved, err = st.ReassignContent(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, 0, moved)

	moved, err = st.ReassignContent(ctx, "gone", "a")
	require.NoError(t, err)
	assert.Equal(t, 0, moved)

	_, err = st.ReassignContent(ctx, "b", "gone")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_DeleteAndStats(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	seedTag(t, st, "t1", "Microsoft", "b1", "c1", time.Time{})
	seedTag(t, st, "t2", "Apple", "b2", "c1", time.Time{})
	require.NoError(t, st.UpsertContent(ctx, models.Content{ID: "p1", BookID: "b1", Page: 1, Text: "x"}))

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalTags)
	assert.Equal(t, int64(1), stats.TotalContent)
	assert.Equal(t, int64(1), stats.ByBook["b1"])

	require.NoError(t, st.DeleteTag(ctx, "t1"))
	err = st.DeleteTag(ctx, "t1")
	assert.True(t, errors.Is(err, ErrNotFound))

	stats, err = st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalTags)

	require.Error(t, st.UpsertContent(ctx, models.Content{}))
	assert.NoError(t, st.Close())
}
