package search

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/storage"
)

func seededStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for _, a := range []news.Article{
		{Title: "Hello World", Description: "greeting article", URL: "https://example.com/1", Publisher: news.Publisher{Title: "Daily Planet"}},
		{Title: "Golang Tips", Description: "bleve and full text search", URL: "https://example.com/2", Publisher: news.Publisher{Title: "Gopher Times"}},
		{Title: "Election results", Description: "Counting continues", URL: "https://example.com/3", Publisher: news.Publisher{Title: "Gazette"}},
	} {
		_, err := store.SaveArticle(a)
		require.NoError(t, err)
	}
	return store
}

func TestBleveEngineIndexesAndSearches(t *testing.T) {
	store := seededStore(t)

	idxPath := filepath.Join(t.TempDir(), "index.bleve")
	eng, err := NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	n, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res, err := eng.Search("Golang", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "Golang Tips", res[0].Saved.Article.Title)

	res, err = eng.Search("bleve", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res)

	// prefix matches
	res, err = eng.Search("elect", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "Election results", res[0].Saved.Article.Title)

	// publisher is indexed
	res, err = eng.Search("gazette", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res)

	fi, err := os.Stat(idxPath)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestBleveEngineFollowsBookmarks(t *testing.T) {
	store := seededStore(t)
	eng, err := NewBleveEngine(store, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	saved, err := store.SaveArticle(news.Article{Title: "Quantum computing breakthrough", URL: "https://example.com/q"})
	require.NoError(t, err)
	eng.OnSaved(saved)

	res, err := eng.Search("quantum", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)

	require.NoError(t, store.RemoveArticle(saved.ID))
	eng.OnRemoved(saved.ID)
	res, err = eng.Search("quantum", 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestBleveEngineSkipsOrphanedDocs(t *testing.T) {
	store := seededStore(t)
	eng, err := NewBleveEngine(store, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	all, err := store.SavedArticles()
	require.NoError(t, err)
	var golang *storage.SavedArticle
	for _, s := range all {
		if s.Article.Title == "Golang Tips" {
			golang = s
		}
	}
	require.NotNil(t, golang)

	// removed from the store without telling the index
	require.NoError(t, store.RemoveArticle(golang.ID))
	res, err := eng.Search("golang", 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	require.NoError(t, eng.Reindex())
	n, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReopenIndex(t *testing.T) {
	store := seededStore(t)
	idxPath := filepath.Join(t.TempDir(), "index.bleve")

	eng, err := NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	eng, err = NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	res, err := eng.Search("hello", 5)
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestSearchMinLength(t *testing.T) {
	store := seededStore(t)
	engines := map[string]Searcher{"simple": NewEngine(store)}
	be, err := NewBleveEngine(store, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = be.Close() })
	engines["bleve"] = be

	for name, eng := range engines {
		for _, q := range []string{"", "a", "   "} {
			res, err := eng.Search(q, 10)
			require.NoError(t, err, name)
			assert.Empty(t, res, "%s: %q", name, q)
		}
	}
}

func TestSimpleEngineRanksTitleFirst(t *testing.T) {
	store := seededStore(t)
	_, err := store.SaveArticle(news.Article{Title: "Weather", Description: "golang conference rained out", URL: "https://example.com/w"})
	require.NoError(t, err)

	eng := NewEngine(store)
	res, err := eng.Search("golang", 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Golang Tips", res[0].Saved.Article.Title)
	assert.Equal(t, "title", res[0].Matches[0].Field)

	res, err = eng.Search("golang", 1)
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestOpenFallsBack(t *testing.T) {
	store := seededStore(t)

	// a regular file where the index directory should be
	blocker := filepath.Join(t.TempDir(), "index.bleve")
	require.NoError(t, os.WriteFile(blocker, []byte("not an index"), 0o644))

	s := Open(store, blocker)
	_, ok := s.(*Engine)
	assert.True(t, ok, "expected the simple engine, got %T", s)

	s = Open(store, "")
	be, ok := s.(*BleveEngine)
	require.True(t, ok)
	_ = be.Close()
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "42"}, tokenize("Hello, World! a 42"))
	assert.Empty(t, tokenize("a b c"))
}

func TestRecencyBoost(t *testing.T) {
	now := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	assert.Zero(t, recencyBoost(time.Time{}, now))
	assert.Zero(t, recencyBoost(now.Add(-30*24*time.Hour), now))
	assert.InDelta(t, 0.1, recencyBoost(now, now), 1e-9)
	assert.Greater(t, recencyBoost(now.Add(-time.Hour), now), recencyBoost(now.Add(-72*time.Hour), now))
}
