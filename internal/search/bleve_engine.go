package search

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/storage"
)

// BleveEngine keeps a full-text index of saved articles. Documents are
// keyed by storage.ArticleID.
type BleveEngine struct {
	store *storage.Store
	idx   bleve.Index
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes the
// current bookmarks. An empty indexPath keeps the index in memory.
func NewBleveEngine(store *storage.Store, indexPath string) (*BleveEngine, error) {
	var idx bleve.Index
	var err error

	if indexPath == "" {
		idx, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(indexPath), 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating index directory: %w", mkErr)
		}
		idx, err = bleve.Open(indexPath)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.New(indexPath, buildIndexMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}

	be := &BleveEngine{store: store, idx: idx}
	if err := be.Reindex(); err != nil {
		idx.Close()
		return nil, err
	}
	return be, nil
}

// Open returns a bleve engine, or the in-memory scorer when the index
// cannot be opened (for example while another instance holds it).
func Open(store *storage.Store, indexPath string) Searcher {
	be, err := NewBleveEngine(store, indexPath)
	if err != nil {
		debuglog.Warnf("search: falling back to simple engine: %v", err)
		return NewEngine(store)
	}
	return be
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	desc := bleve.NewTextFieldMapping()
	desc.Analyzer = standard.Name
	desc.Store = true

	publisher := bleve.NewTextFieldMapping()
	publisher.Analyzer = standard.Name
	publisher.Store = true

	url := bleve.NewTextFieldMapping()
	url.Analyzer = standard.Name
	url.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("description", desc)
	dm.AddFieldMappingsAt("publisher", publisher)
	dm.AddFieldMappingsAt("url", url)

	im.DefaultMapping = dm
	return im
}

func document(saved *storage.SavedArticle) map[string]any {
	return map[string]any{
		"title":       saved.Article.Title,
		"description": saved.Article.Description,
		"publisher":   saved.Article.Publisher.Title,
		"url":         saved.Article.URL,
	}
}

// Reindex makes the index match the bookmarks in the store.
func (b *BleveEngine) Reindex() error {
	saved, err := b.store.SavedArticles()
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(saved))
	batch := b.idx.NewBatch()
	for _, s := range saved {
		keep[s.ID] = true
		if err := batch.Index(s.ID, document(s)); err != nil {
			return err
		}
	}

	ids, err := b.allIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !keep[id] {
			batch.Delete(id)
		}
	}
	return b.idx.Batch(batch)
}

func (b *BleveEngine) allIDs() ([]string, error) {
	count, err := b.idx.DocCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < minQueryLength {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	// OR of per-term matches across fields, boosted by field
	boosts := []struct {
		field string
		match float64
	}{
		{"title", 4.0},
		{"description", 2.0},
		{"publisher", 1.0},
		{"url", 0.5},
	}
	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range boosts {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.field)
			mq.SetBoost(f.match)
			qs = append(qs, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.field)
			pq.SetBoost(f.match * 0.8)
			qs = append(qs, pq)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	srch := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	srch.Fields = []string{"title", "description", "publisher"}
	srch.IncludeLocations = true
	res, err := b.idx.Search(srch)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		saved, err := b.store.GetSaved(h.ID)
		if errors.Is(err, storage.ErrNotFound) {
			_ = b.idx.Delete(h.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		r := &Result{Saved: saved, Score: h.Score}
		for field, loc := range h.Locations {
			if len(loc) == 0 {
				continue
			}
			if text, ok := h.Fields[field].(string); ok {
				r.Matches = append(r.Matches, Match{Field: field, Text: truncate(text, 150)})
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// OnSaved indexes a newly saved article.
func (b *BleveEngine) OnSaved(saved *storage.SavedArticle) {
	if saved == nil {
		return
	}
	if err := b.idx.Index(saved.ID, document(saved)); err != nil {
		debuglog.Warnf("search: indexing %s: %v", saved.ID, err)
	}
}

// OnRemoved drops a bookmark from the index.
func (b *BleveEngine) OnRemoved(id string) {
	if err := b.idx.Delete(id); err != nil {
		debuglog.Warnf("search: removing %s: %v", id, err)
	}
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
