package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/headlines/internal/news"
)

var (
	savedBucket = []byte("saved")
	readBucket  = []byte("read")
	metaBucket  = []byte("metadata")

	filtersKey = []byte("last_filters")
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *bolt.DB
}

// NewStore opens or creates the database at dbPath. timeout bounds the wait
// for the file lock held by another running instance.
func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{savedBucket, readBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveArticle bookmarks an article. Saving it again keeps the original
// SavedAt and refreshes the stored copy.
func (s *Store) SaveArticle(article news.Article) (*SavedArticle, error) {
	saved := &SavedArticle{ID: ArticleID(article), Article: article, SavedAt: time.Now().UTC()}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(savedBucket)
		if existing := b.Get([]byte(saved.ID)); existing != nil {
			var prev SavedArticle
			if err := json.Unmarshal(existing, &prev); err == nil {
				saved.SavedAt = prev.SavedAt
			}
		}
		data, err := json.Marshal(saved)
		if err != nil {
			return err
		}
		return b.Put([]byte(saved.ID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("saving article: %w", err)
	}
	return saved, nil
}

func (s *Store) RemoveArticle(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(savedBucket)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("saved article %s: %w", id, ErrNotFound)
		}
		return b.Delete([]byte(id))
	})
}

// ToggleSaved bookmarks the article or removes the bookmark, reporting
// whether it is saved afterwards.
func (s *Store) ToggleSaved(article news.Article) (bool, error) {
	if s.IsSaved(article) {
		return false, s.RemoveArticle(ArticleID(article))
	}
	_, err := s.SaveArticle(article)
	return err == nil, err
}

func (s *Store) IsSaved(article news.Article) bool {
	var found bool
	_ = s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(savedBucket).Get([]byte(ArticleID(article))) != nil
		return nil
	})
	return found
}

func (s *Store) GetSaved(id string) (*SavedArticle, error) {
	var saved SavedArticle
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(savedBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("saved article %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &saved)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// SavedArticles lists bookmarks, most recently saved first.
func (s *Store) SavedArticles() ([]*SavedArticle, error) {
	var out []*SavedArticle
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(savedBucket).ForEach(func(_ []byte, v []byte) error {
			var saved SavedArticle
			if err := json.Unmarshal(v, &saved); err != nil {
				return nil
			}
			out = append(out, &saved)
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, err
}

// SaveFilters remembers the filters in use so the next session starts
// with them.
func (s *Store) SaveFilters(filters news.FilterSet) error {
	data, err := json.Marshal(filters)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(filtersKey, data)
	})
}

// LoadFilters returns the remembered filters; ok is false when none were
// saved yet.
func (s *Store) LoadFilters() (filters news.FilterSet, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get(filtersKey)
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &filters)
	})
	if err != nil {
		return news.FilterSet{}, false, fmt.Errorf("loading filters: %w", err)
	}
	return filters, ok, nil
}

func (s *Store) MarkRead(article news.Article) error {
	data, err := json.Marshal(readMark{Key: article.Key(), ReadAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(readBucket).Put([]byte(ArticleID(article)), data)
	})
}

// ReadKeys returns the Key of every article marked read.
func (s *Store) ReadKeys() (map[string]bool, error) {
	keys := make(map[string]bool)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(readBucket).ForEach(func(_ []byte, v []byte) error {
			var mark readMark
			if err := json.Unmarshal(v, &mark); err != nil {
				return nil
			}
			keys[mark.Key] = true
			return nil
		})
	})
	return keys, err
}
