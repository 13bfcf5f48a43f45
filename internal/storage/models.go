package storage

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/pders01/headlines/internal/news"
)

// SavedArticle is a bookmarked article.
type SavedArticle struct {
	ID      string       `json:"id"`
	Article news.Article `json:"article"`
	SavedAt time.Time    `json:"saved_at"`
}

type readMark struct {
	Key    string    `json:"key"`
	ReadAt time.Time `json:"read_at"`
}

// ArticleID derives the storage key for an article from its identity.
func ArticleID(a news.Article) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(a.Key())))[:16]
}
