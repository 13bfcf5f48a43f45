package search

import "github.com/pders01/headlines/internal/storage"

// Result is a saved article matching a query.
type Result struct {
	Saved   *storage.SavedArticle
	Score   float64
	Matches []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "title", "description", "publisher"
	Text   string
	Weight float64
}

// Searcher defines the minimal search API used by the TUI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// IndexListener can be implemented by search engines that maintain
// an external index and want to be notified about bookmark changes.
type IndexListener interface {
	OnSaved(saved *storage.SavedArticle)
	OnRemoved(id string)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
