package tui

import (
	"fmt"
	"strings"

	"github.com/pders01/headlines/internal/source"
)

// StatusKind sets the color of the status line.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgLoading          = "Loading headlines…"
	MsgLoadingMore      = "Loading more…"
	MsgRefreshing       = "Refreshing…"
	MsgLoadingArticle   = "Loading article…"
	MsgNoResults        = "No results"
	MsgNoArticles       = "No articles match these filters"
	MsgNoSaved          = "No saved articles yet. Press b on a headline to keep it."
	MsgFiltersUnchanged = "Filters unchanged"
	MsgFiltersCleared   = "Filters cleared"
	MsgOpened           = "Opened in browser"
	MsgNoLink           = "This article has no link"

	MsgServiceError = "The news service sent an unusable response. Press r to retry."
	MsgUnreachable  = "Could not reach the news service. Press r to retry."
	MsgFetchFailed  = "Could not load headlines. Press r to retry."
)

// fetchFailureMessage tells a bad answer from no answer for the empty feed.
func fetchFailureMessage(err error) string {
	switch {
	case source.IsInvalidResponse(err):
		return MsgServiceError
	case source.IsNetworkError(err):
		return MsgUnreachable
	default:
		return MsgFetchFailed
	}
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgFeedSummary reports the list size after a page lands.
func MsgFeedSummary(articles, page int, exhausted bool) string {
	base := fmt.Sprintf("%d articles • page %d", articles, page)
	if articles == 1 {
		base = fmt.Sprintf("1 article • page %d", page)
	}
	if exhausted {
		base += " • end of feed"
	}
	return base
}

func MsgBookmark(saved bool, title string) string {
	title = truncateEnd(strings.TrimSpace(title), 40)
	if saved {
		return fmt.Sprintf("Saved '%s'", title)
	}
	return fmt.Sprintf("Removed '%s' from saved", title)
}

func MsgSearchEngine(engine string, docs int) string {
	if docs < 0 {
		return "Search: " + engine
	}
	return fmt.Sprintf("Search: %s • idx: %d", engine, docs)
}
