package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

const searchLimit = 50

// runRequest performs a controller request off the update loop. The result
// comes back as a fetchResultMsg and is resolved in Update.
func (a *App) runRequest(req feed.Request, ok bool) tea.Cmd {
	if !ok {
		return nil
	}
	ctx := a.ctx
	ctrl := a.ctrl
	return func() tea.Msg {
		return fetchResultMsg{res: ctrl.Fetch(ctx, req)}
	}
}

func (a *App) start() tea.Cmd {
	req, ok := a.ctrl.Start(a.startFilters, nil)
	a.syncFeed(true)
	return tea.Batch(a.startSpinner(MsgLoading), a.runRequest(req, ok))
}

func (a *App) refresh() tea.Cmd {
	a.err = nil
	req, ok := a.ctrl.Refresh(nil)
	return tea.Batch(a.startSpinner(MsgRefreshing), a.runRequest(req, ok))
}

// maybeLoadMore asks for the next page once the cursor is within the scroll
// threshold of the end of the list.
func (a *App) maybeLoadMore() tea.Cmd {
	n := len(a.feedList.Items())
	if n == 0 {
		return nil
	}
	threshold := a.config.Feed.ScrollThreshold
	if threshold < 1 {
		threshold = 1
	}
	if a.feedList.Index() < n-threshold {
		return nil
	}
	st := a.ctrl.State()
	if st.IsLoading || st.Exhausted {
		return nil
	}
	req, ok := a.ctrl.LoadMore(func(err error) {
		if err != nil && !errors.Is(err, feed.ErrStale) {
			debuglog.Debugf("tui: load more settled: %v", err)
		}
	})
	if !ok {
		return nil
	}
	return tea.Batch(a.startSpinner(MsgLoadingMore), a.runRequest(req, ok))
}

func (a *App) openFilters() tea.Cmd {
	a.view = ViewFilters
	return a.filters.load(a.ctrl.Filters())
}

func (a *App) resetFilters() news.FilterSet {
	a.setStatus(MsgFiltersCleared, StatusInfo)
	return news.FilterSet{}
}

// applyFilters hands the panel's filters to the controller and leaves the
// panel. Unchanged filters issue nothing.
func (a *App) applyFilters() tea.Cmd {
	fs, err := a.filters.value()
	if err != nil {
		a.filters.err = err
		return nil
	}
	a.view = ViewFeed
	a.err = nil

	if a.config.Feed.RestoreFilters {
		if err := a.store.SaveFilters(fs); err != nil {
			debuglog.Warnf("tui: saving filters: %v", err)
		}
	}

	req, ok := a.ctrl.ApplyFilters(fs, nil)
	if !ok {
		a.setStatus(MsgFiltersUnchanged, StatusInfo)
		return nil
	}
	a.syncFeed(true)
	return tea.Batch(a.startSpinner(MsgLoading), a.runRequest(req, ok))
}

// syncFeed rebuilds the feed list from the controller state.
func (a *App) syncFeed(resetCursor bool) {
	st := a.ctrl.State()
	items := make([]list.Item, len(st.Articles))
	for i, art := range st.Articles {
		items[i] = articleItem{
			article: art,
			read:    a.readKeys[art.Key()],
			saved:   a.store.IsSaved(art),
			maxDesc: a.config.UI.Article.MaxDescriptionLength,
		}
	}
	a.feedList.SetItems(items)
	if resetCursor {
		a.feedList.ResetSelected()
	}
	a.feedList.Title = fmt.Sprintf("› %s", st.Filters.Describe())
}

func (a *App) selectedArticle() (news.Article, bool) {
	if i, ok := a.feedList.SelectedItem().(articleItem); ok {
		return i.article, true
	}
	return news.Article{}, false
}

// openReader switches to the reader and renders article in the background.
func (a *App) openReader(article news.Article, from View) tea.Cmd {
	a.currentArticle = &article
	a.readerReturn = from
	a.view = ViewReader
	a.loadingArticle = true
	a.viewport.SetContent("")

	r, err := a.getRenderer()
	if err != nil {
		a.loadingArticle = false
		a.err = wrapErr("initializing renderer", err)
		return nil
	}
	render := func() tea.Msg {
		out, err := r.Render(articleMarkdown(article))
		if err != nil {
			out = fmt.Sprintf("Failed to render article: %v\n\nPress esc to go back.", err)
		}
		return articleRenderedMsg{key: article.Key(), content: out}
	}
	return tea.Batch(a.startSpinner(MsgLoadingArticle), render, a.markRead(article))
}

func articleMarkdown(article news.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", article.Title)

	meta := []string{article.Source()}
	if !article.PublishedAt.IsZero() {
		meta = append(meta, article.PublishedAt.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " • "))

	if desc := strings.TrimSpace(article.Description); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}
	b.WriteString("---\n\n")
	if article.URL != "" {
		fmt.Fprintf(&b, "[Read more](%s)\n", article.URL)
	} else {
		b.WriteString("*No link available.*\n")
	}
	return b.String()
}

func (a *App) markRead(article news.Article) tea.Cmd {
	store := a.store
	return func() tea.Msg {
		if err := store.MarkRead(article); err != nil {
			return errorMsg{err: wrapErr("marking read", err)}
		}
		return articleReadMsg{key: article.Key()}
	}
}

// toggleBookmark saves or removes article and keeps the search index in
// step with the store.
func (a *App) toggleBookmark(article news.Article) tea.Cmd {
	store := a.store
	searcher := a.searcher
	return func() tea.Msg {
		saved, err := store.ToggleSaved(article)
		if err != nil {
			return bookmarkToggledMsg{article: article, err: wrapErr("bookmark", err)}
		}
		if l, ok := searcher.(search.IndexListener); ok {
			id := storage.ArticleID(article)
			if !saved {
				l.OnRemoved(id)
			} else if s, err := store.GetSaved(id); err == nil {
				l.OnSaved(s)
			}
		}
		return bookmarkToggledMsg{article: article, saved: saved}
	}
}

func (a *App) showSaved() tea.Cmd {
	a.view = ViewSaved
	return a.loadSaved()
}

func (a *App) loadSaved() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		saved, err := store.SavedArticles()
		return savedLoadedMsg{saved: saved, err: err}
	}
}

func (a *App) enterSearch() tea.Cmd {
	if a.view != ViewSearch {
		a.previousView = a.view
	}
	a.view = ViewSearch
	a.resetSearch()
	cmd := a.searchInput.Focus()

	engine := fmt.Sprintf("%T", a.searcher)
	docs := -1
	if ds, ok := a.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			docs = n
		}
	}
	a.setStatus(MsgSearchEngine(engine, docs), StatusInfo)
	return cmd
}

func (a *App) resetSearch() {
	a.searchInput.Reset()
	a.searchInput.Blur()
	a.searchList.SetItems([]list.Item{})
}

func (a *App) performSearch(query string) tea.Cmd {
	searcher := a.searcher
	return func() tea.Msg {
		results, err := searcher.Search(query, searchLimit)
		return searchResultsMsg{query: query, results: results, err: err}
	}
}

func (a *App) openURL(url string) tea.Cmd {
	if url == "" {
		a.setStatus(MsgNoLink, StatusWarn)
		return nil
	}
	launcher := a.launcher
	return func() tea.Msg {
		if err := launcher.Open(url); err != nil {
			return errorMsg{err: wrapErr("open "+truncateMiddle(url, 60), err)}
		}
		return openedMsg{url: url}
	}
}

func (a *App) quit() tea.Cmd {
	a.cancel()
	return tea.Quit
}

func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
