package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

type View int

const (
	ViewFeed View = iota
	ViewFilters
	ViewReader
	ViewSaved
	ViewSearch
	ViewHelp
)

func (v View) String() string {
	switch v {
	case ViewFeed:
		return "feed"
	case ViewFilters:
		return "filters"
	case ViewReader:
		return "reader"
	case ViewSaved:
		return "saved"
	case ViewSearch:
		return "search"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

const cardDateLayout = "Jan 2, 15:04"

// articleItem is one headline card in the feed list.
type articleItem struct {
	article news.Article
	read    bool
	saved   bool
	maxDesc int
}

func (i articleItem) Title() string {
	title := i.article.Title
	if i.saved {
		title = "★ " + title
	}
	if i.read {
		return ReadItemStyle.Render(title)
	}
	return UnreadItemStyle.Render("● " + title)
}

func (i articleItem) Description() string {
	return cardLine(i.article, i.maxDesc)
}

func (i articleItem) FilterValue() string { return i.article.Title }

// cardLine renders "publisher • date • description" for list rows.
func cardLine(a news.Article, maxDesc int) string {
	parts := []string{a.Source()}
	if !a.PublishedAt.IsZero() {
		parts = append(parts, a.PublishedAt.Local().Format(cardDateLayout))
	}
	if desc := strings.TrimSpace(a.Description); desc != "" && maxDesc > 0 {
		parts = append(parts, truncateEnd(desc, maxDesc))
	}
	return lipgloss.NewStyle().Foreground(MutedColor).Render(strings.Join(parts, " • "))
}

type savedItem struct {
	saved *storage.SavedArticle
}

func (i savedItem) Title() string {
	return UnreadItemStyle.Render("★ " + i.saved.Article.Title)
}

func (i savedItem) Description() string {
	line := i.saved.Article.Source()
	if !i.saved.SavedAt.IsZero() {
		line += " • saved " + i.saved.SavedAt.Local().Format("Jan 2")
	}
	return lipgloss.NewStyle().Foreground(MutedColor).Render(line)
}

func (i savedItem) FilterValue() string { return i.saved.Article.Title }

type searchItem struct {
	result *search.Result
}

func (i searchItem) Title() string {
	return UnreadItemStyle.Render(i.result.Saved.Article.Title)
}

func (i searchItem) Description() string {
	line := i.result.Saved.Article.Source()
	for _, m := range i.result.Matches {
		if m.Field != "title" && m.Text != "" {
			line += " • " + truncateEnd(m.Text, 60)
			break
		}
	}
	return lipgloss.NewStyle().Foreground(MutedColor).Render(line)
}

func (i searchItem) FilterValue() string { return i.result.Saved.Article.Title }

type fetchResultMsg struct {
	res feed.Result
}

type articleRenderedMsg struct {
	key     string
	content string
}

type articleReadMsg struct {
	key string
}

type bookmarkToggledMsg struct {
	article news.Article
	saved   bool
	err     error
}

type savedLoadedMsg struct {
	saved []*storage.SavedArticle
	err   error
}

type searchResultsMsg struct {
	query   string
	results []*search.Result
	err     error
}

type openedMsg struct {
	url string
}

type errorMsg struct {
	err error
}
