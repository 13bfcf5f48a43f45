package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/headlines/internal/config"
)

type keyMap struct {
	Quit     key.Binding
	Refresh  key.Binding
	Filters  key.Binding
	Open     key.Binding
	Bookmark key.Binding
	Saved    key.Binding
	Search   key.Binding
	Back     key.Binding
	Help     key.Binding
	Select   key.Binding
	Reset    key.Binding
}

func newKeyMap(b config.KeyBindings) keyMap {
	return keyMap{
		Quit:     binding(b.Quit, "q", "quit"),
		Refresh:  binding(b.Refresh, "r", "refresh"),
		Filters:  binding(b.Filters, "f", "filters"),
		Open:     binding(b.Open, "o", "open"),
		Bookmark: binding(b.Bookmark, "b", "save"),
		Saved:    binding(b.Saved, "s", "saved"),
		Search:   binding(b.Search, "/", "search"),
		Back:     binding(b.Back, "esc", "back"),
		Help:     binding(b.Help, "?", "help"),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "read")),
		Reset:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
	}
}

// binding accepts a comma separated key list from the config, falling back
// to def when it is empty.
func binding(keys, def, desc string) key.Binding {
	var list []string
	for _, k := range strings.Split(keys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			list = append(list, k)
		}
	}
	if len(list) == 0 {
		list = []string{def}
	}
	return key.NewBinding(key.WithKeys(list...), key.WithHelp(strings.Join(list, "/"), desc))
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Open, k.Bookmark, k.Filters, k.Refresh, k.Saved, k.Search, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Select, k.Open, k.Bookmark},
		{k.Filters, k.Refresh, k.Reset},
		{k.Saved, k.Search},
		{k.Back, k.Help, k.Quit},
	}
}

type KeyHandler struct {
	app  *App
	keys keyMap
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{
		app:  app,
		keys: newKeyMap(cfg.Keys.Bindings),
	}
}

// HandleKey routes a key press. Text fields get keys first, then our
// bindings, then the focused bubbles component.
func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return kh.app, kh.app.quit()
	}

	if kh.isTextInputMode() {
		return kh.handleTextInput(msg)
	}

	switch {
	case key.Matches(msg, kh.keys.Quit):
		return kh.app, kh.app.quit()
	case key.Matches(msg, kh.keys.Back):
		return kh.navigateBack()
	case key.Matches(msg, kh.keys.Help):
		return kh.toggleHelp()
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}
	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isTextInputMode() bool {
	switch kh.app.view {
	case ViewFilters:
		return true
	case ViewSearch:
		return kh.app.searchInput.Focused()
	}
	return false
}

func (kh *KeyHandler) handleTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	if key.Matches(msg, kh.keys.Back) {
		return kh.navigateBack()
	}

	switch a.view {
	case ViewFilters:
		switch msg.String() {
		case "enter":
			return a, a.applyFilters()
		case "tab", "down":
			return a, a.filters.next()
		case "shift+tab", "up":
			return a, a.filters.prev()
		}
		if key.Matches(msg, kh.keys.Reset) {
			return a, a.filters.load(a.resetFilters())
		}
		return a, a.filters.update(msg)

	case ViewSearch:
		switch msg.String() {
		case "enter", "tab", "down":
			if len(a.searchList.Items()) > 0 {
				a.searchInput.Blur()
			}
			return a, nil
		}
		before := a.searchInput.Value()
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		if q := a.searchInput.Value(); q != before {
			return a, tea.Batch(cmd, a.performSearch(q))
		}
		return a, cmd
	}
	return a, nil
}

func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch kh.app.view {
	case ViewFeed:
		return kh.handleFeedKeys(msg)
	case ViewReader:
		return kh.handleReaderKeys(msg)
	case ViewSaved:
		return kh.handleSavedKeys(msg)
	case ViewSearch:
		return kh.handleSearchResultKeys(msg)
	case ViewHelp:
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleFeedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.Refresh):
		return a, a.refresh(), true
	case key.Matches(msg, kh.keys.Filters):
		return a, a.openFilters(), true
	case key.Matches(msg, kh.keys.Saved):
		return a, a.showSaved(), true
	case key.Matches(msg, kh.keys.Search):
		return a, a.enterSearch(), true
	}

	article, ok := a.selectedArticle()
	if !ok {
		return a, nil, false
	}
	switch {
	case key.Matches(msg, kh.keys.Select):
		return a, a.openReader(article, ViewFeed), true
	case key.Matches(msg, kh.keys.Open):
		return a, a.openURL(article.URL), true
	case key.Matches(msg, kh.keys.Bookmark):
		return a, a.toggleBookmark(article), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleReaderKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	if a.currentArticle == nil {
		return a, nil, false
	}
	switch {
	case key.Matches(msg, kh.keys.Open):
		return a, a.openURL(a.currentArticle.URL), true
	case key.Matches(msg, kh.keys.Bookmark):
		return a, a.toggleBookmark(*a.currentArticle), true
	case key.Matches(msg, kh.keys.Saved):
		return a, a.showSaved(), true
	case key.Matches(msg, kh.keys.Search):
		return a, a.enterSearch(), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleSavedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.Search):
		return a, a.enterSearch(), true
	case key.Matches(msg, kh.keys.Refresh):
		return a, a.loadSaved(), true
	}

	item, ok := a.savedList.SelectedItem().(savedItem)
	if !ok {
		return a, nil, false
	}
	switch {
	case key.Matches(msg, kh.keys.Select):
		return a, a.openReader(item.saved.Article, ViewSaved), true
	case key.Matches(msg, kh.keys.Open):
		return a, a.openURL(item.saved.Article.URL), true
	case key.Matches(msg, kh.keys.Bookmark):
		return a, a.toggleBookmark(item.saved.Article), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleSearchResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch msg.String() {
	case "tab", "shift+tab":
		return a, a.searchInput.Focus(), true
	case "up":
		if a.searchList.Index() == 0 {
			return a, a.searchInput.Focus(), true
		}
	}
	if key.Matches(msg, kh.keys.Search) {
		return a, a.searchInput.Focus(), true
	}

	item, ok := a.searchList.SelectedItem().(searchItem)
	if !ok {
		return a, nil, false
	}
	article := item.result.Saved.Article
	switch {
	case key.Matches(msg, kh.keys.Select):
		return a, a.openReader(article, ViewSearch), true
	case key.Matches(msg, kh.keys.Open):
		return a, a.openURL(article.URL), true
	case key.Matches(msg, kh.keys.Bookmark):
		return a, a.toggleBookmark(article), true
	}
	return a, nil, false
}

// delegateToCharm lets the focused component handle navigation keys.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd

	switch a.view {
	case ViewFeed:
		a.feedList, cmd = a.feedList.Update(msg)
		return a, tea.Batch(cmd, a.maybeLoadMore())
	case ViewSaved:
		a.savedList, cmd = a.savedList.Update(msg)
		return a, cmd
	case ViewSearch:
		a.searchList, cmd = a.searchList.Update(msg)
		return a, cmd
	case ViewReader:
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (kh *KeyHandler) toggleHelp() (tea.Model, tea.Cmd) {
	a := kh.app
	if a.view == ViewHelp {
		a.view = a.previousView
		return a, nil
	}
	a.previousView = a.view
	a.view = ViewHelp
	return a, nil
}

// navigateBack leaves the current view. From the feed it quits.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewFilters:
		a.filters.err = nil
		a.view = ViewFeed
		return a, nil

	case ViewReader:
		a.view = a.readerReturn
		a.currentArticle = nil
		a.loadingArticle = false
		if a.view == ViewSearch {
			a.searchInput.Blur()
		}
		return a, nil

	case ViewSaved:
		a.view = ViewFeed
		return a, nil

	case ViewSearch:
		a.view = a.previousView
		if a.view == ViewSearch || a.view == ViewReader {
			a.view = ViewFeed
		}
		a.resetSearch()
		return a, nil

	case ViewHelp:
		a.view = a.previousView
		return a, nil

	default:
		return a, a.quit()
	}
}

// GetHelpForCurrentView returns the key hints shown in the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	k := kh.keys
	var bindings []key.Binding
	switch kh.app.view {
	case ViewFeed:
		bindings = []key.Binding{k.Open, k.Bookmark, k.Filters, k.Refresh, k.Saved, k.Search, k.Help}
	case ViewReader:
		bindings = []key.Binding{k.Open, k.Bookmark, k.Back}
	case ViewSaved:
		bindings = []key.Binding{k.Select, k.Open, k.Bookmark, k.Search, k.Back}
	case ViewSearch:
		if kh.app.searchInput.Focused() {
			return []string{"tab: results", k.Back.Help().Key + ": back"}
		}
		bindings = []key.Binding{k.Select, k.Open, k.Bookmark, k.Back}
	case ViewFilters:
		return []string{"enter: apply", k.Back.Help().Key + ": cancel"}
	case ViewHelp:
		bindings = []key.Binding{k.Back}
	}

	out := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, h.Key+": "+h.Desc)
	}
	return out
}
