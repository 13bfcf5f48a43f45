package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/browser"
	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

// chromeHeight is the separator plus the status line.
const chromeHeight = 2

type App struct {
	config     *config.Config
	store      *storage.Store
	ctrl       *feed.Controller
	searcher   search.Searcher
	launcher   *browser.Launcher
	keyHandler *KeyHandler

	ctx    context.Context
	cancel context.CancelFunc

	feedList    list.Model
	savedList   list.Model
	searchList  list.Model
	searchInput textinput.Model
	filters     *filterPanel
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model

	view           View
	previousView   View
	readerReturn   View
	currentArticle *news.Article
	startFilters   news.FilterSet
	readKeys       map[string]bool

	width      int
	height     int
	err        error
	status     string
	statusKind StatusKind
	spinning   bool

	loadingArticle  bool
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

// NewApp wires the feed controller, bookmark store and search engine into
// the terminal UI. The feed opens with StartupFilters unless WithFilters
// says otherwise.
func NewApp(cfg *config.Config, store *storage.Store, ctrl *feed.Controller, searcher search.Searcher) *App {
	feedList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	feedList.Title = "› top stories"
	feedList.SetShowStatusBar(false)
	feedList.SetFilteringEnabled(false)
	feedList.SetShowHelp(false)

	savedList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	savedList.Title = "› saved"
	savedList.SetShowStatusBar(false)
	savedList.SetFilteringEnabled(false)
	savedList.SetShowHelp(false)

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› results"
	searchList.SetShowStatusBar(false)
	searchList.SetFilteringEnabled(false)
	searchList.SetShowHelp(false)

	si := textinput.New()
	si.Placeholder = "Search saved articles..."
	si.CharLimit = 256

	h := help.New()
	h.ShowAll = true

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	readKeys, err := store.ReadKeys()
	if err != nil {
		debuglog.Warnf("tui: loading read marks: %v", err)
		readKeys = map[string]bool{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		config:       cfg,
		store:        store,
		ctrl:         ctrl,
		searcher:     searcher,
		launcher:     browser.NewLauncher(cfg),
		ctx:          ctx,
		cancel:       cancel,
		feedList:     feedList,
		savedList:    savedList,
		searchList:   searchList,
		searchInput:  si,
		filters:      newFilterPanel(),
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		help:         h,
		view:         ViewFeed,
		previousView: ViewFeed,
		readerReturn: ViewFeed,
		startFilters: StartupFilters(cfg, store),
		readKeys:     readKeys,
	}
	app.keyHandler = NewKeyHandler(app, cfg)
	return app
}

// WithFilters replaces the filters the feed opens with.
func (a *App) WithFilters(fs news.FilterSet) *App {
	a.startFilters = fs.Clone()
	return a
}

// WithLauncher replaces the browser launcher.
func (a *App) WithLauncher(l *browser.Launcher) *App {
	a.launcher = l
	return a
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Article.WordWrapMaxWidth
	minWidth := a.config.UI.Article.WordWrapMinWidth
	wordWrapWidth := (a.width * 9) / 10
	if maxWidth > 0 && wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width > 0 && a.width < minWidth+10 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) setStatus(msg string, kind StatusKind) {
	a.status = msg
	a.statusKind = kind
}

// startSpinner shows msg and starts the spinner unless it is already
// ticking.
func (a *App) startSpinner(msg string) tea.Cmd {
	a.setStatus(msg, StatusInfo)
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a *App) busy() bool {
	return a.loadingArticle || a.ctrl.State().IsLoading
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.start(), tea.EnterAltScreen)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if !a.busy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case fetchResultMsg:
		return a, a.handleFetchResult(msg.res)

	case articleRenderedMsg:
		if a.view == ViewReader && a.currentArticle != nil && a.currentArticle.Key() == msg.key {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
			a.setStatus("", StatusInfo)
		}

	case articleReadMsg:
		a.readKeys[msg.key] = true
		a.syncFeed(false)

	case bookmarkToggledMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.setStatus(MsgBookmark(msg.saved, msg.article.Title), StatusSuccess)
		a.syncFeed(false)
		if a.view == ViewSaved {
			return a, a.loadSaved()
		}

	case savedLoadedMsg:
		if msg.err != nil {
			a.err = wrapErr("loading saved articles", msg.err)
			return a, nil
		}
		items := make([]list.Item, len(msg.saved))
		for i, s := range msg.saved {
			items[i] = savedItem{saved: s}
		}
		a.savedList.SetItems(items)
		a.savedList.Title = fmt.Sprintf("› saved (%d)", len(items))

	case searchResultsMsg:
		if a.view != ViewSearch || msg.query != a.searchInput.Value() {
			return a, nil
		}
		if msg.err != nil {
			a.err = wrapErr("search", msg.err)
			return a, nil
		}
		items := make([]list.Item, len(msg.results))
		for i, r := range msg.results {
			items[i] = searchItem{result: r}
		}
		a.searchList.SetItems(items)
		a.searchList.ResetSelected()
		if len(items) == 0 {
			a.setStatus(MsgNoResults, StatusWarn)
		} else {
			a.setStatus(MsgResultsCount(len(items)), StatusInfo)
		}

	case openedMsg:
		a.setStatus(MsgOpened, StatusSuccess)

	case errorMsg:
		a.err = msg.err
	}

	return a, nil
}

// handleFetchResult resolves a finished request. Stale results are dropped
// without touching the screen.
func (a *App) handleFetchResult(res feed.Result) tea.Cmd {
	err := a.ctrl.Resolve(res)
	switch {
	case errors.Is(err, feed.ErrStale):
		return nil
	case err != nil:
		a.err = err
		a.setStatus("", StatusInfo)
	default:
		a.err = nil
		a.syncFeed(res.Request.Mode == feed.ModeReplace)
		st := a.ctrl.State()
		a.setStatus(MsgFeedSummary(len(st.Articles), st.Page, st.Exhausted), StatusInfo)
	}
	return nil
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	body := max(height-chromeHeight, 1)

	a.feedList.SetSize(width, body)
	a.savedList.SetSize(width, body)
	// search box, hint and spacing sit above the results
	a.searchList.SetSize(width, max(body-5, 3))
	a.searchInput.Width = max(width-8, 10)
	a.filters.setWidth(max(width-20, 10))
	a.viewport.Width = width
	a.viewport.Height = body
	a.help.Width = width
}

func (a *App) View() string {
	body := max(a.height-chromeHeight, 1)
	var content string

	switch a.view {
	case ViewFeed:
		content = a.feedView(body)
	case ViewFilters:
		content = lipgloss.NewStyle().Padding(1, 2).Render(a.filters.view(a.width - 4))
	case ViewReader:
		if a.loadingArticle {
			content = renderCentered(a.width, body, renderMuted(a.spinner.View()+" "+MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}
	case ViewSaved:
		if len(a.savedList.Items()) == 0 {
			content = renderCentered(a.width, body, GetCompactBanner(MsgNoSaved))
		} else {
			content = a.savedList.View()
		}
	case ViewSearch:
		content = a.searchView()
	case ViewHelp:
		content = lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(
			lipgloss.Left,
			renderHeader("› keys", CompactLogo, a.width),
			"",
			a.help.View(a.keyHandler.keys),
		))
	}

	content = lipgloss.NewStyle().MaxHeight(body).Render(content)
	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width-1, 0)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) feedView(height int) string {
	st := a.ctrl.State()
	if !st.IsEmpty {
		return a.feedList.View()
	}
	switch {
	case st.IsLoading:
		return renderCentered(a.width, height, GetCompactBanner(a.spinner.View()+" "+MsgLoading))
	case st.Err != nil:
		return renderCentered(a.width, height, GetCompactBanner(fetchFailureMessage(st.Err)))
	default:
		return renderCentered(a.width, height, GetCompactBanner(MsgNoArticles))
	}
}

func (a *App) searchView() string {
	hint := "Type to search saved articles • tab: results • esc: back"
	if !a.searchInput.Focused() {
		if len(a.searchList.Items()) > 0 {
			hint = "↑↓: navigate • enter: read • tab: search box • esc: back"
		} else {
			hint = MsgNoResults + " • tab: search box • esc: back"
		}
	}
	return lipgloss.JoinVertical(
		lipgloss.Top,
		renderHeader("› search saved", "", a.width),
		renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width),
		renderMuted(hint),
		"",
		a.searchList.View(),
	)
}

func (a *App) statusBar() string {
	if a.err != nil {
		return StatusBarStyle.Width(a.width).Render(ErrorMessageStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}

	var parts []string
	if a.status != "" {
		status := statusStyle(a.statusKind).Render(a.status)
		if a.spinning && a.busy() {
			status = a.spinner.View() + " " + status
		}
		parts = append(parts, status)
	}
	parts = append(parts, a.keyHandler.GetHelpForCurrentView()...)
	return StatusBarStyle.Width(a.width).Render(strings.Join(parts, " • "))
}
