// Package feed holds the paginated, filterable article feed: which page is
// loaded, which filters produced it, and which fetch is allowed to change it.
package feed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/source"
)

// DefaultPageSize matches the number of results the news service returns
// per page.
const DefaultPageSize = 10

var (
	ErrBusy      = errors.New("a fetch is already in progress")
	ErrExhausted = errors.New("no more articles")
	ErrNotReady  = errors.New("no page loaded yet")
	ErrStale     = errors.New("result superseded by a newer request")
)

// Mode says how a fetched page is folded into the article list.
type Mode int

const (
	ModeReplace Mode = iota
	ModeAppend
)

func (m Mode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "replace"
}

// FetchFailedError is passed to a completion when the source could not
// deliver a page.
type FetchFailedError struct {
	Page int
	Mode Mode
	Err  error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch failed (page %d, %s): %v", e.Page, e.Mode, e.Err)
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

// Completion is told once how the request it was attached to settled:
// nil, ErrStale, ErrBusy, ErrExhausted, ErrNotReady or a *FetchFailedError.
type Completion func(err error)

type completion struct {
	once sync.Once
	fn   Completion
}

func (c *completion) fire(err error) {
	if c == nil {
		return
	}
	c.once.Do(func() {
		if c.fn != nil {
			c.fn(err)
		}
	})
}

// Request is a fetch the controller wants performed. It carries the epoch
// and filter snapshot it was issued under so a late answer can be told
// apart from the current one.
type Request struct {
	ID      uint64
	Epoch   uint64
	Page    int
	Mode    Mode
	Filters news.FilterSet

	done *completion
}

// Result is a performed Request.
type Result struct {
	Request  Request
	Articles []news.Article
	Err      error
}

// State is a read-only snapshot for rendering.
type State struct {
	Articles    []news.Article
	IsLoading   bool
	LoadingMore bool
	IsEmpty     bool
	Page        int
	Exhausted   bool
	Epoch       uint64
	Filters     news.FilterSet
	Err         error
}

type Option func(*Controller)

// WithPageSize sets the page length used to detect the end of the feed. A
// page shorter than n marks the feed exhausted; 0 disables detection.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.pageSize = n
		}
	}
}

// Controller owns the article list. Issue methods return a Request for the
// caller to run with Fetch; the result goes back through Resolve. Only the
// newest request of the current epoch may change the list.
type Controller struct {
	src      source.ArticleSource
	pageSize int

	mu        sync.Mutex
	started   bool
	epoch     uint64
	nextID    uint64
	inflight  uint64
	mode      Mode
	filters   news.FilterSet
	page      int
	loaded    bool
	exhausted bool
	articles  []news.Article
	lastErr   error
}

func New(src source.ArticleSource, opts ...Option) *Controller {
	c := &Controller{
		src:      src,
		pageSize: DefaultPageSize,
		page:     1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start loads page 1 for filters. It always issues, even when filters are
// unchanged, and discards whatever is shown.
func (c *Controller) Start(filters news.FilterSet, done Completion) (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetLocked(filters.Clone(), true, done), true
}

// ApplyFilters switches to a new filter set. Filters equal to the active
// set are a no-op once a page for them has loaded; done is called with nil.
// Until then, applying them again retries page 1.
func (c *Controller) ApplyFilters(filters news.FilterSet, done Completion) (Request, bool) {
	c.mu.Lock()
	if c.started && c.loaded && filters.Equal(c.filters) {
		c.mu.Unlock()
		debuglog.Debugf("feed: filters unchanged, nothing to fetch")
		(&completion{fn: done}).fire(nil)
		return Request{}, false
	}
	defer c.mu.Unlock()
	return c.resetLocked(filters.Clone(), true, done), true
}

// Refresh reloads page 1 with the active filters. The current list stays
// visible until the new page arrives.
func (c *Controller) Refresh(done Completion) (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetLocked(c.filters, !c.started, done), true
}

// LoadMore asks for the page after the last loaded one. It refuses while a
// fetch is running, before any page has loaded and once the feed is
// exhausted; done then gets ErrBusy, ErrNotReady or ErrExhausted.
func (c *Controller) LoadMore(done Completion) (Request, bool) {
	c.mu.Lock()
	var refuse error
	switch {
	case c.inflight != 0:
		refuse = ErrBusy
	case !c.loaded:
		refuse = ErrNotReady
	case c.exhausted:
		refuse = ErrExhausted
	}
	if refuse != nil {
		c.mu.Unlock()
		(&completion{fn: done}).fire(refuse)
		return Request{}, false
	}
	defer c.mu.Unlock()

	req := c.issueLocked(c.page+1, ModeAppend, done)
	return req, true
}

// resetLocked opens a new epoch and issues a page 1 replace. With clear
// set, the previous list is dropped at once.
func (c *Controller) resetLocked(filters news.FilterSet, clear bool, done Completion) Request {
	c.started = true
	c.epoch++
	c.filters = filters
	c.lastErr = nil
	if clear {
		c.articles = nil
		c.page = 1
		c.loaded = false
		c.exhausted = false
	}
	return c.issueLocked(1, ModeReplace, done)
}

func (c *Controller) issueLocked(page int, mode Mode, done Completion) Request {
	c.nextID++
	c.inflight = c.nextID
	c.mode = mode

	req := Request{
		ID:      c.nextID,
		Epoch:   c.epoch,
		Page:    page,
		Mode:    mode,
		Filters: c.filters.Clone(),
		done:    &completion{fn: done},
	}
	if debuglog.Enabled(debuglog.LevelDebug) {
		requestLog(req).Debugf("feed: issued request (%s)", req.Filters.Describe())
	}
	return req
}

func requestLog(req Request) *debuglog.FieldLogger {
	return debuglog.WithFields(map[string]any{
		"id":    req.ID,
		"epoch": req.Epoch,
		"page":  req.Page,
		"mode":  req.Mode.String(),
	})
}

// Fetch performs req against the source. It touches no controller state and
// may run on any goroutine.
func (c *Controller) Fetch(ctx context.Context, req Request) Result {
	articles, err := c.src.FetchPage(ctx, req.Filters, req.Page)
	return Result{Request: req, Articles: articles, Err: err}
}

// Resolve folds a result into the feed and settles its completion. It
// returns the error handed to the completion.
func (c *Controller) Resolve(res Result) error {
	req := res.Request

	c.mu.Lock()
	if req.ID == 0 || req.Epoch != c.epoch || req.ID != c.inflight {
		current := c.epoch
		c.mu.Unlock()
		if debuglog.Enabled(debuglog.LevelDebug) {
			requestLog(req).Debugf("feed: discarded stale result (current epoch %d)", current)
		}
		req.done.fire(ErrStale)
		return ErrStale
	}

	c.inflight = 0
	var outcome error
	if res.Err != nil {
		c.lastErr = res.Err
		outcome = &FetchFailedError{Page: req.Page, Mode: req.Mode, Err: res.Err}
		if debuglog.Enabled(debuglog.LevelWarn) {
			requestLog(req).Warnf("feed: %v", outcome)
		}
	} else {
		switch req.Mode {
		case ModeAppend:
			c.articles = append(slices.Clip(c.articles), res.Articles...)
		default:
			c.articles = slices.Clone(res.Articles)
		}
		c.page = req.Page
		c.loaded = true
		c.exhausted = c.pageSize > 0 && len(res.Articles) < c.pageSize
		c.lastErr = nil
		if debuglog.Enabled(debuglog.LevelDebug) {
			requestLog(req).Debugf("feed: applied %d articles (total %d, exhausted %t)", len(res.Articles), len(c.articles), c.exhausted)
		}
	}
	c.mu.Unlock()

	req.done.fire(outcome)
	return outcome
}

// Do runs req to completion on the calling goroutine. ok is the second
// result of the issue method; when it is false Do does nothing.
func (c *Controller) Do(ctx context.Context, req Request, ok bool) error {
	if !ok {
		return nil
	}
	return c.Resolve(c.Fetch(ctx, req))
}

// CurrentArticles returns a copy of the visible list.
func (c *Controller) CurrentArticles() []news.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.articles)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	loading := c.inflight != 0
	return State{
		Articles:    slices.Clone(c.articles),
		IsLoading:   loading,
		LoadingMore: loading && c.mode == ModeAppend,
		IsEmpty:     len(c.articles) == 0,
		Page:        c.page,
		Exhausted:   c.exhausted,
		Epoch:       c.epoch,
		Filters:     c.filters.Clone(),
		Err:         c.lastErr,
	}
}

func (c *Controller) Filters() news.FilterSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.Clone()
}

func (c *Controller) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}
