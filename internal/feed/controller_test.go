package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/source"
)

func makeArticles(prefix string, n int) []news.Article {
	out := make([]news.Article, n)
	for i := range out {
		out[i] = news.Article{
			Title: fmt.Sprintf("%s %d", prefix, i+1),
			URL:   fmt.Sprintf("https://%s.example/%d", prefix, i+1),
		}
	}
	return out
}

// pagedSource serves scripted pages keyed by topic and page number.
type pagedSource struct {
	pages map[string][]news.Article
	errs  map[string]error
	calls []string
}

func newPagedSource() *pagedSource {
	return &pagedSource{pages: map[string][]news.Article{}, errs: map[string]error{}}
}

func pageKey(topic news.Topic, page int) string {
	return fmt.Sprintf("%s/%d", topic, page)
}

func (s *pagedSource) set(topic news.Topic, page int, articles []news.Article) {
	s.pages[pageKey(topic, page)] = articles
}

func (s *pagedSource) fail(topic news.Topic, page int, err error) {
	s.errs[pageKey(topic, page)] = err
}

func (s *pagedSource) FetchPage(_ context.Context, f news.FilterSet, page int) ([]news.Article, error) {
	key := pageKey(f.Topic, page)
	s.calls = append(s.calls, key)
	if err := s.errs[key]; err != nil {
		return nil, err
	}
	return s.pages[key], nil
}

// recorder counts completion calls.
type recorder struct {
	calls int
	errs  []error
}

func (r *recorder) done(err error) {
	r.calls++
	r.errs = append(r.errs, err)
}

func (r *recorder) last() error {
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func TestScenarios(t *testing.T) {
	src := newPagedSource()
	tech := makeArticles("tech", 10)
	tech2 := makeArticles("tech-p2", 5)
	sports := makeArticles("sports", 3)
	src.set(news.TopicTechnology, 1, tech)
	src.set(news.TopicTechnology, 2, tech2)
	src.set(news.TopicSports, 1, sports)

	c := New(src)
	ctx := context.Background()

	// A: page 1 for TECHNOLOGY
	var a recorder
	req, ok := c.ApplyFilters(news.FilterSet{Topic: news.TopicTechnology}, a.done)
	require.True(t, ok)
	assert.True(t, c.State().IsLoading)
	require.NoError(t, c.Do(ctx, req, ok))
	assert.Equal(t, tech, c.CurrentArticles())
	assert.Equal(t, 1, a.calls)
	assert.False(t, c.State().Exhausted)

	// B: load more appends page 2
	var b recorder
	req, ok = c.LoadMore(b.done)
	require.True(t, ok)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, ModeAppend, req.Mode)
	assert.True(t, c.State().LoadingMore)
	require.NoError(t, c.Do(ctx, req, ok))
	got := c.CurrentArticles()
	require.Len(t, got, 15)
	assert.Equal(t, tech, got[:10])
	assert.Equal(t, tech2, got[10:])
	assert.Equal(t, 2, c.State().Page)
	assert.True(t, c.State().Exhausted, "a short page ends the feed")

	// C: switching topic replaces and resets to page 1
	var cc recorder
	req, ok = c.ApplyFilters(news.FilterSet{Topic: news.TopicSports}, cc.done)
	require.True(t, ok)
	assert.Empty(t, c.CurrentArticles(), "the old list is dropped on filter change")
	require.NoError(t, c.Do(ctx, req, ok))
	assert.Equal(t, sports, c.CurrentArticles())
	assert.Equal(t, 1, c.State().Page)
	assert.Equal(t, 1, cc.calls)
}

func TestScenarioD_LoadMoreNetworkFailure(t *testing.T) {
	src := newPagedSource()
	src.set(news.TopicAll, 1, makeArticles("top", 10))
	netErr := &source.NetworkError{Op: "GET", URL: "http://x/news", Err: errors.New("connection refused")}
	src.fail(news.TopicAll, 2, netErr)

	c := New(src)
	ctx := context.Background()
	req, ok := c.Start(news.FilterSet{}, nil)
	require.NoError(t, c.Do(ctx, req, ok))
	before := c.CurrentArticles()

	var d recorder
	req, ok = c.LoadMore(d.done)
	require.True(t, ok)
	err := c.Do(ctx, req, ok)

	var failed *FetchFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 2, failed.Page)
	assert.Equal(t, ModeAppend, failed.Mode)
	assert.True(t, source.IsNetworkError(err))

	st := c.State()
	assert.Equal(t, before, st.Articles)
	assert.False(t, st.IsLoading)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, netErr, st.Err)
	assert.Equal(t, 1, d.calls)
	assert.ErrorAs(t, d.last(), &failed)

	// resolving the same result again must not fire the completion twice
	assert.ErrorIs(t, c.Resolve(Result{Request: req, Err: netErr}), ErrStale)
	assert.Equal(t, 1, d.calls)

	// the failed page can be retried
	src.fail(news.TopicAll, 2, nil)
	src.set(news.TopicAll, 2, makeArticles("top-p2", 4))
	req, ok = c.LoadMore(nil)
	require.True(t, ok)
	assert.Equal(t, 2, req.Page)
	require.NoError(t, c.Do(ctx, req, ok))
	assert.Len(t, c.CurrentArticles(), 14)
	assert.NoError(t, c.State().Err)
}

func TestReplaceSemantics(t *testing.T) {
	src := newPagedSource()
	src.set(news.TopicWorld, 1, makeArticles("world", 10))
	src.set(news.TopicWorld, 2, makeArticles("world-p2", 10))
	src.set(news.TopicHealth, 1, makeArticles("health", 7))

	c := New(src)
	require.NoError(t, c.Do(run(c.ApplyFilters(news.FilterSet{Topic: news.TopicWorld}, nil))))
	require.NoError(t, c.Do(run(c.LoadMore(nil))))
	require.Len(t, c.CurrentArticles(), 20)

	require.NoError(t, c.Do(run(c.ApplyFilters(news.FilterSet{Topic: news.TopicHealth}, nil))))
	assert.Equal(t, makeArticles("health", 7), c.CurrentArticles())
}

func run(req Request, ok bool) (context.Context, Request, bool) {
	return context.Background(), req, ok
}

func TestAppendSemantics(t *testing.T) {
	src := newPagedSource()
	var want []news.Article
	for p := 1; p <= 4; p++ {
		page := makeArticles(fmt.Sprintf("p%d", p), 10)
		src.set(news.TopicAll, p, page)
		want = append(want, page...)
	}

	c := New(src)
	require.NoError(t, c.Do(run(c.Start(news.FilterSet{}, nil))))
	for range 3 {
		require.NoError(t, c.Do(run(c.LoadMore(nil))))
	}
	assert.Equal(t, want, c.CurrentArticles())
	assert.Equal(t, 4, c.State().Page)
}

func TestStaleLoadMoreDiscardedAfterFilterChange(t *testing.T) {
	c := New(newPagedSource())

	req, _ := c.ApplyFilters(news.FilterSet{Topic: news.TopicBusiness}, nil)
	require.NoError(t, c.Resolve(Result{Request: req, Articles: makeArticles("f1", 10)}))

	var late recorder
	more, ok := c.LoadMore(late.done)
	require.True(t, ok)

	var fresh recorder
	next, ok := c.ApplyFilters(news.FilterSet{Topic: news.TopicScience}, fresh.done)
	require.True(t, ok)
	assert.Greater(t, next.Epoch, more.Epoch)

	// F2 answers first, then F1's late page arrives
	require.NoError(t, c.Resolve(Result{Request: next, Articles: makeArticles("f2", 10)}))
	assert.ErrorIs(t, c.Resolve(Result{Request: more, Articles: makeArticles("f1-late", 10)}), ErrStale)

	assert.Equal(t, makeArticles("f2", 10), c.CurrentArticles())
	assert.Equal(t, 1, late.calls)
	assert.ErrorIs(t, late.last(), ErrStale)
	assert.Equal(t, 1, fresh.calls)
	assert.NoError(t, fresh.last())
}

func TestStaleResultBeforeCurrent(t *testing.T) {
	c := New(newPagedSource())

	old, _ := c.ApplyFilters(news.FilterSet{Keyword: "a"}, nil)
	cur, _ := c.ApplyFilters(news.FilterSet{Keyword: "b"}, nil)

	// the old answer arrives while the current one is still running
	assert.ErrorIs(t, c.Resolve(Result{Request: old, Articles: makeArticles("a", 3)}), ErrStale)
	st := c.State()
	assert.True(t, st.IsLoading)
	assert.True(t, st.IsEmpty)

	require.NoError(t, c.Resolve(Result{Request: cur, Articles: makeArticles("b", 3)}))
	assert.Equal(t, makeArticles("b", 3), c.CurrentArticles())
}

func TestRefreshTwiceLastResponseWins(t *testing.T) {
	c := New(newPagedSource())
	start, _ := c.Start(news.FilterSet{}, nil)
	require.NoError(t, c.Resolve(Result{Request: start, Articles: makeArticles("v0", 10)}))

	var r1, r2 recorder
	older, ok := c.Refresh(r1.done)
	require.True(t, ok)
	second, ok := c.Refresh(r2.done)
	require.True(t, ok)

	assert.Equal(t, makeArticles("v0", 10), c.CurrentArticles(), "refresh keeps the list visible")

	require.NoError(t, c.Resolve(Result{Request: second, Articles: makeArticles("v2", 10)}))
	assert.ErrorIs(t, c.Resolve(Result{Request: older, Articles: makeArticles("v1", 10)}), ErrStale)

	assert.Equal(t, makeArticles("v2", 10), c.CurrentArticles())
	assert.Equal(t, 1, r1.calls)
	assert.Equal(t, 1, r2.calls)
	assert.False(t, c.State().IsLoading)
}

func TestRefreshSupersedesRunningLoadMore(t *testing.T) {
	c := New(newPagedSource())
	start, _ := c.Start(news.FilterSet{}, nil)
	require.NoError(t, c.Resolve(Result{Request: start, Articles: makeArticles("v0", 10)}))

	var lm, rf recorder
	more, ok := c.LoadMore(lm.done)
	require.True(t, ok)
	refresh, ok := c.Refresh(rf.done)
	require.True(t, ok, "refresh is not blocked by a running load-more")
	assert.Greater(t, refresh.Epoch, more.Epoch)

	// the abandoned page 2 lands first
	assert.ErrorIs(t, c.Resolve(Result{Request: more, Articles: makeArticles("v0-p2", 10)}), ErrStale)
	st := c.State()
	assert.Len(t, st.Articles, 10)
	assert.True(t, st.IsLoading, "the refresh is still running")
	assert.Equal(t, 1, lm.calls)
	assert.ErrorIs(t, lm.last(), ErrStale)
	assert.Equal(t, 0, rf.calls)

	require.NoError(t, c.Resolve(Result{Request: refresh, Articles: makeArticles("v1", 10)}))
	st = c.State()
	assert.Equal(t, makeArticles("v1", 10), st.Articles)
	assert.Equal(t, 1, st.Page)
	assert.False(t, st.IsLoading)
	assert.Equal(t, 1, lm.calls)
	assert.Equal(t, 1, rf.calls)
	assert.NoError(t, rf.last())

	// an empty next page is accepted and ends the feed
	next, ok := c.LoadMore(nil)
	require.True(t, ok)
	require.NoError(t, c.Resolve(Result{Request: next, Articles: []news.Article{}}))
	st = c.State()
	assert.Equal(t, 2, st.Page)
	assert.True(t, st.Exhausted)
	assert.Len(t, st.Articles, 10)
}

func TestReapplyingFiltersRetriesAfterFailure(t *testing.T) {
	c := New(newPagedSource())
	f := news.FilterSet{Topic: news.TopicHealth}
	req, ok := c.ApplyFilters(f, nil)
	require.True(t, ok)
	require.Error(t, c.Resolve(Result{Request: req, Err: errors.New("boom")}))

	retry, ok := c.ApplyFilters(f, nil)
	require.True(t, ok, "no page has loaded for these filters yet")
	assert.Equal(t, 1, retry.Page)
	assert.Greater(t, retry.Epoch, req.Epoch)
	require.NoError(t, c.Resolve(Result{Request: retry, Articles: makeArticles("h", 4)}))
	assert.Len(t, c.CurrentArticles(), 4)

	_, ok = c.ApplyFilters(f, nil)
	assert.False(t, ok, "once loaded, equal filters are a no-op")
}

func TestRefreshFailureKeepsList(t *testing.T) {
	c := New(newPagedSource())
	start, _ := c.Start(news.FilterSet{}, nil)
	require.NoError(t, c.Resolve(Result{Request: start, Articles: makeArticles("v0", 10)}))
	more, _ := c.LoadMore(nil)
	require.NoError(t, c.Resolve(Result{Request: more, Articles: makeArticles("v0-p2", 10)}))

	req, _ := c.Refresh(nil)
	err := c.Resolve(Result{Request: req, Err: errors.New("timeout")})
	var failed *FetchFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, ModeReplace, failed.Mode)

	st := c.State()
	assert.Len(t, st.Articles, 20)
	assert.Equal(t, 2, st.Page)
	assert.Error(t, st.Err)
}

func TestApplyFiltersFailureClearsList(t *testing.T) {
	c := New(newPagedSource())
	start, _ := c.Start(news.FilterSet{}, nil)
	require.NoError(t, c.Resolve(Result{Request: start, Articles: makeArticles("v0", 10)}))

	req, _ := c.ApplyFilters(news.FilterSet{Location: "Berlin"}, nil)
	require.Error(t, c.Resolve(Result{Request: req, Err: errors.New("boom")}))

	st := c.State()
	assert.True(t, st.IsEmpty)
	assert.False(t, st.IsLoading)

	var r recorder
	_, ok := c.LoadMore(r.done)
	assert.False(t, ok)
	assert.ErrorIs(t, r.last(), ErrNotReady)
}

func TestApplyFiltersUnchangedIsNoop(t *testing.T) {
	c := New(newPagedSource())
	f := news.FilterSet{Topic: news.TopicNation, ExcludeWebsites: []string{"cnn.com"}}
	req, _ := c.ApplyFilters(f, nil)
	require.NoError(t, c.Resolve(Result{Request: req, Articles: makeArticles("n", 10)}))
	epoch := c.Epoch()

	var r recorder
	_, ok := c.ApplyFilters(news.FilterSet{Topic: news.TopicNation, ExcludeWebsites: []string{"cnn.com"}}, r.done)
	assert.False(t, ok)
	assert.Equal(t, epoch, c.Epoch())
	assert.Equal(t, 1, r.calls)
	assert.NoError(t, r.last())
	assert.Len(t, c.CurrentArticles(), 10)
}

func TestApplyFiltersBeforeStartIssues(t *testing.T) {
	c := New(newPagedSource())
	req, ok := c.ApplyFilters(news.FilterSet{}, nil)
	assert.True(t, ok, "the first call always fetches, even with empty filters")
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, uint64(1), req.Epoch)
}

func TestLoadMoreRefusals(t *testing.T) {
	c := New(newPagedSource(), WithPageSize(10))

	var r recorder
	_, ok := c.LoadMore(r.done)
	assert.False(t, ok)
	assert.ErrorIs(t, r.last(), ErrNotReady)

	start, _ := c.Start(news.FilterSet{}, nil)
	_, ok = c.LoadMore(r.done)
	assert.False(t, ok)
	assert.ErrorIs(t, r.last(), ErrBusy)

	require.NoError(t, c.Resolve(Result{Request: start, Articles: makeArticles("x", 4)}))
	_, ok = c.LoadMore(r.done)
	assert.False(t, ok)
	assert.ErrorIs(t, r.last(), ErrExhausted)
	assert.Equal(t, 3, r.calls)

	// refresh re-evaluates the end of the feed
	req, _ := c.Refresh(nil)
	require.NoError(t, c.Resolve(Result{Request: req, Articles: makeArticles("x", 10)}))
	_, ok = c.LoadMore(nil)
	assert.True(t, ok)
}

func TestPageSizeZeroNeverExhausts(t *testing.T) {
	c := New(newPagedSource(), WithPageSize(0))
	start, _ := c.Start(news.FilterSet{}, nil)
	require.NoError(t, c.Resolve(Result{Request: start, Articles: nil}))
	assert.False(t, c.State().Exhausted)
	assert.True(t, c.State().IsEmpty)
	_, ok := c.LoadMore(nil)
	assert.True(t, ok)
}

func TestSnapshotsAreImmutable(t *testing.T) {
	c := New(newPagedSource())
	f := news.FilterSet{ExcludeWebsites: []string{"a.com"}}
	req, _ := c.Start(f, nil)
	f.ExcludeWebsites[0] = "mutated.com"
	assert.Equal(t, []string{"a.com"}, req.Filters.ExcludeWebsites)
	assert.Equal(t, []string{"a.com"}, c.Filters().ExcludeWebsites)

	require.NoError(t, c.Resolve(Result{Request: req, Articles: makeArticles("s", 2)}))
	snap := c.CurrentArticles()
	snap[0].Title = "changed"
	assert.Equal(t, "s 1", c.CurrentArticles()[0].Title)
}

func TestZeroRequestIsIgnored(t *testing.T) {
	c := New(newPagedSource())
	assert.ErrorIs(t, c.Resolve(Result{Articles: makeArticles("z", 1)}), ErrStale)
	assert.True(t, c.State().IsEmpty)
}

func TestDoWithoutRequest(t *testing.T) {
	c := New(newPagedSource())
	assert.NoError(t, c.Do(context.Background(), Request{}, false))
}

func TestFetchCarriesFilterSnapshot(t *testing.T) {
	src := newPagedSource()
	src.set(news.TopicEntertainment, 1, makeArticles("e", 1))
	c := New(src)

	req, ok := c.ApplyFilters(news.FilterSet{Topic: news.TopicEntertainment}, nil)
	require.True(t, ok)
	res := c.Fetch(context.Background(), req)
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"ENTERTAINMENT/1"}, src.calls)
	assert.Len(t, res.Articles, 1)
}
