package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed/rss"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/news"
)

// GoogleNewsURL is the public Google News RSS endpoint.
const GoogleNewsURL = "https://news.google.com/rss"

// GoogleNewsSource reads Google News RSS directly, without a news service in
// between. The feed has no paging, so pages are cut locally.
type GoogleNewsSource struct {
	client   *resty.Client
	language string
	country  string
	pageSize int
}

func NewGoogleNewsSource(cfg config.SourceConfig) *GoogleNewsSource {
	return newGoogleNewsSource(cfg, GoogleNewsURL)
}

func newGoogleNewsSource(cfg config.SourceConfig, feedURL string) *GoogleNewsSource {
	client := resty.New().
		SetBaseURL(strings.TrimRight(feedURL, "/")).
		SetTimeout(cfg.HTTPTimeout).
		SetHeader("Accept", "application/rss+xml, application/xml, text/xml").
		SetLogger(debuglog.Printer{})
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	lang := cfg.Language
	if lang == "" {
		lang = "en"
	}
	country := strings.ToUpper(cfg.Country)
	if country == "" {
		country = "US"
	}

	return &GoogleNewsSource{
		client:   client,
		language: lang,
		country:  country,
		pageSize: cfg.PageSize,
	}
}

func (s *GoogleNewsSource) FetchPage(ctx context.Context, filters news.FilterSet, page int) ([]news.Article, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be at least 1, got %d", page)
	}

	path, params := s.feedRequest(filters)
	debuglog.WithFields(map[string]any{"page": page, "path": path}).Debugf("fetching google news feed")

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, &NetworkError{Op: "GET", URL: s.client.BaseURL + path, Err: err}
	}
	if resp.IsError() {
		return nil, &InvalidResponseError{
			StatusCode: resp.StatusCode(),
			Reason:     fmt.Sprintf("unexpected status, body: %s", snippet(resp.Body())),
		}
	}

	feed, err := (&rss.Parser{}).Parse(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, &InvalidResponseError{StatusCode: resp.StatusCode(), Reason: "malformed RSS", Err: err}
	}

	var all []news.Article
	for _, item := range feed.Items {
		article := articleFromItem(item)
		if filters.Excludes(article.URL) || filters.Excludes(article.Publisher.Href) {
			continue
		}
		if !filters.InRange(article.PublishedAt) {
			continue
		}
		all = append(all, article)
	}

	return paginate(all, page, s.pageSize), nil
}

// feedRequest picks the feed the way the news service does: keyword search
// first, then topic, then location, then top stories.
func (s *GoogleNewsSource) feedRequest(filters news.FilterSet) (string, map[string]string) {
	params := map[string]string{
		"hl":   s.language + "-" + s.country,
		"gl":   s.country,
		"ceid": s.country + ":" + s.language,
	}

	switch {
	case filters.Keyword != "":
		params["q"] = searchQuery(filters)
		return "/search", params
	case filters.Topic != news.TopicAll:
		return "/headlines/section/topic/" + string(filters.Topic), params
	case filters.Location != "":
		return "/headlines/section/geo/" + url.PathEscape(filters.Location), params
	default:
		return "/", params
	}
}

func searchQuery(filters news.FilterSet) string {
	terms := []string{filters.Keyword}
	if filters.StartDate != nil {
		terms = append(terms, "after:"+filters.StartDate.Format(time.DateOnly))
	}
	if filters.EndDate != nil {
		terms = append(terms, "before:"+filters.EndDate.Format(time.DateOnly))
	}
	for _, site := range filters.ExcludeWebsites {
		terms = append(terms, "-site:"+site)
	}
	return strings.Join(terms, " ")
}

func articleFromItem(item *rss.Item) news.Article {
	rawTitle := strings.TrimSpace(item.Title)
	title := rawTitle
	publisher := news.Publisher{}
	if item.Source != nil {
		publisher.Title = strings.TrimSpace(item.Source.Title)
		publisher.Href = strings.TrimSpace(item.Source.URL)
	}

	// Titles arrive as "Headline - Publisher".
	if i := strings.LastIndex(title, " - "); i > 0 {
		suffix := strings.TrimSpace(title[i+3:])
		if publisher.Title == "" || strings.EqualFold(suffix, publisher.Title) {
			publisher.Title = suffix
			title = strings.TrimSpace(title[:i])
		}
	}

	description, fontPublisher := plainDescription(item.Description)
	if publisher.Title == "" {
		publisher.Title = fontPublisher
	}
	if description == title || description == rawTitle {
		description = ""
	}

	var published time.Time
	if item.PubDateParsed != nil {
		published = item.PubDateParsed.UTC()
	}

	return news.Article{
		Title:       title,
		Description: description,
		URL:         strings.TrimSpace(item.Link),
		PublishedAt: published,
		Publisher:   publisher,
	}
}

// plainDescription strips the HTML Google wraps around descriptions. The
// publisher name sits in a trailing <font> element and is returned apart.
func plainDescription(html string) (string, string) {
	if strings.TrimSpace(html) == "" {
		return "", ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html), ""
	}
	font := doc.Find("font").Last()
	publisher := collapseSpace(font.Text())
	font.Remove()
	return collapseSpace(doc.Text()), publisher
}

func collapseSpace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

func paginate(all []news.Article, page, size int) []news.Article {
	if size <= 0 {
		if page == 1 {
			return nonNil(all)
		}
		return []news.Article{}
	}
	start := (page - 1) * size
	if start >= len(all) {
		return []news.Article{}
	}
	end := min(start+size, len(all))
	return nonNil(all[start:end])
}

func nonNil(a []news.Article) []news.Article {
	if a == nil {
		return []news.Article{}
	}
	return a
}
