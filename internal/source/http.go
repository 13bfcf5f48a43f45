package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/validation"
)

const newsPath = "/news"

// HTTPSource reads article pages from the news service's GET /news endpoint.
type HTTPSource struct {
	client  *resty.Client
	baseURL string
}

func NewHTTPSource(cfg config.SourceConfig) (*HTTPSource, error) {
	validator := validation.NewSourceURLValidator()
	if cfg.AllowPrivate {
		validator = validation.NewPermissiveURLValidator()
	}
	baseURL, err := validator.ValidateAndNormalize(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("source base URL: %w", err)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.HTTPTimeout).
		SetHeader("Accept", "application/json").
		SetLogger(debuglog.Printer{})
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &HTTPSource{client: client, baseURL: baseURL}, nil
}

// BaseURL returns the normalized service address.
func (s *HTTPSource) BaseURL() string { return s.baseURL }

func (s *HTTPSource) FetchPage(ctx context.Context, filters news.FilterSet, page int) ([]news.Article, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be at least 1, got %d", page)
	}

	params := filters.Query()
	params.Set("page", strconv.Itoa(page))

	log := debuglog.WithFields(map[string]any{"page": page, "filters": filters.Describe()})
	log.Debugf("GET %s%s", s.baseURL, newsPath)

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(newsPath)
	if err != nil {
		return nil, &NetworkError{Op: "GET", URL: s.baseURL + newsPath, Err: err}
	}

	body := resp.Body()
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &InvalidResponseError{
			StatusCode: resp.StatusCode(),
			Reason:     fmt.Sprintf("unexpected status, body: %s", snippet(body)),
		}
	}

	articles, err := decodeArticles(body)
	if err != nil {
		return nil, &InvalidResponseError{StatusCode: resp.StatusCode(), Reason: "malformed article list", Err: err}
	}
	log.Debugf("received %d articles", len(articles))
	return articles, nil
}

func decodeArticles(body []byte) ([]news.Article, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array, got %s", snippet(body))
	}
	var articles []news.Article
	if err := json.Unmarshal(body, &articles); err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []news.Article{}
	}
	return articles, nil
}
