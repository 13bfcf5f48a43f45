package news

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

type Publisher struct {
	Title string `json:"title"`
	Href  string `json:"href,omitempty"`
}

// Article is a single news item as returned by the article source.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Publisher   Publisher `json:"publisher"`
}

var publishedLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339,
	time.RFC3339Nano,
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// UnmarshalJSON accepts both the service's "published date" key and the
// "publishedAt" key this package writes. A date that cannot be parsed is
// left zero rather than failing the whole page.
func (a *Article) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title         string    `json:"title"`
		Description   string    `json:"description"`
		URL           string    `json:"url"`
		PublishedDate string    `json:"published date"`
		PublishedAt   string    `json:"publishedAt"`
		Publisher     Publisher `json:"publisher"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Article{
		Title:       raw.Title,
		Description: raw.Description,
		URL:         raw.URL,
		Publisher:   raw.Publisher,
	}

	date := raw.PublishedAt
	if date == "" {
		date = raw.PublishedDate
	}
	a.PublishedAt = parsePublished(date)
	return nil
}

func parsePublished(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Key identifies an article across pages and sessions.
func (a Article) Key() string {
	if a.URL != "" {
		return a.URL
	}
	return "title:" + a.Title
}

// Source returns the publisher title, falling back to the URL host.
func (a Article) Source() string {
	if a.Publisher.Title != "" {
		return a.Publisher.Title
	}
	if u, err := url.Parse(a.URL); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	return "Unknown source"
}
