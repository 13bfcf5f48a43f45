// Package source fetches pages of news articles from a remote service.
package source

import (
	"context"

	"github.com/pders01/headlines/internal/news"
)

// ArticleSource returns one page of articles for a filter snapshot. Pages
// are numbered from 1. An empty slice with a nil error is a valid empty page.
type ArticleSource interface {
	FetchPage(ctx context.Context, filters news.FilterSet, page int) ([]news.Article, error)
}

// Func adapts an ordinary function to ArticleSource.
type Func func(ctx context.Context, filters news.FilterSet, page int) ([]news.Article, error)

func (f Func) FetchPage(ctx context.Context, filters news.FilterSet, page int) ([]news.Article, error) {
	return f(ctx, filters, page)
}
