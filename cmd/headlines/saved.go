package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

var (
	flagSavedFormat string
	flagSavedQuery  string
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List saved articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer debuglog.Close()

		store, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
		if err != nil {
			return err
		}
		defer store.Close()

		var articles []news.Article
		if flagSavedQuery != "" {
			articles, err = searchSaved(store, cfg.Database.SearchIndex, flagSavedQuery)
		} else {
			articles, err = listSaved(store)
		}
		if err != nil {
			return err
		}
		return writeArticles(cmd.OutOrStdout(), articles, flagSavedFormat)
	},
}

func init() {
	savedCmd.Flags().StringVarP(&flagSavedFormat, "format", "o", "table", "output format: table, json or yaml")
	savedCmd.Flags().StringVarP(&flagSavedQuery, "query", "q", "", "only list saved articles matching this search")
}

func listSaved(store *storage.Store) ([]news.Article, error) {
	saved, err := store.SavedArticles()
	if err != nil {
		return nil, fmt.Errorf("loading saved articles: %w", err)
	}
	out := make([]news.Article, len(saved))
	for i, s := range saved {
		out[i] = s.Article
	}
	return out, nil
}

func searchSaved(store *storage.Store, indexPath, query string) ([]news.Article, error) {
	searcher := search.Open(store, indexPath)
	if be, ok := searcher.(*search.BleveEngine); ok {
		defer be.Close()
	}
	results, err := searcher.Search(query, 100)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]news.Article, len(results))
	for i, r := range results {
		out[i] = r.Saved.Article
	}
	return out, nil
}
