package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/tui"
)

var (
	flagPages  int
	flagFormat string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Print headlines without starting the UI",
	Long: `Load the feed the same way the UI does: page 1 for the filters, then one
load-more per extra page, stopping early at the end of the feed.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().IntVarP(&flagPages, "pages", "n", 1, "number of pages to load")
	fetchCmd.Flags().StringVarP(&flagFormat, "format", "o", "table", "output format: table, json or yaml")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if flagPages < 1 {
		return fmt.Errorf("--pages must be at least 1")
	}
	switch flagFormat {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q", flagFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	fs, err := flagFilters(cmd, tui.ConfigFilters(cfg.Feed))
	if err != nil {
		return err
	}
	ctrl, err := newController(cfg)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	articles, err := loadPages(ctx, ctrl, fs, flagPages)
	if err != nil {
		return err
	}
	return writeArticles(cmd.OutOrStdout(), articles, flagFormat)
}

// loadPages drives ctrl through the first page and up to pages-1 more.
func loadPages(ctx context.Context, ctrl *feed.Controller, fs news.FilterSet, pages int) ([]news.Article, error) {
	req, ok := ctrl.Start(fs, nil)
	if err := ctrl.Do(ctx, req, ok); err != nil {
		return nil, err
	}
	for i := 1; i < pages; i++ {
		if ctrl.State().Exhausted {
			break
		}
		req, ok := ctrl.LoadMore(nil)
		if err := ctrl.Do(ctx, req, ok); err != nil {
			var failed *feed.FetchFailedError
			if errors.As(err, &failed) && len(ctrl.CurrentArticles()) > 0 {
				debuglog.Warnf("fetch: stopping after page %d: %v", ctrl.State().Page, err)
				break
			}
			return nil, err
		}
	}
	return ctrl.CurrentArticles(), nil
}

func writeArticles(w io.Writer, articles []news.Article, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(yamlArticles(articles))
	default:
		_, err := fmt.Fprintln(w, articleTable(articles))
		return err
	}
}

type yamlArticle struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	URL         string `yaml:"url"`
	PublishedAt string `yaml:"published_at,omitempty"`
	Publisher   string `yaml:"publisher"`
}

func yamlArticles(articles []news.Article) []yamlArticle {
	out := make([]yamlArticle, len(articles))
	for i, a := range articles {
		out[i] = yamlArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Publisher:   a.Source(),
		}
		if !a.PublishedAt.IsZero() {
			out[i].PublishedAt = a.PublishedAt.UTC().Format(time.RFC3339)
		}
	}
	return out
}

func articleTable(articles []news.Article) string {
	if len(articles) == 0 {
		return tui.HelpStyle.Render(tui.MsgNoArticles)
	}
	header := lipgloss.NewStyle().Foreground(tui.SecondaryColor).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(tui.MutedColor)).
		Headers("#", "PUBLISHED", "SOURCE", "TITLE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header.Padding(0, 1)
			}
			return cell
		})
	for i, a := range articles {
		published := "-"
		if !a.PublishedAt.IsZero() {
			published = a.PublishedAt.Local().Format("2006-01-02 15:04")
		}
		t.Row(fmt.Sprint(i+1), published, clip(a.Source(), 24), clip(a.Title, 72))
	}
	return t.Render()
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
