package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/source"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/tui"
	"github.com/pders01/headlines/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	flagConfig   string
	flagDB       string
	flagSource   string
	flagKeyword  string
	flagTopic    string
	flagLocation string
	flagFrom     string
	flagTo       string
	flagExclude  string
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:           "headlines",
	Short:         "Terminal news reader",
	Long:          "headlines shows a scrollable, filterable feed of news articles from a news service.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to configuration file")
	pf.StringVar(&flagDB, "db", "", "path to database file (overrides config)")
	pf.StringVar(&flagSource, "source", "", "article source kind: http or googlenews (overrides config)")
	pf.StringVar(&flagKeyword, "keyword", "", "only show articles matching these words")
	pf.StringVar(&flagTopic, "topic", "", "topic: world, nation, business, technology, entertainment, sports, science, health")
	pf.StringVar(&flagLocation, "location", "", "only show articles about this place")
	pf.StringVar(&flagFrom, "from", "", "earliest publication date (YYYY-MM-DD)")
	pf.StringVar(&flagTo, "to", "", "latest publication date (YYYY-MM-DD)")
	pf.StringVar(&flagExclude, "exclude", "", "comma separated websites to leave out")
	rootCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "skip startup banner")

	rootCmd.AddCommand(versionCmd, configCmd, fetchCmd, savedCmd)
	configCmd.AddCommand(configGenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", config.AppName, Version)
		fmt.Println("Terminal news reader")
		fmt.Println("github.com/pders01/headlines")
	},
}

// loadConfig reads the configuration, applies flag overrides and starts
// the debug log.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagDB != "" {
		cfg.Database.Path = expandTilde(flagDB)
	}
	if flagSource != "" {
		cfg.Source.Kind = flagSource
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		return nil, fmt.Errorf("setting up log: %w", err)
	}
	return cfg, nil
}

func expandTilde(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}

// filterFlagsSet reports whether any filter flag was given on the command
// line.
func filterFlagsSet(cmd *cobra.Command) bool {
	for _, name := range []string{"keyword", "topic", "location", "from", "to", "exclude"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// flagFilters builds a filter set from the filter flags on top of base.
func flagFilters(cmd *cobra.Command, base news.FilterSet) (news.FilterSet, error) {
	fs := base.Clone()
	flags := cmd.Flags()
	if flags.Changed("keyword") {
		fs.Keyword = flagKeyword
	}
	if flags.Changed("topic") {
		topic, err := news.ParseTopic(flagTopic)
		if err != nil {
			return news.FilterSet{}, err
		}
		fs.Topic = topic
	}
	if flags.Changed("location") {
		fs.Location = flagLocation
	}
	if flags.Changed("from") {
		d, err := news.ParseDate(flagFrom)
		if err != nil {
			return news.FilterSet{}, fmt.Errorf("--from: %w", err)
		}
		fs.StartDate = d
	}
	if flags.Changed("to") {
		d, err := news.ParseDate(flagTo)
		if err != nil {
			return news.FilterSet{}, fmt.Errorf("--to: %w", err)
		}
		fs.EndDate = d
	}
	if flags.Changed("exclude") {
		sites, err := validation.NormalizeDomains(news.ParseExcludeWebsites(flagExclude))
		if err != nil {
			return news.FilterSet{}, fmt.Errorf("--exclude: %w", err)
		}
		fs.ExcludeWebsites = sites
	}
	fs = fs.Normalize()
	if err := fs.Validate(); err != nil {
		return news.FilterSet{}, err
	}
	return fs, nil
}

func newController(cfg *config.Config) (*feed.Controller, error) {
	src, err := source.New(cfg.Source)
	if err != nil {
		return nil, err
	}
	return feed.New(src, feed.WithPageSize(cfg.Source.PageSize)), nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	if !flagQuiet {
		tui.ShowBanner(Version)
	}

	ctrl, err := newController(cfg)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return err
	}
	defer store.Close()

	searcher := search.Open(store, cfg.Database.SearchIndex)
	if c, ok := searcher.(io.Closer); ok {
		defer c.Close()
	}

	tui.ApplyColors(cfg.UI.Colors)
	app := tui.NewApp(cfg, store, ctrl, searcher)
	if filterFlagsSet(cmd) {
		fs, err := flagFilters(cmd, tui.ConfigFilters(cfg.Feed))
		if err != nil {
			return err
		}
		app = app.WithFilters(fs)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
