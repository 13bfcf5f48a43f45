package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AppName   = "headlines"
	envPrefix = "HEADLINES"
)

type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Database DatabaseConfig `mapstructure:"database"`
	Feed     FeedConfig     `mapstructure:"feed"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

// SourceConfig selects and tunes the remote article source.
type SourceConfig struct {
	Kind         string        `mapstructure:"kind"`
	BaseURL      string        `mapstructure:"base_url"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	PageSize     int           `mapstructure:"page_size"`
	AllowPrivate bool          `mapstructure:"allow_private"`
	Language     string        `mapstructure:"language"`
	Country      string        `mapstructure:"country"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

// FeedConfig holds the start-up filters and scrolling behaviour.
type FeedConfig struct {
	ScrollThreshold int      `mapstructure:"scroll_threshold"`
	RestoreFilters  bool     `mapstructure:"restore_filters"`
	Keyword         string   `mapstructure:"keyword"`
	Topic           string   `mapstructure:"topic"`
	Location        string   `mapstructure:"location"`
	ExcludeWebsites []string `mapstructure:"exclude_websites"`
}

type UIConfig struct {
	Colors        UIColors      `mapstructure:"colors"`
	Article       ArticleConfig `mapstructure:"article"`
	DefaultOpener string        `mapstructure:"default_opener"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Surface   string `mapstructure:"surface"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type ArticleConfig struct {
	MaxDescriptionLength int `mapstructure:"max_description_length"`
	WordWrapMaxWidth     int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth     int `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit     string `mapstructure:"quit"`
	Refresh  string `mapstructure:"refresh"`
	Filters  string `mapstructure:"filters"`
	Open     string `mapstructure:"open"`
	Bookmark string `mapstructure:"bookmark"`
	Saved    string `mapstructure:"saved"`
	Search   string `mapstructure:"search"`
	Back     string `mapstructure:"back"`
	Help     string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

func defaultConfig() *Config {
	dataDir := filepath.Join(xdg.DataHome, AppName)

	return &Config{
		Source: SourceConfig{
			Kind:        "http",
			BaseURL:     "http://localhost:5000",
			HTTPTimeout: 15 * time.Second,
			UserAgent:   "headlines/1.0 (https://github.com/pders01/headlines)",
			PageSize:    10,
			Language:    "en",
			Country:     "US",
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(dataDir, "headlines.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "saved.bleve"),
		},
		Feed: FeedConfig{
			ScrollThreshold: 3,
			RestoreFilters:  true,
			ExcludeWebsites: []string{},
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Surface:   "#16213E",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
			Article: ArticleConfig{
				MaxDescriptionLength: 120,
				WordWrapMaxWidth:     100,
				WordWrapMinWidth:     40,
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Bindings: KeyBindings{
				Quit:     "q",
				Refresh:  "r",
				Filters:  "f",
				Open:     "o",
				Bookmark: "b",
				Saved:    "s",
				Search:   "/",
				Back:     "esc",
				Help:     "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			Path:  filepath.Join(xdg.StateHome, AppName, "headlines.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// DefaultPath is where Load looks for config.toml when no path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// flatten lists every leaf key so viper can bind it to the environment.
func flatten(cfg *Config) map[string]any {
	return map[string]any{
		"source.kind":          cfg.Source.Kind,
		"source.base_url":      cfg.Source.BaseURL,
		"source.http_timeout":  cfg.Source.HTTPTimeout,
		"source.user_agent":    cfg.Source.UserAgent,
		"source.page_size":     cfg.Source.PageSize,
		"source.allow_private": cfg.Source.AllowPrivate,
		"source.language":      cfg.Source.Language,
		"source.country":       cfg.Source.Country,

		"database.path":         cfg.Database.Path,
		"database.timeout":      cfg.Database.Timeout,
		"database.search_index": cfg.Database.SearchIndex,

		"feed.scroll_threshold": cfg.Feed.ScrollThreshold,
		"feed.restore_filters":  cfg.Feed.RestoreFilters,
		"feed.keyword":          cfg.Feed.Keyword,
		"feed.topic":            cfg.Feed.Topic,
		"feed.location":         cfg.Feed.Location,
		"feed.exclude_websites": cfg.Feed.ExcludeWebsites,

		"ui.colors.primary":                 cfg.UI.Colors.Primary,
		"ui.colors.secondary":               cfg.UI.Colors.Secondary,
		"ui.colors.accent":                  cfg.UI.Colors.Accent,
		"ui.colors.surface":                 cfg.UI.Colors.Surface,
		"ui.colors.text":                    cfg.UI.Colors.Text,
		"ui.colors.muted":                   cfg.UI.Colors.Muted,
		"ui.colors.error":                   cfg.UI.Colors.Error,
		"ui.colors.success":                 cfg.UI.Colors.Success,
		"ui.article.max_description_length": cfg.UI.Article.MaxDescriptionLength,
		"ui.article.word_wrap_max_width":    cfg.UI.Article.WordWrapMaxWidth,
		"ui.article.word_wrap_min_width":    cfg.UI.Article.WordWrapMinWidth,
		"ui.default_opener":                 cfg.UI.DefaultOpener,

		"keys.bindings.quit":     cfg.Keys.Bindings.Quit,
		"keys.bindings.refresh":  cfg.Keys.Bindings.Refresh,
		"keys.bindings.filters":  cfg.Keys.Bindings.Filters,
		"keys.bindings.open":     cfg.Keys.Bindings.Open,
		"keys.bindings.bookmark": cfg.Keys.Bindings.Bookmark,
		"keys.bindings.saved":    cfg.Keys.Bindings.Saved,
		"keys.bindings.search":   cfg.Keys.Bindings.Search,
		"keys.bindings.back":     cfg.Keys.Bindings.Back,
		"keys.bindings.help":     cfg.Keys.Bindings.Help,

		"log.level": cfg.Log.Level,
		"log.path":  cfg.Log.Path,
	}
}

// Load reads configuration from configPath, or from the default locations
// when configPath is empty. A .env file in the working directory and
// HEADLINES_* environment variables override file values.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	for key, value := range flatten(defaultConfig()) {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.Source.PageSize < 0 {
		return fmt.Errorf("source.page_size must not be negative")
	}
	if c.Source.HTTPTimeout <= 0 {
		return fmt.Errorf("source.http_timeout must be positive")
	}
	if c.Feed.ScrollThreshold < 0 {
		return fmt.Errorf("feed.scroll_threshold must not be negative")
	}
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	sourceCfg := map[string]any{
		"kind":          config.Source.Kind,
		"base_url":      config.Source.BaseURL,
		"http_timeout":  config.Source.HTTPTimeout.String(),
		"user_agent":    config.Source.UserAgent,
		"page_size":     config.Source.PageSize,
		"allow_private": config.Source.AllowPrivate,
		"language":      config.Source.Language,
		"country":       config.Source.Country,
	}

	dbCfg := map[string]any{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	feedCfg := map[string]any{
		"scroll_threshold": config.Feed.ScrollThreshold,
		"restore_filters":  config.Feed.RestoreFilters,
		"keyword":          config.Feed.Keyword,
		"topic":            config.Feed.Topic,
		"location":         config.Feed.Location,
		"exclude_websites": config.Feed.ExcludeWebsites,
	}
	if config.Feed.ExcludeWebsites == nil {
		feedCfg["exclude_websites"] = []string{}
	}

	c := config.UI.Colors
	uiCfg := map[string]any{
		"default_opener": config.UI.DefaultOpener,
		"colors": map[string]any{
			"primary":   c.Primary,
			"secondary": c.Secondary,
			"accent":    c.Accent,
			"surface":   c.Surface,
			"text":      c.Text,
			"muted":     c.Muted,
			"error":     c.Error,
			"success":   c.Success,
		},
		"article": map[string]any{
			"max_description_length": config.UI.Article.MaxDescriptionLength,
			"word_wrap_max_width":    config.UI.Article.WordWrapMaxWidth,
			"word_wrap_min_width":    config.UI.Article.WordWrapMinWidth,
		},
	}

	b := config.Keys.Bindings
	keysCfg := map[string]any{
		"bindings": map[string]any{
			"quit":     b.Quit,
			"refresh":  b.Refresh,
			"filters":  b.Filters,
			"open":     b.Open,
			"bookmark": b.Bookmark,
			"saved":    b.Saved,
			"search":   b.Search,
			"back":     b.Back,
			"help":     b.Help,
		},
	}

	v.Set("source", sourceCfg)
	v.Set("database", dbCfg)
	v.Set("feed", feedCfg)
	v.Set("ui", uiCfg)
	v.Set("keys", keysCfg)
	v.Set("log", map[string]any{"level": config.Log.Level, "path": config.Log.Path})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
