package config

import "time"

// TestConfig returns a config suitable for testing: local source, short
// timeouts, logging off and no on-disk paths.
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		Source: SourceConfig{
			Kind:         "http",
			BaseURL:      "http://127.0.0.1:5000",
			HTTPTimeout:  2 * time.Second,
			UserAgent:    "headlines-test/1.0",
			PageSize:     10,
			AllowPrivate: true,
			Language:     "en",
			Country:      "US",
		},
		Database: DatabaseConfig{
			Timeout: 1 * time.Second,
		},
		Feed: FeedConfig{
			ScrollThreshold: 2,
		},
		UI:   def.UI,
		Keys: def.Keys,
		Log:  LogConfig{Level: "off"},
	}
}
