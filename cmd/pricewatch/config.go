package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/pricewatch/extract"
	"github.com/hazyhaar/pricewatch/updater"
)

// appConfig is the pricewatch.yaml layout.
type appConfig struct {
	// DBPath is the SQLite database location. Default: db/pricewatch.db.
	DBPath string `yaml:"db_path"`

	// DBBusyTimeoutMS overrides PRAGMA busy_timeout in milliseconds when
	// positive. Zero keeps the dbopen default.
	DBBusyTimeoutMS int `yaml:"db_busy_timeout_ms"`

	// RemoteBrowser is the WebSocket URL of an external Chrome. Empty
	// launches a local headless Chrome.
	RemoteBrowser string `yaml:"remote_browser"`

	// StartPage is the neutral page loaded after browser creation.
	StartPage string `yaml:"start_page"`

	UserAgent string `yaml:"user_agent"`

	Extract extract.Config `yaml:"extract"`
	Updater updater.Config `yaml:"updater"`
}

func (c *appConfig) defaults() {
	if c.DBPath == "" {
		c.DBPath = "db/pricewatch.db"
	}
}

func loadConfig(path string) (*appConfig, error) {
	cfg := &appConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.defaults()
	return cfg, nil
}
