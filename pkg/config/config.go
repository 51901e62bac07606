// Package config loads the YAML configuration enumerating enabled
// platforms, games and categories, plus HTTP and delivery tuning.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	HTTP struct {
		Timeout       time.Duration `yaml:"timeout"`
		UserAgent     string        `yaml:"user_agent"`
		RetryAttempts int           `yaml:"retry_attempts"`
		RetryDelay    time.Duration `yaml:"retry_delay"`
		RetryMaxDelay time.Duration `yaml:"retry_max_delay"`
	} `yaml:"http"`

	Run struct {
		MaxWorkers   int           `yaml:"max_workers"`
		Timeout      time.Duration `yaml:"timeout"`
		SendPacing   time.Duration `yaml:"send_pacing"`
		CategorySize int           `yaml:"category_size"`
	} `yaml:"run"`

	State struct {
		Path string `yaml:"path"`
	} `yaml:"state"`

	Delivery struct {
		WebhookURL string        `yaml:"webhook_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"delivery"`

	Platforms struct {
		Hoyolab struct {
			Games map[string]HoyolabGame `yaml:"games"`
		} `yaml:"hoyolab"`
		Gryphline struct {
			Games map[string]GryphlineGame `yaml:"games"`
		} `yaml:"gryphline"`
		Shadowverse struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"shadowverse"`
		RSS struct {
			Feeds []RSSFeed `yaml:"feeds"`
		} `yaml:"rss"`
	} `yaml:"platforms"`

	Colors map[string]int `yaml:"colors"`
}

// HoyolabGame configures one HoYoLAB game
type HoyolabGame struct {
	GIDs       int      `yaml:"gids"`
	Categories []string `yaml:"categories"`
}

// GryphlineGame configures one Gryphline game
type GryphlineGame struct {
	Tabs []string `yaml:"tabs"`
}

// RSSFeed configures one plain RSS/Atom feed
type RSSFeed struct {
	Game string `yaml:"game"`
	URL  string `yaml:"url"`
}

var validCategories = map[string]struct{}{
	"notices": {}, "events": {}, "info": {}, "news": {},
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// set defaults for http
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 30 * time.Second
	}
	if cfg.HTTP.RetryAttempts == 0 {
		cfg.HTTP.RetryAttempts = 3
	}
	if cfg.HTTP.RetryDelay == 0 {
		cfg.HTTP.RetryDelay = 500 * time.Millisecond
	}
	if cfg.HTTP.RetryMaxDelay == 0 {
		cfg.HTTP.RetryMaxDelay = 5 * time.Second
	}

	// set defaults for run
	if cfg.Run.MaxWorkers == 0 {
		cfg.Run.MaxWorkers = 4
	}
	if cfg.Run.Timeout == 0 {
		cfg.Run.Timeout = 10 * time.Minute
	}
	if cfg.Run.SendPacing == 0 {
		cfg.Run.SendPacing = 1500 * time.Millisecond
	}
	if cfg.Run.CategorySize == 0 {
		cfg.Run.CategorySize = 5
	}

	// set defaults for state and delivery
	if cfg.State.Path == "" {
		cfg.State.Path = "news_state.json"
	}
	if cfg.Delivery.Timeout == 0 {
		cfg.Delivery.Timeout = 30 * time.Second
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.HTTP.Timeout < time.Second {
		return fmt.Errorf("http.timeout must be at least 1 second")
	}
	if cfg.Run.MaxWorkers < 1 {
		return fmt.Errorf("run.max_workers must be at least 1")
	}
	if cfg.Run.CategorySize < 1 {
		return fmt.Errorf("run.category_size must be at least 1")
	}

	for game, gc := range cfg.Platforms.Hoyolab.Games {
		if gc.GIDs == 0 {
			return fmt.Errorf("platforms.hoyolab.games.%s: gids is required", game)
		}
		if len(gc.Categories) == 0 {
			return fmt.Errorf("platforms.hoyolab.games.%s: at least one category is required", game)
		}
		for _, cat := range gc.Categories {
			if _, ok := validCategories[cat]; !ok {
				return fmt.Errorf("platforms.hoyolab.games.%s: unknown category %q", game, cat)
			}
		}
	}

	for game, gc := range cfg.Platforms.Gryphline.Games {
		if len(gc.Tabs) == 0 {
			return fmt.Errorf("platforms.gryphline.games.%s: at least one tab is required", game)
		}
		for _, tab := range gc.Tabs {
			if _, ok := validCategories[tab]; !ok {
				return fmt.Errorf("platforms.gryphline.games.%s: unknown tab %q", game, tab)
			}
		}
	}

	for i, feed := range cfg.Platforms.RSS.Feeds {
		if feed.Game == "" {
			return fmt.Errorf("platforms.rss.feeds[%d]: game is required", i)
		}
		if feed.URL == "" {
			return fmt.Errorf("platforms.rss.feeds[%d]: url is required", i)
		}
	}

	return nil
}
