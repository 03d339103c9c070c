package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:3456,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
		BaseURL string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:3456,description=Public base URL used in RSS links"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Feed struct {
		File string `yaml:"file" json:"file" jsonschema:"default=data/music-feed.json,description=Path to the feed JSON document"`
		API  string `yaml:"api" json:"api" jsonschema:"default=http://localhost:3456,description=Feed API base URL the CLI commands submit to"`
	} `yaml:"feed" json:"feed" jsonschema:"description=Feed storage and API configuration"`

	Extractor struct {
		Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=20s,description=Timeout per page or API request"`
		UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=User agent for page requests (defaults to a desktop browser)"`
	} `yaml:"extractor" json:"extractor" jsonschema:"description=Extractor configuration"`
}

// Load reads configuration from a YAML file. A missing path yields the
// defaults, the CLI works without a config file.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		// expand environment variables
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":3456"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:3456"
	}

	if c.Feed.File == "" {
		c.Feed.File = "data/music-feed.json"
	}
	if c.Feed.API == "" {
		c.Feed.API = "http://localhost:3456"
	}

	if c.Extractor.Timeout == 0 {
		c.Extractor.Timeout = 20 * time.Second
	}
}

// GetServerConfig returns listen address and timeout for the HTTP server
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetBaseURL returns the public base URL used in RSS links
func (c *Config) GetBaseURL() string {
	return c.Server.BaseURL
}
