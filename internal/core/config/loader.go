package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 15 * time.Second
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "file"
	}
	if cfg.Session.Path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Session.Path = filepath.Join(home, ".sitewatch", "session.json")
		} else {
			cfg.Session.Path = "session.json"
		}
	}
	if cfg.Monitor.PollInterval == 0 {
		cfg.Monitor.PollInterval = 10 * time.Second
	}
	if cfg.Monitor.PageLimit == 0 {
		cfg.Monitor.PageLimit = 100
	}
	if cfg.Monitor.MigrationsDir == "" {
		cfg.Monitor.MigrationsDir = "migrations"
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}

	return &cfg, nil
}
