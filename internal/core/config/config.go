package config

import (
	"time"

	"github.com/vietddude/sitewatch/internal/infra/api"
	"github.com/vietddude/sitewatch/internal/infra/session"
	"github.com/vietddude/sitewatch/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	API      api.Config      `yaml:"api"`
	Session  SessionConfig   `yaml:"session"`
	Monitor  MonitorConfig   `yaml:"monitor"`
	Logging  LoggingConfig   `yaml:"logging"`
	Database postgres.Config `yaml:"database"`
}

// ServerConfig holds health/metrics HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SessionConfig selects where the session record is persisted.
type SessionConfig struct {
	Backend string              `yaml:"backend"` // "file" (default) or "redis"
	Path    string              `yaml:"path"`    // file backend
	Redis   session.RedisConfig `yaml:"redis"`   // redis backend
}

// MonitorConfig holds alert polling settings.
type MonitorConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	PageLimit       int           `yaml:"page_limit"`
	RetentionPeriod time.Duration `yaml:"retention_period"` // 0 = keep forever
	Sites           []string      `yaml:"sites"`            // empty = all sites visible to the user
	MigrationsDir   string        `yaml:"migrations_dir"`
}
