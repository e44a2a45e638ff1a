// Package config loads bot settings from an optional YAML file, a .env file,
// the process environment and, for the token, the OS keychain.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	DefaultPort         = 5000
	DefaultRegistryFile = "channels_data.json"
	DefaultLogLevel     = "info"
)

type Config struct {
	Token        string  `yaml:"token"`
	Port         int     `yaml:"port"`
	RegistryFile string  `yaml:"registry_file"`
	StatsDSN     string  `yaml:"stats_sqlite_dsn"`
	AdminIDs     []int64 `yaml:"admin_chat_ids"`
	LogLevel     string  `yaml:"log_level"`
}

var (
	ErrMissingToken = errors.New("config: telegram bot token is not set")
	ErrInvalidPort  = errors.New("config: port out of range")
)

func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		RegistryFile: DefaultRegistryFile,
		LogLevel:     DefaultLogLevel,
	}
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv() error {
	if v := firstEnv("TELEGRAM_BOT_TOKEN", "BOT_TOKEN"); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: PORT %q: %w", v, err)
		}
		c.Port = p
	}
	if v := strings.TrimSpace(os.Getenv("REGISTRY_FILE")); v != "" {
		c.RegistryFile = v
	}
	if v := strings.TrimSpace(os.Getenv("STATS_SQLITE_DSN")); v != "" {
		c.StatsDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if ids := ParseAdminIDs(os.Getenv("ADMIN_CHAT_IDS")); len(ids) > 0 {
		c.AdminIDs = ids
	}
	return nil
}

// ParseAdminIDs reads a comma separated id list, skipping malformed parts.
func ParseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *Config) AdminSet() map[int64]struct{} {
	set := make(map[int64]struct{}, len(c.AdminIDs))
	for _, id := range c.AdminIDs {
		set[id] = struct{}{}
	}
	return set
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Validate(c *Config) error {
	var errs []error
	if strings.TrimSpace(c.Token) == "" {
		errs = append(errs, ErrMissingToken)
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidPort, c.Port))
	}
	return errors.Join(errs...)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
