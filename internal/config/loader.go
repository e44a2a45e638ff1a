package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then the environment, then the keychain for a still-missing token.
// A .env file in the working directory is loaded first when present.
func Load(path string, tokens TokenSource) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if cfg.Token == "" && tokens != nil {
		if tok, err := tokens.Token(); err == nil {
			cfg.Token = tok
		}
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	expanded, err := expandEnv(raw)
	if err != nil {
		return fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw YAML bytes.
// Variables with neither a value nor a default are reported together.
func expandEnv(raw []byte) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if len(subs) > 2 && subs[2] != nil {
			return subs[2]
		}
		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return result, errors.Join(errs...)
}
