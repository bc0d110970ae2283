// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Judge   JudgeConfig   `toml:"judge"`
	Contest ContestConfig `toml:"contest"`
	Log     LogConfig     `toml:"log"`
}

// JudgeConfig maps remote judge client settings.
type JudgeConfig struct {
	BaseURL    *string `toml:"base-url"`
	TimeoutSec *int    `toml:"timeout"`
	Retries    *int    `toml:"retries"`
	BackoffMs  *int    `toml:"backoff-ms"`
}

// ContestConfig maps default contest parameters.
type ContestConfig struct {
	Duration   *int      `toml:"duration"`
	Problems   *int      `toml:"problems"`
	Type       *string   `toml:"type"`
	Difficulty *string   `toml:"difficulty"`
	Tags       *[]string `toml:"tags"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// LogLevel resolves the configured log level, defaulting to info.
func (c FileConfig) LogLevel() (slog.Level, error) {
	if c.Log.Level == nil {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(*c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", *c.Log.Level, err)
	}
	return level, nil
}
