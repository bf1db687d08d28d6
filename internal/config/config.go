// Package config loads patchwork's configuration: the application
// config resolved through Viper and the optional per-tree
// .patchwork.yml pinned next to the files being patched.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/sevigo/patchwork/internal/logger"
)

// Config represents the top-level configuration structure.
type Config struct {
	Apply   ApplyConfig   `mapstructure:"apply"`
	Logging logger.Config `mapstructure:"logging"`
}

// ApplyConfig holds the default apply knobs; command-line flags
// override every field.
type ApplyConfig struct {
	Strip         int    `mapstructure:"strip"`
	Fuzz          int    `mapstructure:"fuzz"`
	Root          string `mapstructure:"root"`
	AllowAbsolute bool   `mapstructure:"allow_absolute"`
}

// Validate rejects option values the apply engine cannot honor.
func (c *ApplyConfig) Validate() error {
	if c.Strip < 0 {
		return errors.New("apply.strip must not be negative")
	}
	if c.Fuzz < 0 {
		return errors.New("apply.fuzz must not be negative")
	}
	return nil
}

// LoadConfig loads the configuration using Viper with the hierarchy:
// Flags (handled by caller) > Env Vars > Config File > Defaults.
// An explicit path pins the config file; otherwise config.yaml is
// searched in the working directory and $HOME/.patchwork.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.patchwork")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment variables")
	}

	v.SetEnvPrefix("patchwork")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Apply.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("apply.strip", 0)
	v.SetDefault("apply.fuzz", 0)
	v.SetDefault("apply.root", "")
	v.SetDefault("apply.allow_absolute", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}
