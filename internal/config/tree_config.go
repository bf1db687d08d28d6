package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrTreeConfigNotFound = errors.New("tree config file not found")
	ErrTreeConfigParsing  = errors.New("tree config parsing failed")
)

// TreeConfig pins apply defaults next to the tree being patched, so a
// project can record the strip level its patches are produced with.
// Nil fields mean "not set here".
type TreeConfig struct {
	Strip *int `yaml:"strip"`
	Fuzz  *int `yaml:"fuzz"`
}

// LoadTreeConfig loads and parses the .patchwork.yml file from the
// root directory patches are applied under.
func LoadTreeConfig(root string) (*TreeConfig, error) {
	if root == "" {
		root = "."
	}
	configPath := filepath.Join(root, ".patchwork.yml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &TreeConfig{}, ErrTreeConfigNotFound
		}
		return nil, fmt.Errorf("failed to read .patchwork.yml: %w", err)
	}

	cfg := &TreeConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTreeConfigParsing, err)
	}
	if cfg.Strip != nil && *cfg.Strip < 0 {
		return nil, fmt.Errorf("%w: strip must not be negative", ErrTreeConfigParsing)
	}
	if cfg.Fuzz != nil && *cfg.Fuzz < 0 {
		return nil, fmt.Errorf("%w: fuzz must not be negative", ErrTreeConfigParsing)
	}
	return cfg, nil
}
