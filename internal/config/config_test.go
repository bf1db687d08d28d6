package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ApplyConfig
		wantErr bool
	}{
		{name: "defaults", config: ApplyConfig{}, wantErr: false},
		{name: "valid knobs", config: ApplyConfig{Strip: 2, Fuzz: 3, Root: "/tmp"}, wantErr: false},
		{name: "negative strip", config: ApplyConfig{Strip: -1}, wantErr: true},
		{name: "negative fuzz", config: ApplyConfig{Fuzz: -2}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("apply:\n  strip: 1\n  fuzz: 2\nlogging:\n  level: debug\n"), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Apply.Strip)
		assert.Equal(t, 2, cfg.Apply.Fuzz)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "text", cfg.Logging.Format)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("apply:\n  strip: -3\n"), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestLoadTreeConfig(t *testing.T) {
	t.Run("not found returns sentinel", func(t *testing.T) {
		cfg, err := LoadTreeConfig(t.TempDir())
		assert.ErrorIs(t, err, ErrTreeConfigNotFound)
		assert.NotNil(t, cfg)
		assert.Nil(t, cfg.Strip)
	})

	t.Run("pinned strip and fuzz", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".patchwork.yml"), []byte("strip: 1\nfuzz: 2\n"), 0o644))
		cfg, err := LoadTreeConfig(dir)
		require.NoError(t, err)
		require.NotNil(t, cfg.Strip)
		assert.Equal(t, 1, *cfg.Strip)
		require.NotNil(t, cfg.Fuzz)
		assert.Equal(t, 2, *cfg.Fuzz)
	})

	t.Run("garbage yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".patchwork.yml"), []byte("strip: [oops\n"), 0o644))
		_, err := LoadTreeConfig(dir)
		assert.ErrorIs(t, err, ErrTreeConfigParsing)
	})

	t.Run("negative values rejected", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".patchwork.yml"), []byte("strip: -1\n"), 0o644))
		_, err := LoadTreeConfig(dir)
		assert.ErrorIs(t, err, ErrTreeConfigParsing)
	})
}
