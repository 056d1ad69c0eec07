package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "dbgmeta.yaml", []byte(`
log:
  level: debug
database:
  path: db/app.dd64
  compress: false
arguments:
  allow_overlap: true
`), 0o644))

	cfg, err := Load(fs, "dbgmeta.yaml")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "logfmt", cfg.Log.Format)
	assert.Equal(t, "db/app.dd64", cfg.Database.Path)
	assert.False(t, cfg.Database.Compress)
	assert.True(t, cfg.Arguments.AllowOverlap)
	assert.False(t, cfg.Functions.AllowOverlap)
	assert.Equal(t, 128, cfg.Symbols.CacheSize)
}

func TestLoadInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte(`
log:
  level: loud
  format: xml
symbols:
  cache_size: 0
`), 0o644))
	_, err := Load(fs, "bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "symbols.cache_size")

	_, err = Load(fs, "missing.yaml")
	assert.Error(t, err)
	require.NoError(t, afero.WriteFile(fs, "broken.yaml", []byte("log: ["), 0o644))
	_, err = Load(fs, "broken.yaml")
	assert.Error(t, err)
}
