package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalogEnv = []string{
	"CATALOG_CONFIG", "CATALOG_DB", "CATALOG_SOURCE", "CATALOG_LOG_MODE", "CATALOG_ADDR",
	"CATALOG_REQUEST_TIMEOUT", "CATALOG_CACHE_CHECK_INTERVAL", "CATALOG_DEFAULT_LIMIT",
	"CATALOG_MAX_LIMIT", "CATALOG_SEARCH_LIMIT", "CATALOG_STEM_LANGUAGE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range catalogEnv {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "botanical_library.db", cfg.DatabasePath)
	assert.Equal(t, "data.js", cfg.SourcePath)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, 100, cfg.Query.DefaultLimit)
	assert.Equal(t, 500, cfg.Query.MaxLimit)
	assert.Equal(t, 50, cfg.Search.Limit)
	assert.Equal(t, "english", cfg.Search.StemLanguage)
	assert.Equal(t, 5*time.Second, cfg.Server.CacheCheckInterval)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CATALOG_DB", "/tmp/plants.db")
	t.Setenv("CATALOG_MAX_LIMIT", "250")
	t.Setenv("CATALOG_REQUEST_TIMEOUT", "3")
	t.Setenv("CATALOG_CACHE_CHECK_INTERVAL", "1m")
	t.Setenv("CATALOG_STEM_LANGUAGE", "Spanish")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/plants.db", cfg.DatabasePath)
	assert.Equal(t, 250, cfg.Query.MaxLimit)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.Server.CacheCheckInterval)
	assert.Equal(t, "spanish", cfg.Search.StemLanguage)
}

func TestLoadIgnoresGarbledNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("CATALOG_DEFAULT_LIMIT", "lots")
	t.Setenv("CATALOG_SEARCH_LIMIT", "-4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Query.DefaultLimit)
	assert.Equal(t, 50, cfg.Search.Limit)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "catalog.yml")
	content := `
database: file.db
source: plants.json
server:
  addr: ":8080"
query:
  default_limit: 20
  max_limit: 40
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CATALOG_CONFIG", path)
	t.Setenv("CATALOG_SOURCE", "override.js")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file.db", cfg.DatabasePath)
	assert.Equal(t, "override.js", cfg.SourcePath)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 20, cfg.Query.DefaultLimit)
	assert.Equal(t, 40, cfg.Query.MaxLimit)
}

func TestLoadRejectsDefaultAboveMax(t *testing.T) {
	clearEnv(t)
	t.Setenv("CATALOG_DEFAULT_LIMIT", "600")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CATALOG_CONFIG", filepath.Join(t.TempDir(), "missing.yml"))

	_, err := Load()
	assert.Error(t, err)
}
