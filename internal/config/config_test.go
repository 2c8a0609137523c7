package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, 60*time.Second, cfg.Version.Interval)
	require.Len(t, cfg.Version.Endpoints, 3)
	require.Equal(t, "pt-BR", cfg.UI.DefaultLocale)
	require.Equal(t, 10, cfg.Operators.PageSize)
	require.Equal(t, 10*time.Second, cfg.Version.Timeout)
	require.Equal(t, 15*time.Second, cfg.Operators.Timeout)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[version]
endpoints = ["https://app.example.com/version.json"]
interval = "30s"

[operators]
base_url = "https://api.example.com"
page_size = 25
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("PLANWIZARD_UI_DEFAULT_LOCALE", "en-US")
	t.Setenv("PLANWIZARD_OPERATORS_TIMEOUT", "3s")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"https://app.example.com/version.json"}, cfg.Version.Endpoints)
	require.Equal(t, 30*time.Second, cfg.Version.Interval)
	require.Equal(t, "https://api.example.com", cfg.Operators.BaseURL)
	require.Equal(t, 25, cfg.Operators.PageSize)
	require.Equal(t, "en-US", cfg.UI.DefaultLocale)
	require.Equal(t, 3*time.Second, cfg.Operators.Timeout)
	require.Equal(t, 10*time.Second, cfg.Version.Timeout)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[version\ninterval = "), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Version.Interval = 2 * time.Minute
	cfg.Operators.Catalog = "/tmp/catalog.yaml"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2*time.Minute, got.Version.Interval)
	require.Equal(t, "/tmp/catalog.yaml", got.Operators.Catalog)
	require.Equal(t, cfg.Version.Endpoints, got.Version.Endpoints)
}
