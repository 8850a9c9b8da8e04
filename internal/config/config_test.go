package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8787", cfg.APIURL)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "zh_CN", cfg.Locale)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Zero(t, cfg.TaxonomyTTL)
	assert.Equal(t, "auto", cfg.Format)
	assert.NotNil(t, cfg.Sources)
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	testConfig := map[string]any{
		"api_url":         "https://api.example.com",
		"site_url":        "https://blog.example.com",
		"listen":          ":9000",
		"locale":          "en_US",
		"cache_ttl":       "90s",
		"taxonomy_ttl":    "1h",
		"highlight_style": "monokai",
		"format":          "json",
	}
	data, err := json.Marshal(testConfig)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0644))

	cfg := Default()
	loadFromFile(cfg, configPath, SourceGlobal)

	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "https://blog.example.com", cfg.SiteURL)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "en_US", cfg.Locale)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, time.Hour, cfg.TaxonomyTTL)
	assert.Equal(t, "monokai", cfg.HighlightStyle)
	assert.Equal(t, "json", cfg.Format)

	assert.Equal(t, "global", cfg.Sources["api_url"])
	assert.Equal(t, "global", cfg.Source("cache_ttl"))
	assert.Equal(t, "default", cfg.Source("log_file"))
}

func TestLoadFromFileSkipsInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte("not valid json"), 0644))

	cfg := Default()
	loadFromFile(cfg, configPath, SourceGlobal)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
}

func TestLoadFromFileKeepsDefaultOnBadDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"cache_ttl":"soon","taxonomy_ttl":"-1m"}`), 0644))

	cfg := Default()
	loadFromFile(cfg, configPath, SourceLocal)

	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Zero(t, cfg.TaxonomyTTL)
	assert.Empty(t, cfg.Sources["cache_ttl"])
}

func TestLoadFromFileSkipsMissingFile(t *testing.T) {
	cfg := Default()
	loadFromFile(cfg, "/nonexistent/path/config.json", SourceGlobal)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CFBLOG_API_URL", "https://env.example.com/")
	t.Setenv("CFBLOG_SITE_URL", "https://site.example.com")
	t.Setenv("CFBLOG_CACHE_TTL", "2m")
	t.Setenv("CFBLOG_LOG_FORMAT", "JSON")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.Equal(t, "https://env.example.com/", cfg.APIURL)
	assert.Equal(t, "https://site.example.com", cfg.SiteURL)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "env", cfg.Sources["api_url"])
}

func TestLoadPrecedence(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("CFBLOG_API_URL", "")
	t.Setenv("CFBLOG_SITE_URL", "https://env.example.com")

	globalDir := filepath.Join(tmp, "cfblog")
	require.NoError(t, os.MkdirAll(globalDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.json"),
		[]byte(`{"api_url":"https://global.example.com/","site_url":"https://global-site.example.com"}`), 0600))

	cfg, err := Load(FlagOverrides{Listen: ":7000"})
	require.NoError(t, err)

	assert.Equal(t, "https://global.example.com", cfg.APIURL, "trailing slash is normalized")
	assert.Equal(t, "https://env.example.com", cfg.SiteURL, "env beats file")
	assert.Equal(t, ":7000", cfg.Listen, "flag beats everything")
	assert.Equal(t, "flag", cfg.Sources["listen"])
}

func TestApplyOverridesIgnoresEmpty(t *testing.T) {
	cfg := Default()
	ApplyOverrides(cfg, FlagOverrides{})

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Empty(t, cfg.Sources)
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8787", NormalizeBaseURL("http://localhost:8787/"))
	assert.Equal(t, "http://localhost:8787", NormalizeBaseURL(" http://localhost:8787// "))
	assert.Equal(t, "", NormalizeBaseURL(""))
}

func TestNormalizeBaseURLAddsScheme(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://api.example.com", "https://api.example.com"},
		{"api.example.com", "https://api.example.com"},
		{"api.example.com:8443/", "https://api.example.com:8443"},
		{"localhost", "http://localhost"},
		{"localhost:8787", "http://localhost:8787"},
		{"blog.localhost:8080", "http://blog.localhost:8080"},
		{"127.0.0.1:8787", "http://127.0.0.1:8787"},
		{"[::1]:8787", "http://[::1]:8787"},
		{"[::1]", "http://[::1]"},
		{"localhost.example.com", "https://localhost.example.com"},
		{"localhost:8787/wp", "http://localhost:8787/wp"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeBaseURL(tt.input))
		})
	}
}
