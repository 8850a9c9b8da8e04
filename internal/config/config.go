// Package config provides layered configuration loading.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the resolved configuration.
type Config struct {
	// API settings
	APIURL  string `json:"api_url"`
	SiteURL string `json:"site_url"`

	// Server settings
	Listen string `json:"listen"`
	Locale string `json:"locale"`

	// Cache settings
	CacheTTL    time.Duration `json:"-"`
	TaxonomyTTL time.Duration `json:"-"`

	// Rendering settings
	HighlightStyle string `json:"highlight_style"`

	// Output settings
	Format    string `json:"format"`
	LogFormat string `json:"log_format"`
	LogFile   string `json:"log_file"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceSystem  Source = "system"
	SourceGlobal  Source = "global"
	SourceLocal   Source = "local"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

const (
	// DefaultAPIURL is used when no api_url is configured anywhere.
	DefaultAPIURL = "http://localhost:8787"

	// DefaultCacheTTL is the freshness window for site settings.
	DefaultCacheTTL = 5 * time.Minute
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	APIURL  string
	SiteURL string
	Listen  string
	Format  string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		SiteURL:        "http://localhost:8080",
		Listen:         ":8080",
		Locale:         "zh_CN",
		CacheTTL:       DefaultCacheTTL,
		HighlightStyle: "github",
		Format:         "auto",
		LogFormat:      "text",
		Sources:        make(map[string]string),
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env > local > global > system > defaults
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	for _, layer := range Paths() {
		loadFromFile(cfg, layer.Path, layer.Source)
	}

	LoadFromEnv(cfg)
	ApplyOverrides(cfg, overrides)

	cfg.APIURL = NormalizeBaseURL(cfg.APIURL)
	cfg.SiteURL = NormalizeBaseURL(cfg.SiteURL)
	return cfg, nil
}

// Layer is a config file location and the source it is recorded as.
type Layer struct {
	Path   string
	Source Source
}

// Paths returns the config file layers from lowest to highest precedence.
func Paths() []Layer {
	return []Layer{
		{Path: systemConfigPath(), Source: SourceSystem},
		{Path: globalConfigPath(), Source: SourceGlobal},
		{Path: localConfigPath(), Source: SourceLocal},
	}
}

func loadFromFile(cfg *Config, path string, source Source) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config locations
	if err != nil {
		return // File doesn't exist, skip
	}

	var fileCfg map[string]any
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed config at %s: %v\n", path, err)
		return
	}

	setString := func(key string, dst *string) {
		if v, ok := fileCfg[key].(string); ok && v != "" {
			*dst = v
			cfg.Sources[key] = string(source)
		}
	}
	setString("api_url", &cfg.APIURL)
	setString("site_url", &cfg.SiteURL)
	setString("listen", &cfg.Listen)
	setString("locale", &cfg.Locale)
	setString("highlight_style", &cfg.HighlightStyle)
	setString("format", &cfg.Format)
	setString("log_format", &cfg.LogFormat)
	setString("log_file", &cfg.LogFile)

	setDuration := func(key string, dst *time.Duration) {
		raw, ok := fileCfg[key].(string)
		if !ok || raw == "" {
			return
		}
		d, err := parseDuration(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: ignoring %s %q from %s: %v\n", key, raw, path, err)
			return
		}
		*dst = d
		cfg.Sources[key] = string(source)
	}
	setDuration("cache_ttl", &cfg.CacheTTL)
	setDuration("taxonomy_ttl", &cfg.TaxonomyTTL)
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("CFBLOG_API_URL"); v != "" {
		cfg.APIURL = v
		cfg.Sources["api_url"] = string(SourceEnv)
	}
	if v := os.Getenv("CFBLOG_SITE_URL"); v != "" {
		cfg.SiteURL = v
		cfg.Sources["site_url"] = string(SourceEnv)
	}
	if v := os.Getenv("CFBLOG_LISTEN"); v != "" {
		cfg.Listen = v
		cfg.Sources["listen"] = string(SourceEnv)
	}
	if v := os.Getenv("CFBLOG_LOCALE"); v != "" {
		cfg.Locale = v
		cfg.Sources["locale"] = string(SourceEnv)
	}
	if v := os.Getenv("CFBLOG_CACHE_TTL"); v != "" {
		if d, err := parseDuration(v); err == nil {
			cfg.CacheTTL = d
			cfg.Sources["cache_ttl"] = string(SourceEnv)
		}
	}
	if v := os.Getenv("CFBLOG_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
		cfg.Sources["log_format"] = string(SourceEnv)
	}
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) {
	if o.APIURL != "" {
		cfg.APIURL = o.APIURL
		cfg.Sources["api_url"] = string(SourceFlag)
	}
	if o.SiteURL != "" {
		cfg.SiteURL = o.SiteURL
		cfg.Sources["site_url"] = string(SourceFlag)
	}
	if o.Listen != "" {
		cfg.Listen = o.Listen
		cfg.Sources["listen"] = string(SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
}

// Source returns where key was set, or "default".
func (cfg *Config) Source(key string) string {
	if s := cfg.Sources[key]; s != "" {
		return s
	}
	return string(SourceDefault)
}

// parseDuration accepts Go durations and rejects negative values.
func parseDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration")
	}
	return d, nil
}

// Path helpers

func systemConfigPath() string {
	return "/etc/cfblog/config.json"
}

func globalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.json")
}

func localConfigPath() string {
	return filepath.Join(".cfblog", "config.json")
}

// GlobalConfigDir returns the global config directory path.
func GlobalConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "cfblog")
}

// NormalizeBaseURL trims whitespace and trailing slashes. A bare host gets a
// scheme: http for localhost and loopback addresses, https otherwise.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" || strings.Contains(u, "://") {
		return u
	}
	if IsLocalhost(u) {
		return "http://" + u
	}
	return "https://" + u
}

// IsLocalhost reports whether a bare host (with optional port and path)
// names localhost, a .localhost subdomain or a loopback IP.
func IsLocalhost(hostport string) bool {
	host, _, _ := strings.Cut(hostport, "/")
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
