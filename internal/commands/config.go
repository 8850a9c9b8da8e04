package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cfblog/cfblog-web/internal/config"
	"github.com/cfblog/cfblog-web/internal/output"
)

// configKeys are the keys a config file may set, in display order.
var configKeys = []string{
	"api_url",
	"site_url",
	"listen",
	"locale",
	"cache_ttl",
	"taxonomy_ttl",
	"highlight_style",
	"format",
	"log_format",
	"log_file",
}

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit configuration",
		Long: `Show or edit cfblog configuration.

Configuration is loaded from multiple sources with the following precedence:
  flags > env > local > global > system > defaults

Config locations:
  - System: /etc/cfblog/config.json
  - Global: ~/.config/cfblog/config.json
  - Local:  .cfblog/config.json`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show effective configuration",
			Long:  "Display the current effective configuration with source information.",
			Args:  cobra.NoArgs,
			RunE:  runConfigShow,
		},
		newConfigSetCmd(),
	)

	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}
	cfg := app.Config

	values := map[string]string{
		"api_url":         cfg.APIURL,
		"site_url":        cfg.SiteURL,
		"listen":          cfg.Listen,
		"locale":          cfg.Locale,
		"cache_ttl":       cfg.CacheTTL.String(),
		"taxonomy_ttl":    cfg.TaxonomyTTL.String(),
		"highlight_style": cfg.HighlightStyle,
		"format":          cfg.Format,
		"log_format":      cfg.LogFormat,
		"log_file":        cfg.LogFile,
	}

	rows := make([]map[string]any, 0, len(configKeys))
	for _, k := range configKeys {
		rows = append(rows, map[string]any{
			"key":    k,
			"value":  values[k],
			"source": cfg.Source(k),
		})
	}
	return app.OK(rows, output.WithSummary("Effective configuration"))
}

func newConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a value in the local (or global) config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			key, value := args[0], args[1]
			if !isConfigKey(key) {
				return output.ErrUsageHint("unknown config key: "+key, "Valid keys: "+strings.Join(configKeys, ", "))
			}

			path := filepath.Join(".cfblog", "config.json")
			if global {
				path = filepath.Join(config.GlobalConfigDir(), "config.json")
			}
			if err := setConfigValue(path, key, value); err != nil {
				return err
			}
			return app.OK(map[string]any{
				"key":   key,
				"value": value,
				"path":  path,
			}, output.WithSummary(fmt.Sprintf("Set %s in %s", key, path)))
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Write the global config instead of .cfblog/config.json")

	return cmd
}

func isConfigKey(key string) bool {
	for _, k := range configKeys {
		if k == key {
			return true
		}
	}
	return false
}

// setConfigValue merges key into the JSON object at path, creating the
// file and its directory if needed.
func setConfigValue(path, key, value string) error {
	data := map[string]any{}
	raw, err := os.ReadFile(path) //nolint:gosec // G304: path is a fixed config location
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return err
	}
	data[key] = value

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := atomicWriteFile(path, append(out, '\n')); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// atomicWriteFile writes data to a temp file and renames it into place.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	// Windows: rename fails when the destination exists.
	if err := os.Rename(tmpPath, path); err != nil && runtime.GOOS == "windows" {
		_ = os.Remove(path)
		return os.Rename(tmpPath, path)
	} else { //nolint:revive // two-branch pattern
		return err
	}
}
