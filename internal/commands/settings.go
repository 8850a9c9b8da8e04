package commands

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cfblog/cfblog-web/internal/output"
	"github.com/cfblog/cfblog-web/internal/settings"
)

// NewSettingsCmd creates the settings command.
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change site settings",
		Long: `Show or change the site settings the blog renders with.

Settings are composed from the API root, user 1 and /wp/v2/settings.
Each source is cached for cache_ttl (default 5m). Sources that cannot
be fetched fall back to built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: runSettingsShow,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the composed settings",
			Args:  cobra.NoArgs,
			RunE:  runSettingsShow,
		},
		newSettingsGetCmd(),
		newSettingsSetCmd(),
		newSettingsRefreshCmd(),
		newSettingsCacheCmd(),
	)

	return cmd
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}
	s := app.Settings.Settings(cmd.Context())
	return app.OK(s.Map(), output.WithSummary(s.Title))
}

func newSettingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one setting",
		Long:      "Print one setting. Keys: " + strings.Join(settings.Keys, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: settings.Keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			key := args[0]
			if !settings.IsKey(key) {
				return unknownKey(key)
			}
			return app.OK(app.Settings.Setting(cmd.Context(), key))
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key=value>...",
		Short: "Update settings through the API",
		Long: `Update one or more settings with PUT /wp-json/wp/v2/settings.

On success every cached source is dropped, so the next read fetches
fresh values.`,
		Example: `  cfblog settings set site_title="My Blog" site_icp="京ICP备00000000号"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			partial, err := parseAssignments(args)
			if err != nil {
				return err
			}
			if !app.Settings.Update(cmd.Context(), partial) {
				return &output.Error{
					Code:    output.CodeAPI,
					Message: "Settings update was rejected",
					Hint:    "Run with -v to see the API response",
				}
			}
			keys := make([]string, 0, len(partial))
			for k := range partial {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return app.OK(partial, output.WithSummary("Updated "+strings.Join(keys, ", ")))
		},
	}
}

func newSettingsRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Drop cached settings and fetch them again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			app.Store.Refresh(cmd.Context())
			s := app.Store.Current()
			return app.OK(s.Map(), output.WithSummary("Refreshed "+s.Title))
		},
	}
}

func newSettingsCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Show the state of each settings cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			return app.OK(app.Settings.CacheStates())
		},
	}
}

// parseAssignments parses key=value arguments into a partial update.
func parseAssignments(args []string) (map[string]string, error) {
	partial := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, output.ErrUsageHint("expected key=value, got "+arg, `e.g. site_title="My Blog"`)
		}
		if !settings.IsKey(key) {
			return nil, unknownKey(key)
		}
		partial[key] = value
	}
	return partial, nil
}

func unknownKey(key string) error {
	return output.ErrUsageHint("unknown setting: "+key, "Valid keys: "+strings.Join(settings.Keys, ", "))
}
