package cli

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cfblog/cfblog-web/internal/appctx"
	"github.com/cfblog/cfblog-web/internal/commands"
	"github.com/cfblog/cfblog-web/internal/config"
	"github.com/cfblog/cfblog-web/internal/output"
	"github.com/cfblog/cfblog-web/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:           "cfblog",
		Short:         "Server-rendered front-end for a WordPress-compatible blog API",
		Long:          "cfblog serves a blog from a WordPress-compatible REST API and manages its cached site settings.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip setup for help and version commands
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(config.FlagOverrides{
				APIURL:  flags.APIURL,
				SiteURL: flags.SiteURL,
				Listen:  listenFlag(cmd),
			})
			if err != nil {
				return err
			}

			app := appctx.NewApp(cfg)
			app.Flags = flags
			app.ApplyFlags()

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app := appctx.FromContext(cmd.Context()); app != nil {
				return app.Close()
			}
			return nil
		},
	}

	// Allow flags anywhere in the command line
	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)
	// --api_url and --api-url are the same flag.
	cmd.PersistentFlags().SetNormalizeFunc(normalizeFlagName)

	// Output format flags
	cmd.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Output data only, no envelope")
	cmd.PersistentFlags().BoolVar(&flags.Styled, "styled", false, "Force styled output (ANSI colors)")
	cmd.PersistentFlags().StringVar(&flags.JQ, "jq", "", "Filter JSON output with a jq expression")

	// Connection flags
	cmd.PersistentFlags().StringVar(&flags.APIURL, "api-url", "", "WordPress-compatible API origin (e.g. https://api.example.com)")
	cmd.PersistentFlags().StringVar(&flags.SiteURL, "site-url", "", "Public origin of the blog, used for canonical URLs")

	// Behavior flags
	cmd.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v", "Verbose output (-v for cache misses, -vv for requests)")
	cmd.PersistentFlags().BoolVar(&flags.Stats, "stats", false, "Show session statistics")

	return cmd
}

// Execute runs the root command.
func Execute() {
	cmd := NewRootCmd()
	addCommands(cmd)

	// Use ExecuteC to get the executed command (for correct context access)
	executedCmd, err := cmd.ExecuteC()
	if err != nil {
		err = transformCobraError(err)
		apiErr := output.AsError(err)

		// Try to use app.Err() if app is available (for --stats support)
		if app := appctx.FromContext(executedCmd.Context()); app != nil {
			_ = app.Err(err)
			_ = app.Close()
			os.Exit(apiErr.ExitCode())
		}

		// Fallback: output error directly (app not available, e.g., during setup)
		_ = fallbackWriter(cmd.PersistentFlags()).Err(err)
		os.Exit(apiErr.ExitCode())
	}
}

func addCommands(cmd *cobra.Command) {
	cmd.AddCommand(commands.NewServeCmd())
	cmd.AddCommand(commands.NewSettingsCmd())
	cmd.AddCommand(commands.NewTaxonomyCmd())
	cmd.AddCommand(commands.NewPostsCmd())
	cmd.AddCommand(commands.NewRenderCmd())
	cmd.AddCommand(commands.NewRoutesCmd())
	cmd.AddCommand(commands.NewConfigCmd())
	cmd.AddCommand(commands.NewVersionCmd())
}

// fallbackWriter picks an output format from the raw flags when setup failed
// before an App existed.
func fallbackWriter(pf *pflag.FlagSet) *output.Writer {
	format := output.FormatAuto // TTY → styled, non-TTY → JSON
	quiet, _ := pf.GetBool("quiet")
	jsonFlag, _ := pf.GetBool("json")
	styled, _ := pf.GetBool("styled")

	switch {
	case quiet:
		format = output.FormatQuiet
	case jsonFlag:
		format = output.FormatJSON
	case styled:
		format = output.FormatStyled
	}
	return output.New(output.Options{Format: format, Writer: os.Stdout})
}

// listenFlag reads the serve command's --listen flag, if the running
// command has one.
func listenFlag(cmd *cobra.Command) string {
	f := cmd.Flags().Lookup("listen")
	if f == nil || !f.Changed {
		return ""
	}
	return f.Value.String()
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

var shorthandRE = regexp.MustCompile(`unknown shorthand flag: '.' in (-\w)`)

// transformCobraError turns cobra's parse errors into usage errors with
// consistent wording.
func transformCobraError(err error) error {
	msg := err.Error()

	// "flag needs an argument: --FLAG" → "--FLAG requires a value"
	if flag, ok := strings.CutPrefix(msg, "flag needs an argument: "); ok {
		return output.ErrUsage(flag + " requires a value")
	}

	// "unknown flag: --FLAG" → "Unknown option: --FLAG"
	if flag, ok := strings.CutPrefix(msg, "unknown flag: "); ok {
		return output.ErrUsage("Unknown option: " + flag)
	}

	if strings.HasPrefix(msg, "unknown shorthand flag: ") {
		if matches := shorthandRE.FindStringSubmatch(msg); len(matches) > 1 {
			return output.ErrUsage("Unknown option: " + matches[1])
		}
	}

	if strings.HasPrefix(msg, "unknown command ") {
		return output.ErrUsageHint(msg, "Run 'cfblog --help' for the list of commands")
	}

	if strings.Contains(msg, "invalid argument") {
		return output.ErrUsage(msg)
	}

	// "requires at least 1 arg(s)" / "accepts 1 arg(s), received 0"
	if strings.Contains(msg, "arg(s)") {
		return output.ErrUsage(msg)
	}

	return err
}
