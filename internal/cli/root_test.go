package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfblog/cfblog-web/internal/appctx"
	"github.com/cfblog/cfblog-web/internal/output"
)

func TestTransformCobraError(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		isUsage bool
	}{
		{"flag needs an argument: --api-url", "--api-url requires a value", true},
		{"unknown flag: --nope", "Unknown option: --nope", true},
		{"unknown shorthand flag: 'x' in -x", "Unknown option: -x", true},
		{`unknown command "bogus" for "cfblog"`, `unknown command "bogus" for "cfblog"`, true},
		{`invalid argument "x" for "-v"`, `invalid argument "x" for "-v"`, true},
		{"requires at least 1 arg(s), only received 0", "requires at least 1 arg(s), only received 0", true},
		{"something else", "something else", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := transformCobraError(errors.New(tt.in))
			assert.Equal(t, tt.want, err.Error())

			var e *output.Error
			assert.Equal(t, tt.isUsage, errors.As(err, &e) && e.Code == output.CodeUsage)
		})
	}
}

func TestNormalizeFlagName(t *testing.T) {
	root := NewRootCmd()
	require.NoError(t, root.PersistentFlags().Parse([]string{"--api_url", "http://api.test", "--site_url=http://blog.test"}))

	api, err := root.PersistentFlags().GetString("api-url")
	require.NoError(t, err)
	assert.Equal(t, "http://api.test", api)
	site, err := root.PersistentFlags().GetString("site-url")
	require.NoError(t, err)
	assert.Equal(t, "http://blog.test", site)
}

func TestPersistentPreRunBuildsApp(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CFBLOG_API_URL", "")
	t.Setenv("CFBLOG_DEBUG", "")
	t.Chdir(t.TempDir())

	root := NewRootCmd()
	var got *appctx.App
	probe := &cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			got = appctx.FromContext(cmd.Context())
			return nil
		},
	}
	probe.Flags().String("listen", "", "")
	root.AddCommand(probe)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"probe", "--api-url", "http://api.test/", "-vv", "--json", "--listen", ":9999"})

	require.NoError(t, root.Execute())
	require.NotNil(t, got)
	assert.Equal(t, "http://api.test", got.Config.APIURL)
	assert.Equal(t, "flag", got.Config.Source("api_url"))
	assert.Equal(t, ":9999", got.Config.Listen)
	assert.Equal(t, 2, got.Flags.Verbose)
	assert.True(t, got.Flags.JSON)
	assert.Equal(t, 2, got.Hooks.Level())
}

func TestVersionSkipsSetup(t *testing.T) {
	root := NewRootCmd()
	var called bool
	root.AddCommand(&cobra.Command{
		Use: "version",
		Run: func(cmd *cobra.Command, args []string) {
			called = true
			assert.Nil(t, appctx.FromContext(cmd.Context()))
		},
	})
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.True(t, called)
}

func TestAddCommandsRegistersEverything(t *testing.T) {
	root := NewRootCmd()
	addCommands(root)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "settings", "taxonomy", "posts", "render", "routes", "config", "version"} {
		assert.Contains(t, names, want)
	}
}
