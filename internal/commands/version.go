package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cfblog/cfblog-web/internal/version"
)

// NewVersionCmd creates the version command. It runs without an App.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s\n", version.Full(), runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
}
