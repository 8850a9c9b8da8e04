package commands

import (
	"github.com/spf13/cobra"

	"github.com/cfblog/cfblog-web/internal/output"
	"github.com/cfblog/cfblog-web/internal/web"
)

// NewRoutesCmd creates the routes command.
func NewRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			routes := web.Routes()
			return app.OK(routes, output.WithSummary(pluralize(len(routes), "route", "routes")))
		},
	}
}
