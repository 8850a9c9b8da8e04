package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cfblog/cfblog-web/internal/appctx"
	"github.com/cfblog/cfblog-web/internal/output"
)

// appFrom returns the App installed by the root command.
func appFrom(cmd *cobra.Command) (*appctx.App, error) {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return app, nil
}

// parseIDs parses positional term IDs. Commas and spaces both separate IDs.
func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, field := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			id, err := strconv.ParseInt(field, 10, 64)
			if err != nil || id <= 0 {
				return nil, output.ErrUsageHint("invalid ID: "+field, "IDs are positive integers, e.g. 3 7 12 or 3,7,12")
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, output.ErrUsage("at least one ID required")
	}
	return ids, nil
}

// pluralize returns "1 tag" or "3 tags".
func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}
