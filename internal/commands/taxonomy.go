package commands

import (
	"github.com/spf13/cobra"

	"github.com/cfblog/cfblog-web/internal/output"
)

// NewTaxonomyCmd creates the taxonomy command.
func NewTaxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "taxonomy",
		Aliases: []string{"tax"},
		Short:   "Look up categories and tags",
		Long: `Look up categories and tags by ID through the taxonomy cache.

IDs that cannot be resolved are left out of the result. Without IDs,
every term is listed.`,
	}

	cmd.AddCommand(
		newTermsCmd("categories", "category", "categories"),
		newTermsCmd("tags", "tag", "tags"),
	)

	return cmd
}

func newTermsCmd(use, singular, plural string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id...]",
		Short: "Look up " + plural + " by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var (
				data  any
				count int
			)
			if len(args) == 0 {
				if use == "categories" {
					all := app.Taxonomy.AllCategories(ctx)
					data, count = all, len(all)
				} else {
					all := app.Taxonomy.AllTags(ctx)
					data, count = all, len(all)
				}
				return app.OK(data, output.WithSummary(pluralize(count, singular, plural)))
			}

			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if use == "categories" {
				found := app.Taxonomy.Categories(ctx, ids)
				data, count = found, len(found)
			} else {
				found := app.Taxonomy.Tags(ctx, ids)
				data, count = found, len(found)
			}
			summary := pluralize(count, singular, plural)
			if missing := len(ids) - count; missing > 0 {
				summary += " (" + pluralize(missing, "ID", "IDs") + " not found)"
			}
			return app.OK(data, output.WithSummary(summary))
		},
	}
}
