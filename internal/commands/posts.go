package commands

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cfblog/cfblog-web/internal/appctx"
	"github.com/cfblog/cfblog-web/internal/dateparse"
	"github.com/cfblog/cfblog-web/internal/output"
	"github.com/cfblog/cfblog-web/internal/richtext"
	"github.com/cfblog/cfblog-web/internal/wp"
)

// NewPostsCmd creates the posts command.
func NewPostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List and read posts",
	}
	cmd.AddCommand(newPostsListCmd(), newPostsShowCmd())
	return cmd
}

func newPostsListCmd() *cobra.Command {
	var (
		page     int
		perPage  int
		search   string
		category string
		tag      string
		after    string
		before   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			q := wp.PostQuery{Page: page, PerPage: perPage, Search: search}
			if q.After, err = dateFlag("after", after); err != nil {
				return err
			}
			if q.Before, err = dateFlag("before", before); err != nil {
				return err
			}
			if category != "" {
				c, ok := app.Taxonomy.CategoryBySlug(ctx, category)
				if !ok {
					return output.ErrNotFound("category", category)
				}
				q.Categories = []int64{c.ID}
			}
			if tag != "" {
				t, ok := app.Taxonomy.TagBySlug(ctx, tag)
				if !ok {
					return output.ErrNotFound("tag", tag)
				}
				q.Tags = []int64{t.ID}
			}

			list, err := app.Gateway.Posts(ctx, q)
			if err != nil {
				return output.FromGateway(err)
			}

			rows := make([]map[string]any, 0, len(list.Posts))
			for _, p := range list.Posts {
				rows = append(rows, postRow(app, p))
			}
			summary := fmt.Sprintf("%s (page %d of %d)", pluralize(list.Total, "post", "posts"), max(page, 1), max(list.TotalPages, 1))
			return app.OK(rows, output.WithSummary(summary))
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", 10, "Posts per page")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Full-text search")
	cmd.Flags().StringVar(&category, "category", "", "Only posts in this category (slug)")
	cmd.Flags().StringVar(&tag, "tag", "", "Only posts with this tag (slug)")
	cmd.Flags().StringVar(&after, "after", "", "Only posts published after this date (e.g. 2024-01, \"last month\", \"3 weeks ago\")")
	cmd.Flags().StringVar(&before, "before", "", "Only posts published before this date")

	return cmd
}

func newPostsShowCmd() *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "show <slug|url>",
		Short: "Show one post",
		Long: `Show one post by slug or by its blog URL. Styled output renders the
body for the terminal; JSON output carries the body as Markdown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			p, err := app.Gateway.PostBySlug(ctx, slugArg(args[0]))
			if err != nil {
				return output.FromGateway(err)
			}

			body := richtext.HTMLToMarkdown(app.Renderer.Content(p.Content.Rendered))
			if app.Output.Styled() {
				return writeTerminal(app.Output.Out(), postTitle(p), body, width)
			}

			data := postRow(app, p)
			data["updated_at"] = p.Updated().Format(time.RFC3339)
			data["categories"] = termNames(app.Taxonomy.Categories(ctx, p.Categories), func(c wp.Category) string { return c.Name })
			data["tags"] = termNames(app.Taxonomy.Tags(ctx, p.Tags), func(t wp.Tag) string { return t.Name })
			data["content"] = body
			return app.OK(data, output.WithSummary(postTitle(p)))
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "Wrap width for terminal output (default 80)")

	return cmd
}

// dateFlag parses a --after/--before value. Empty means unbounded.
func dateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, ok := dateparse.Parse(value)
	if !ok {
		return time.Time{}, output.ErrUsageHint("invalid --"+name+" date: "+value,
			`use YYYY-MM-DD, YYYY-MM, yesterday, "last week", "3 days ago" or -N`)
	}
	return t, nil
}

// slugArg accepts a slug or a post URL such as https://blog.example.com/posts/hello.
func slugArg(arg string) string {
	if !strings.Contains(arg, "/") {
		return arg
	}
	path := arg
	if u, err := url.Parse(arg); err == nil {
		path = u.Path
	}
	path = strings.Trim(path, "/")
	if rest, ok := strings.CutPrefix(path, "posts/"); ok {
		path = rest
	}
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	if s, err := url.PathUnescape(path); err == nil {
		return s
	}
	return path
}

func postRow(app *appctx.App, p wp.Post) map[string]any {
	row := map[string]any{
		"id":    p.ID,
		"title": postTitle(p),
		"slug":  p.Slug,
		"url":   app.Config.SiteURL + "/posts/" + p.Slug,
	}
	if t := p.Published(); !t.IsZero() {
		row["published_at"] = t.Format(time.RFC3339)
	}
	return row
}

func postTitle(p wp.Post) string {
	return richtext.PlainText(p.Title.Rendered, 0)
}

func termNames[T any](terms []T, name func(T) string) []string {
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		names = append(names, name(t))
	}
	return names
}

// writeTerminal renders Markdown with a heading for the terminal.
func writeTerminal(w io.Writer, title, body string, width int) error {
	md := body
	if title != "" {
		md = "# " + title + "\n\n" + body
	}
	out, err := richtext.RenderTerminal(md, width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, strings.TrimRight(out, "\n")+"\n")
	return err
}
