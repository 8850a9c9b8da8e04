package commands

import (
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cfblog/cfblog-web/internal/appctx"
	"github.com/cfblog/cfblog-web/internal/lazyload"
	"github.com/cfblog/cfblog-web/internal/output"
	"github.com/cfblog/cfblog-web/internal/richtext"
	"github.com/cfblog/cfblog-web/internal/seo"
	"github.com/cfblog/cfblog-web/internal/settings"
)

// Render output formats.
const (
	renderHTML     = "html"
	renderFragment = "fragment"
	renderTerminal = "terminal"
)

type renderOptions struct {
	format string
	out    string
	site   bool
	lazy   bool
	width  int
}

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a Markdown file",
		Long: `Render a Markdown file the way post bodies are rendered.

A leading YAML front matter block (title, description, keywords, author,
image, date, modified, section, tags) fills the page head.

Formats:
  html      full page with reconciled head metadata (default)
  fragment  the sanitised body only
  terminal  styled for the terminal`,
		Example: `  cfblog render post.md > post.html
  cfblog render post.md --format fragment
  cfblog render post.md --format terminal --width 100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			return runRender(cmd, app, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", renderHTML, "Output format: html, fragment or terminal")
	cmd.Flags().StringVarP(&opts.out, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.site, "site", false, "Use site settings from the API for the page head")
	cmd.Flags().BoolVar(&opts.lazy, "lazy", false, "Lazy-load images (inlines the loader script)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Wrap width for terminal output (default 80)")

	return cmd
}

func runRender(cmd *cobra.Command, app *appctx.App, path string, opts renderOptions) error {
	switch opts.format {
	case renderHTML, renderFragment, renderTerminal:
	default:
		return output.ErrUsageHint("unknown render format: "+opts.format, "use html, fragment or terminal")
	}

	if err := richtext.ValidateSource(path); err != nil {
		return output.ErrUsage(err.Error())
	}
	src, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's argument
	if err != nil {
		return err
	}
	fm, body, err := richtext.SplitFrontMatter(src)
	if err != nil {
		return output.ErrUsageHint(err.Error(), "front matter is YAML between two --- lines")
	}

	var w io.Writer = app.Output.Out()
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if opts.format == renderTerminal {
		return writeTerminal(w, fm.Title, string(body), opts.width)
	}

	var rendered string
	if richtext.DetectSourceType(path) == "text/html" {
		rendered = app.Renderer.Finish(string(body))
	} else {
		rendered = app.Renderer.Render(string(body))
	}
	if opts.lazy {
		rendered = lazyload.Rewrite(rendered, "")
	}

	if opts.format == renderFragment {
		_, err := io.WriteString(w, rendered)
		return err
	}

	site := settings.Defaults()
	if opts.site {
		site = app.Settings.Settings(cmd.Context())
	}
	page, err := renderPage(app, site, fm, rendered, opts.lazy)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, page)
	return err
}

// renderPage wraps a rendered body in a standalone document and reconciles
// its head with the site settings and the front matter.
func renderPage(app *appctx.App, site settings.SiteSettings, fm richtext.FrontMatter, body string, lazy bool) (string, error) {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html lang="` + html.EscapeString(app.Locale.Lang()) + `"><head>`)
	b.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
	b.WriteString("<style>" + app.Renderer.HighlightCSS() + "</style>")
	if lazy {
		css, js, err := lazyAssets()
		if err != nil {
			return "", err
		}
		b.WriteString("<style>" + css + "</style><script defer>" + js + "</script>")
	}
	b.WriteString("</head><body><article>")
	if fm.Title != "" {
		b.WriteString("<h1>" + html.EscapeString(fm.Title) + "</h1>")
	}
	b.WriteString(body)
	b.WriteString("</article></body></html>")

	doc, err := seo.ParseDocument(strings.NewReader(b.String()))
	if err != nil {
		return "", err
	}

	seo.ApplySiteIdentity(doc, site)
	snapshot := seo.Merge(seo.DefaultSnapshot(site, app.Locale.OpenGraph()), frontMatterSnapshot(site, fm, body))
	seo.Reconcile(doc, snapshot)

	if fm.Title != "" {
		ld := seo.ArticleData(seo.Article{
			Headline:      fm.Title,
			Description:   snapshot.Description,
			Image:         fm.Image,
			DatePublished: snapshot.PublishedTime,
			DateModified:  snapshot.ModifiedTime,
			Author:        snapshot.Author,
			Publisher:     site.Title,
			PublisherLogo: site.Logo,
		})
		if err := seo.SetStructuredData(doc, ld); err != nil {
			app.Logger.Warn("structured data skipped", "error", err)
		}
	}

	return "<!DOCTYPE html>\n" + strings.TrimPrefix(doc.String(), "<!DOCTYPE html>"), nil
}

// frontMatterSnapshot turns front matter into page overrides. Without a
// description the first words of the body are used.
func frontMatterSnapshot(site settings.SiteSettings, fm richtext.FrontMatter, body string) seo.Snapshot {
	s := seo.Snapshot{
		Description: fm.Description,
		Keywords:    fm.Keywords,
		Author:      fm.Author,
		Image:       fm.Image,
		Section:     fm.Section,
	}
	if fm.Title == "" {
		return s
	}
	s.Title = fm.Title + " - " + site.Title
	s.Type = seo.TypeArticle
	if s.Description == "" {
		s.Description = richtext.PlainText(body, 160)
	}
	if len(fm.Tags) > 0 {
		s.Tags = fm.Tags
	}
	s.PublishedTime = frontMatterTime(fm.Date)
	s.ModifiedTime = frontMatterTime(fm.Modified)
	return s
}

// frontMatterTime normalises a front matter date to RFC 3339. Values in
// other formats are kept as written.
func frontMatterTime(raw string) string {
	if raw == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.RFC3339)
		}
	}
	return raw
}

func lazyAssets() (css, js string, err error) {
	fsys := lazyload.Assets()
	c, err := fsys.ReadFile("assets/lazy.css")
	if err != nil {
		return "", "", fmt.Errorf("lazy.css: %w", err)
	}
	j, err := fsys.ReadFile("assets/lazy.js")
	if err != nil {
		return "", "", fmt.Errorf("lazy.js: %w", err)
	}
	return string(c), string(j), nil
}
