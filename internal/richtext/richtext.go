// Package richtext renders post content for the browser and the terminal.
//
// Markdown goes through goldmark with GitHub-flavoured extensions and chroma
// highlighting, is sanitised with bluemonday and finally has its external
// links hardened. Terminal output uses glamour.
package richtext

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// Options configure a Renderer.
type Options struct {
	// SiteURL is the public origin of the blog. Links to it are not treated as external.
	SiteURL string
	// Style names the chroma style for HighlightCSS.
	Style string
}

// Renderer turns Markdown into safe HTML.
type Renderer struct {
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	style    *chroma.Style
	format   *chromahtml.Formatter
	siteHost string
}

// NewRenderer creates a Renderer.
func NewRenderer(opts Options) *Renderer {
	if opts.Style == "" {
		opts.Style = DefaultStyle
	}
	formatter := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.PreventSurroundingPre(true),
	)
	r := &Renderer{
		policy:   newPolicy(),
		style:    styles.Get(opts.Style),
		format:   formatter,
		siteHost: hostOf(opts.SiteURL),
	}
	r.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer, emoji.Emoji),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{formatter: formatter, style: r.style}, 100)),
		),
	)
	return r
}

// Render converts Markdown to sanitised HTML. Empty input renders as "".
// Rendering failures fall back to the escaped source in a paragraph.
func (r *Renderer) Render(markdown string) string {
	if markdown == "" {
		return ""
	}
	var buf bytes.Buffer
	pc := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	if err := r.md.Convert([]byte(markdown), &buf, parser.WithContext(pc)); err != nil {
		return "<p>" + string(util.EscapeHTML([]byte(markdown))) + "</p>"
	}
	return r.Finish(buf.String())
}

// Finish sanitises already rendered HTML and hardens its links.
func (r *Renderer) Finish(rendered string) string {
	return HardenLinks(r.policy.Sanitize(rendered), r.siteHost)
}

// Content renders a post body. HTML bodies are only sanitised; anything that
// looks like Markdown, or plain text, goes through Render.
func (r *Renderer) Content(body string) string {
	if IsHTML(body) && !IsMarkdown(body) {
		return r.Finish(body)
	}
	return r.Render(body)
}

// HighlightCSS returns the stylesheet for highlighted code blocks.
func (r *Renderer) HighlightCSS() string {
	var buf bytes.Buffer
	if err := r.format.WriteCSS(&buf, r.style); err != nil {
		return ""
	}
	return buf.String()
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AllowAttrs("class").OnElements("span", "pre", "code", "div")
	p.AllowAttrs("type", "checked", "disabled").OnElements("input")
	p.AllowAttrs("align").OnElements("th", "td")
	p.AllowAttrs("rel").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
	p.AllowAttrs("id").Matching(headingIDPattern).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
