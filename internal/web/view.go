package web

import (
	"html/template"
	"time"

	"github.com/cfblog/cfblog-web/internal/richtext"
	"github.com/cfblog/cfblog-web/internal/settings"
	"github.com/cfblog/cfblog-web/internal/wp"
)

// excerptLength is the rune limit for card excerpts and meta descriptions.
const excerptLength = 160

// view is the data every page template receives.
type view struct {
	Site    settings.SiteSettings
	Lang    string
	Nav     []navLink
	Path    string
	Heading string
	Intro   string
	Query   string

	Posts  []postCard
	Pager  pager
	Terms  []termLink
	Months []archiveMonth

	Post    *postView
	Content template.HTML
	Empty   string
	Status  int
}

type navLink struct {
	Label  string
	URL    string
	Active bool
}

type postCard struct {
	Title      string
	URL        string
	Excerpt    string
	Image      string
	Published  time.Time
	Categories []termLink
}

type postView struct {
	postCard
	Updated time.Time
	Tags    []termLink
}

type termLink struct {
	Name  string
	URL   string
	Count int
}

type archiveMonth struct {
	Label string
	Posts []postCard
}

type pager struct {
	Page       int
	TotalPages int
	Prev       string
	Next       string
}

func navFor(p string) []navLink {
	var links []navLink
	for _, r := range Routes() {
		if r.Nav == "" {
			continue
		}
		links = append(links, navLink{Label: r.Nav, URL: r.Pattern, Active: r.Pattern == p})
	}
	return links
}

func postURL(slug string) string {
	return "/posts/" + slug
}

func categoryLinks(cats []wp.Category) []termLink {
	out := make([]termLink, 0, len(cats))
	for _, c := range cats {
		out = append(out, termLink{Name: c.Name, URL: "/categories/" + c.Slug, Count: c.Count})
	}
	return out
}

func tagLinks(tags []wp.Tag) []termLink {
	out := make([]termLink, 0, len(tags))
	for _, t := range tags {
		out = append(out, termLink{Name: t.Name, URL: "/tags/" + t.Slug, Count: t.Count})
	}
	return out
}

// excerpt picks the summary shown for a post.
func excerpt(p wp.Post) string {
	if s := richtext.PlainText(p.Excerpt.Rendered, excerptLength); s != "" {
		return s
	}
	return richtext.PlainText(p.Content.Rendered, excerptLength)
}

func title(p wp.Post) string {
	return richtext.PlainText(p.Title.Rendered, 0)
}
