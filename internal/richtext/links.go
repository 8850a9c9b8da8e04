package richtext

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cfblog/cfblog-web/internal/htmlfrag"
)

// HardenLinks opens external links in a new tab without giving the target
// access to the opener. A link is external when its href is an absolute
// http(s) URL whose host differs from siteHost; with an empty siteHost every
// absolute http(s) link is external. Fragment, relative and same-host links
// are left as they are.
func HardenLinks(fragment, siteHost string) string {
	if !strings.Contains(fragment, "<a") {
		return fragment
	}
	siteHost = strings.ToLower(siteHost)
	return htmlfrag.Rewrite(fragment, func(n *html.Node) {
		if n.DataAtom != atom.A {
			return
		}
		href, ok := htmlfrag.Attr(n, "href")
		if !ok || !IsExternal(href, siteHost) {
			return
		}
		htmlfrag.SetAttr(n, "target", "_blank")
		htmlfrag.AddTokens(n, "rel", "noopener", "noreferrer")
	})
}

// IsExternal reports whether href points off-site.
func IsExternal(href, siteHost string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}
	return siteHost == "" || !strings.EqualFold(u.Host, siteHost)
}
