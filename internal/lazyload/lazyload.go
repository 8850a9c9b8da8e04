// Package lazyload defers image loading until images scroll into view.
//
// Rewrite moves each image's source into data-src and shows a placeholder;
// the embedded lazy.js swaps the real source in once the image nears the
// viewport.
package lazyload

import (
	"embed"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cfblog/cfblog-web/internal/htmlfrag"
)

// Class names set on lazily loaded images.
const (
	ClassLoading = "lazy-loading"
	ClassLoaded  = "lazy-loaded"
	ClassError   = "lazy-error"
)

// Placeholder is the image shown until the real one has loaded.
const Placeholder = `data:image/svg+xml,%3Csvg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 400 300"%3E%3Crect fill="%23f0f0f0" width="400" height="300"/%3E%3Ctext fill="%23999" x="50%25" y="50%25" dominant-baseline="middle" text-anchor="middle" font-family="Arial, sans-serif" font-size="18"%3ELoading...%3C/text%3E%3C/svg%3E`

//go:embed assets
var assets embed.FS

// Assets holds lazy.js and lazy.css.
func Assets() embed.FS {
	return assets
}

// Rewrite marks every <img> in fragment for lazy loading. Images that are
// already lazy, have no src, or use an inline data: source are left alone.
// An empty placeholder uses Placeholder.
func Rewrite(fragment, placeholder string) string {
	if !strings.Contains(fragment, "<img") {
		return fragment
	}
	if placeholder == "" {
		placeholder = Placeholder
	}
	return htmlfrag.Rewrite(fragment, func(n *html.Node) {
		if n.DataAtom != atom.Img {
			return
		}
		Mark(n, placeholder)
	})
}

// Mark rewrites a single image node and reports whether it changed.
func Mark(n *html.Node, placeholder string) bool {
	if _, ok := htmlfrag.Attr(n, "data-src"); ok {
		return false
	}
	src, ok := htmlfrag.Attr(n, "src")
	if !ok || strings.TrimSpace(src) == "" || strings.HasPrefix(src, "data:") {
		return false
	}
	htmlfrag.SetAttr(n, "data-src", src)
	htmlfrag.SetAttr(n, "src", placeholder)
	htmlfrag.AddTokens(n, "class", ClassLoading)
	htmlfrag.SetAttr(n, "loading", "lazy")
	return true
}
