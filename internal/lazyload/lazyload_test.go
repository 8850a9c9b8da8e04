package lazyload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cfblog/cfblog-web/internal/htmlfrag"
)

func images(t *testing.T, fragment string) []*html.Node {
	t.Helper()
	nodes, err := htmlfrag.Parse(fragment)
	require.NoError(t, err)
	var out []*html.Node
	for _, n := range nodes {
		htmlfrag.Walk(n, func(n *html.Node) {
			if n.DataAtom == atom.Img {
				out = append(out, n)
			}
		})
	}
	return out
}

func attr(n *html.Node, key string) string {
	v, _ := htmlfrag.Attr(n, key)
	return v
}

func TestRewrite(t *testing.T) {
	out := Rewrite(`<p><img src="/a.png" alt="A" class="wide"></p>`, "")

	imgs := images(t, out)
	require.Len(t, imgs, 1)
	img := imgs[0]
	assert.Equal(t, "/a.png", attr(img, "data-src"))
	assert.Equal(t, Placeholder, attr(img, "src"))
	assert.Equal(t, "wide lazy-loading", attr(img, "class"))
	assert.Equal(t, "lazy", attr(img, "loading"))
	assert.Equal(t, "A", attr(img, "alt"))
}

func TestRewriteSkips(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"already lazy", `<img src="p.svg" data-src="/a.png">`},
		{"inline data", `<img src="data:image/png;base64,AAAA">`},
		{"no src", `<img alt="x">`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Rewrite(tt.in, "")
			imgs := images(t, out)
			require.Len(t, imgs, 1)
			_, lazy := htmlfrag.Attr(imgs[0], "loading")
			assert.False(t, lazy)
		})
	}
}

func TestRewriteIsIdempotent(t *testing.T) {
	once := Rewrite(`<img src="/a.png"><img src="/b.png">`, "/p.svg")
	assert.Equal(t, once, Rewrite(once, "/p.svg"))

	imgs := images(t, once)
	require.Len(t, imgs, 2)
	assert.Equal(t, "/b.png", attr(imgs[1], "data-src"))
	assert.Equal(t, "/p.svg", attr(imgs[1], "src"))
}

func TestRewriteWithoutImages(t *testing.T) {
	in := "<p>text</p>"
	assert.Equal(t, in, Rewrite(in, ""))
}

func TestAssets(t *testing.T) {
	js, err := Assets().ReadFile("assets/lazy.js")
	require.NoError(t, err)
	assert.Contains(t, string(js), "IntersectionObserver")
	assert.Contains(t, string(js), "rootMargin: '50px'")
	for _, class := range []string{ClassLoading, ClassLoaded, ClassError} {
		assert.Contains(t, string(js), "'"+class+"'")
	}

	css, err := Assets().ReadFile("assets/lazy.css")
	require.NoError(t, err)
	assert.Contains(t, string(css), ClassLoading)
}
