// Package htmlfrag rewrites HTML fragments in place through a parsed tree.
package htmlfrag

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Rewrite parses s as the content of a <body>, calls visit for every element
// node in document order and renders the result. Input that cannot be parsed
// is returned unchanged.
func Rewrite(s string, visit func(n *html.Node)) string {
	if s == "" {
		return s
	}
	nodes, err := Parse(s)
	if err != nil {
		return s
	}
	for _, n := range nodes {
		Walk(n, visit)
	}
	out, err := Render(nodes)
	if err != nil {
		return s
	}
	return out
}

// Parse parses s as body content.
func Parse(s string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(s), ctx)
}

// Render serialises nodes back to HTML.
func Render(nodes []*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Walk calls visit for n and every element below it.
func Walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, visit)
	}
}

// Attr returns the value of key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets key on n, replacing any existing value.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// AddTokens adds each token to the space-separated attribute key unless it is
// already present. Existing tokens keep their order.
func AddTokens(n *html.Node, key string, tokens ...string) {
	cur, _ := Attr(n, key)
	fields := strings.Fields(cur)
	for _, t := range tokens {
		if !HasToken(fields, t) {
			fields = append(fields, t)
		}
	}
	SetAttr(n, key, strings.Join(fields, " "))
}

// HasToken reports whether fields contains t, ignoring case.
func HasToken(fields []string, t string) bool {
	for _, f := range fields {
		if strings.EqualFold(f, t) {
			return true
		}
	}
	return false
}

// Text returns the concatenated text content below n.
func Text(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return b.String()
}
