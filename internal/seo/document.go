package seo

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is an HTML document whose head can be reconciled.
type Document struct {
	root *html.Node
	head *html.Node
}

var _ Head = (*Document)(nil)

// ParseDocument parses a full HTML document. The parser always produces
// a head element, even when the input has none.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	d := &Document{root: root}
	d.head = findFirst(root, func(n *html.Node) bool { return n.DataAtom == atom.Head })
	if d.head == nil {
		// html.Parse synthesises <head>; this only guards hand-built trees.
		d.head = &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
		root.AppendChild(d.head)
	}
	return d, nil
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	d, _ := ParseDocument(strings.NewReader("<!DOCTYPE html><html><head></head><body></body></html>"))
	return d
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning "" if rendering fails.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Title returns the text of the <title> element.
func (d *Document) Title() string {
	n := d.findInHead(Selector{Tag: "title"})
	if n == nil {
		return ""
	}
	return textOf(n)
}

// SetTitle finds or creates the <title> element and sets its text.
func (d *Document) SetTitle(title string) {
	n := d.findInHead(Selector{Tag: "title"})
	if n == nil {
		n = newElement("title", nil)
		d.head.AppendChild(n)
	}
	setText(n, title)
}

func (d *Document) Find(sel Selector) Element {
	if n := findFirst(d.scope(sel), func(n *html.Node) bool { return matches(n, sel) }); n != nil {
		return &element{n: n}
	}
	return nil
}

func (d *Document) FindAll(sel Selector) []Element {
	var out []Element
	walk(d.scope(sel), func(n *html.Node) bool {
		if matches(n, sel) {
			out = append(out, &element{n: n})
		}
		return false
	})
	return out
}

func (d *Document) Append(tag string, attrs ...Attr) Element {
	n := newElement(tag, attrs)
	d.head.AppendChild(n)
	return &element{n: n}
}

// scope is the subtree sel is looked up in. Structured data blocks count
// wherever they are; everything else lives in the head.
func (d *Document) scope(sel Selector) *html.Node {
	if sel == JSONLD {
		return d.root
	}
	return d.head
}

func (d *Document) findInHead(sel Selector) *html.Node {
	return findFirst(d.head, func(n *html.Node) bool { return matches(n, sel) })
}

type element struct {
	n *html.Node
}

func (e *element) Attr(key string) (string, bool) {
	return attr(e.n, key)
}

func (e *element) SetAttr(key, val string) {
	for i := range e.n.Attr {
		if e.n.Attr[i].Namespace == "" && e.n.Attr[i].Key == key {
			e.n.Attr[i].Val = val
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: key, Val: val})
}

func (e *element) Text() string {
	return textOf(e.n)
}

func (e *element) SetText(text string) {
	setText(e.n, text)
}

func (e *element) Remove() {
	if e.n.Parent != nil {
		e.n.Parent.RemoveChild(e.n)
	}
}

func newElement(tag string, attrs []Attr) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for _, a := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	return n
}

func matches(n *html.Node, sel Selector) bool {
	if n.Type != html.ElementNode {
		return false
	}
	return sel.Matches(n.Data, func(key string) (string, bool) { return attr(n, key) })
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return false
	})
	return b.String()
}

func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// walk visits the descendants of n depth-first until visit returns true.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if visit(c) || walk(c, visit) {
			return true
		}
	}
	return false
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if pred(c) {
			found = c
			return true
		}
		return false
	})
	return found
}
