package richtext

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cfblog/cfblog-web/internal/htmlfrag"
)

var markdownPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^#{1,6}\s`),           // headings
	regexp.MustCompile(`\*\*[^*]+\*\*`),           // bold
	regexp.MustCompile(`\*[^*\s][^*]*\*`),         // italic
	regexp.MustCompile(`\[[^\]]+\]\([^)]+\)`),     // links
	regexp.MustCompile("(?m)^```"),                // fenced code
	regexp.MustCompile(`(?m)^\s*[-*+]\s`),         // unordered list
	regexp.MustCompile(`(?m)^\s*\d+\.\s`),         // ordered list
	regexp.MustCompile(`(?m)^>\s`),                // blockquote
	regexp.MustCompile(`(?m)^\|.*\|\s*$`),         // table row
	regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`),    // image
	regexp.MustCompile(`(?m)^(-{3,}|\*{3,})\s*$`), // rule
}

var htmlTag = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// IsMarkdown guesses whether s contains Markdown syntax.
func IsMarkdown(s string) bool {
	if s == "" {
		return false
	}
	for _, re := range markdownPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// IsHTML guesses whether s contains HTML tags.
func IsHTML(s string) bool {
	return s != "" && htmlTag.MatchString(s)
}

// PlainText extracts the text of an HTML fragment with whitespace collapsed,
// cut to at most max runes (max <= 0 means no limit). Cut text ends in "…".
func PlainText(fragment string, max int) string {
	nodes, err := htmlfrag.Parse(fragment)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(htmlfrag.Text(n))
		b.WriteByte(' ')
	}
	text := strings.Join(strings.Fields(b.String()), " ")
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max])) + "…"
}

// HTMLToMarkdown converts rendered post HTML back to Markdown for terminal display.
func HTMLToMarkdown(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	nodes, err := htmlfrag.Parse(fragment)
	if err != nil {
		return fragment
	}
	var w mdWriter
	for _, n := range nodes {
		w.node(n)
	}
	out := regexp.MustCompile(`\n{3,}`).ReplaceAllString(w.b.String(), "\n\n")
	return strings.TrimSpace(out)
}

type mdWriter struct {
	b     strings.Builder
	lists []listState
}

type listState struct {
	ordered bool
	n       int
}

func (w *mdWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c)
	}
}

func (w *mdWriter) inline(n *html.Node) string {
	var sub mdWriter
	sub.children(n)
	return strings.TrimSpace(sub.b.String())
}

func (w *mdWriter) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.b.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		w.children(n)
		return
	}

	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		w.b.WriteString("\n" + strings.Repeat("#", level) + " " + w.inline(n) + "\n\n")
	case atom.P:
		w.b.WriteString(w.inline(n) + "\n\n")
	case atom.Br:
		w.b.WriteString("\n")
	case atom.Hr:
		w.b.WriteString("\n---\n\n")
	case atom.Strong, atom.B:
		w.b.WriteString("**" + w.inline(n) + "**")
	case atom.Em, atom.I:
		w.b.WriteString("*" + w.inline(n) + "*")
	case atom.Del, atom.S, atom.Strike:
		w.b.WriteString("~~" + w.inline(n) + "~~")
	case atom.Code:
		w.b.WriteString("`" + htmlfrag.Text(n) + "`")
	case atom.Pre:
		lang := ""
		if code := firstChildElement(n, atom.Code); code != nil {
			cls, _ := htmlfrag.Attr(code, "class")
			for _, f := range strings.Fields(cls) {
				if l, ok := strings.CutPrefix(f, "language-"); ok {
					lang = l
				}
			}
		}
		w.b.WriteString("\n```" + lang + "\n" + strings.TrimRight(htmlfrag.Text(n), "\n") + "\n```\n\n")
	case atom.A:
		href, _ := htmlfrag.Attr(n, "href")
		w.b.WriteString("[" + w.inline(n) + "](" + href + ")")
	case atom.Img:
		src, _ := htmlfrag.Attr(n, "data-src")
		if src == "" {
			src, _ = htmlfrag.Attr(n, "src")
		}
		alt, _ := htmlfrag.Attr(n, "alt")
		w.b.WriteString("![" + alt + "](" + src + ")")
	case atom.Ul, atom.Ol:
		w.lists = append(w.lists, listState{ordered: n.DataAtom == atom.Ol})
		w.b.WriteString("\n")
		w.children(n)
		w.lists = w.lists[:len(w.lists)-1]
		w.b.WriteString("\n")
	case atom.Li:
		w.listItem(n)
	case atom.Blockquote:
		for _, line := range strings.Split(w.inline(n), "\n") {
			w.b.WriteString("> " + line + "\n")
		}
		w.b.WriteString("\n")
	case atom.Script, atom.Style:
	default:
		w.children(n)
	}
}

func (w *mdWriter) listItem(n *html.Node) {
	depth := len(w.lists)
	marker := "- "
	if depth > 0 {
		st := &w.lists[depth-1]
		if st.ordered {
			st.n++
			marker = strconv.Itoa(st.n) + ". "
		}
	}
	indent := ""
	if depth > 1 {
		indent = strings.Repeat("  ", depth-1)
	}
	sub := mdWriter{lists: w.lists}
	sub.children(n)
	w.b.WriteString(indent + marker + strings.TrimSpace(sub.b.String()) + "\n")
}

func firstChildElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}
