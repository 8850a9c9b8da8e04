package richtext

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// DefaultWidth is the wrap width for terminal rendering.
const DefaultWidth = 80

// RenderTerminal renders Markdown for terminal display using glamour.
// A width <= 0 uses DefaultWidth.
func RenderTerminal(md string, width int) (string, error) {
	if md == "" {
		return "", nil
	}
	if width <= 0 {
		width = DefaultWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	out, err := r.Render(md)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}
