package richtext

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the optional YAML header of a Markdown file.
type FrontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Keywords    string   `yaml:"keywords"`
	Author      string   `yaml:"author"`
	Image       string   `yaml:"image"`
	Date        string   `yaml:"date"`
	Modified    string   `yaml:"modified"`
	Section     string   `yaml:"section"`
	Tags        []string `yaml:"tags"`
}

var fence = []byte("---")

// SplitFrontMatter separates a leading "---" YAML block from the body.
// Sources without a header return a zero FrontMatter and the input unchanged.
func SplitFrontMatter(src []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	src = bytes.TrimPrefix(src, []byte("\ufeff"))

	first, rest, ok := bytes.Cut(src, []byte("\n"))
	if !ok || !isFence(first) {
		return fm, src, nil
	}

	var header []byte
	for {
		line, next, more := bytes.Cut(rest, []byte("\n"))
		if isFence(line) {
			if err := yaml.Unmarshal(header, &fm); err != nil {
				return FrontMatter{}, src, fmt.Errorf("front matter: %w", err)
			}
			return fm, next, nil
		}
		header = append(header, line...)
		header = append(header, '\n')
		if !more {
			return FrontMatter{}, src, fmt.Errorf("front matter: missing closing ---")
		}
		rest = next
	}
}

func isFence(line []byte) bool {
	return bytes.Equal(bytes.TrimRight(line, "\r \t"), fence)
}
