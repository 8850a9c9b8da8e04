package richtext

import (
	"bytes"
	"regexp"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"
)

// headingIDPattern is what the sanitiser lets through as a heading id.
var headingIDPattern = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)

// headingIDs generates heading anchors that keep letters from any script,
// so "你好 World" becomes "你好-world". Duplicates get a numeric suffix.
type headingIDs struct {
	used map[string]bool
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{used: map[string]bool{}}
}

func (s *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	value = bytes.TrimSpace(value)
	var b []byte
	for len(value) > 0 {
		r, size := utf8.DecodeRune(value)
		value = value[size:]
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b = utf8.AppendRune(b, unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-' || r == '_':
			b = append(b, '-')
		}
	}
	if len(b) == 0 {
		if kind == ast.KindHeading {
			b = []byte("heading")
		} else {
			b = []byte("id")
		}
	}

	id := string(b)
	for i := 1; s.used[id]; i++ {
		id = string(b) + "-" + strconv.Itoa(i)
	}
	s.used[id] = true
	return []byte(id)
}

func (s *headingIDs) Put(value []byte) {
	s.used[string(value)] = true
}
