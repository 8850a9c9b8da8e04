package seo

import (
	"fmt"
	"strings"
)

// Attr is an element attribute.
type Attr struct {
	Key string
	Val string
}

// Selector addresses head elements by tag name and one attribute.
// When Contains is set the attribute only needs to contain Value, like CSS *=.
type Selector struct {
	Tag      string
	Attr     string
	Value    string
	Contains bool
}

// MetaName selects <meta name="...">.
func MetaName(name string) Selector {
	return Selector{Tag: "meta", Attr: "name", Value: name}
}

// MetaProperty selects <meta property="...">.
func MetaProperty(name string) Selector {
	return Selector{Tag: "meta", Attr: "property", Value: name}
}

// LinkRel selects <link rel="...">.
func LinkRel(rel string) Selector {
	return Selector{Tag: "link", Attr: "rel", Value: rel}
}

// JSONLD selects structured data script blocks.
var JSONLD = Selector{Tag: "script", Attr: "type", Value: "application/ld+json"}

// Matches reports whether an element with the given tag and attribute lookup matches s.
func (s Selector) Matches(tag string, attr func(string) (string, bool)) bool {
	if !strings.EqualFold(tag, s.Tag) {
		return false
	}
	if s.Attr == "" {
		return true
	}
	v, ok := attr(s.Attr)
	if !ok {
		return false
	}
	if s.Contains {
		return strings.Contains(v, s.Value)
	}
	return v == s.Value
}

func (s Selector) String() string {
	if s.Attr == "" {
		return s.Tag
	}
	op := "="
	if s.Contains {
		op = "*="
	}
	return fmt.Sprintf("%s[%s%s%q]", s.Tag, s.Attr, op, s.Value)
}

// Element is a head element.
type Element interface {
	Attr(key string) (string, bool)
	SetAttr(key, val string)
	Text() string
	SetText(text string)
	Remove()
}

// Head is the part of a document the reconciler reads and writes.
type Head interface {
	Title() string
	SetTitle(title string)
	// Find returns the first matching element, or nil.
	Find(sel Selector) Element
	FindAll(sel Selector) []Element
	Append(tag string, attrs ...Attr) Element
}
