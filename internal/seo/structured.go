package seo

import (
	"encoding/json"
	"fmt"
)

const schemaContext = "https://schema.org"

// SetStructuredData replaces the JSON-LD block with v. The head holds at most
// one block; on a marshal error the existing block is left in place.
func SetStructuredData(h Head, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode structured data: %w", err)
	}
	for _, el := range h.FindAll(JSONLD) {
		el.Remove()
	}
	el := h.Append("script", Attr{Key: "type", Val: JSONLD.Value})
	el.SetText(string(b))
	return nil
}

// StructuredData returns the current JSON-LD text, if any.
func StructuredData(h Head) (string, bool) {
	el := h.Find(JSONLD)
	if el == nil {
		return "", false
	}
	return el.Text(), true
}

// Article describes a post for ArticleData.
type Article struct {
	Headline      string
	Description   string
	Image         string
	DatePublished string
	DateModified  string
	Author        string
	Publisher     string
	PublisherLogo string
}

type ldThing struct {
	Type string `json:"@type"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

type ldOrganization struct {
	Type string   `json:"@type"`
	Name string   `json:"name"`
	Logo *ldThing `json:"logo,omitempty"`
}

// ArticleLD is a schema.org Article.
type ArticleLD struct {
	Context       string         `json:"@context"`
	Type          string         `json:"@type"`
	Headline      string         `json:"headline"`
	Description   string         `json:"description"`
	Image         string         `json:"image,omitempty"`
	DatePublished string         `json:"datePublished"`
	DateModified  string         `json:"dateModified"`
	Author        ldThing        `json:"author"`
	Publisher     ldOrganization `json:"publisher"`
}

// ArticleData builds the Article structured data for a post. A missing
// modification date falls back to the publication date.
func ArticleData(a Article) ArticleLD {
	ld := ArticleLD{
		Context:       schemaContext,
		Type:          "Article",
		Headline:      a.Headline,
		Description:   a.Description,
		Image:         a.Image,
		DatePublished: a.DatePublished,
		DateModified:  a.DateModified,
		Author:        ldThing{Type: "Person", Name: a.Author},
		Publisher:     ldOrganization{Type: "Organization", Name: a.Publisher},
	}
	if ld.DateModified == "" {
		ld.DateModified = a.DatePublished
	}
	if a.PublisherLogo != "" {
		ld.Publisher.Logo = &ldThing{Type: "ImageObject", URL: a.PublisherLogo}
	}
	return ld
}

// Crumb is one breadcrumb entry.
type Crumb struct {
	Name string
	URL  string
}

type ldListItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Item     string `json:"item"`
}

// BreadcrumbLD is a schema.org BreadcrumbList.
type BreadcrumbLD struct {
	Context string       `json:"@context"`
	Type    string       `json:"@type"`
	Items   []ldListItem `json:"itemListElement"`
}

// BreadcrumbData builds a BreadcrumbList with 1-based positions.
func BreadcrumbData(crumbs []Crumb) BreadcrumbLD {
	ld := BreadcrumbLD{Context: schemaContext, Type: "BreadcrumbList", Items: make([]ldListItem, len(crumbs))}
	for i, c := range crumbs {
		ld.Items[i] = ldListItem{Type: "ListItem", Position: i + 1, Name: c.Name, Item: c.URL}
	}
	return ld
}
