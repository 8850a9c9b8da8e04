// Package seo keeps a page's head metadata in line with a desired snapshot.
//
// Reconcile finds or creates one element per (kind, name) pair and sets its
// content. Fields that are empty in the snapshot are left alone; to drop an
// element, remove it explicitly. The head itself is reached through the Head
// interface; Document implements it over an HTML tree.
package seo

import (
	"github.com/cfblog/cfblog-web/internal/settings"
)

// Page types used for og:type.
const (
	TypeWebsite = "website"
	TypeArticle = "article"
	TypeBlog    = "blog"
)

// Twitter card kinds.
const (
	CardSummary      = "summary"
	CardSummaryLarge = "summary_large_image"
	CardApp          = "app"
	CardPlayer       = "player"
)

// Snapshot is the desired state of the head. Empty strings are unset.
// Tags is unset when nil; a non-nil empty slice removes every article:tag.
type Snapshot struct {
	Title          string
	Description    string
	Keywords       string
	Author         string
	Image          string
	URL            string
	Type           string
	SiteName       string
	Locale         string
	PublishedTime  string
	ModifiedTime   string
	Section        string
	Tags           []string
	TwitterCard    string
	TwitterSite    string
	TwitterCreator string
}

// Merge returns base with every set field of override applied.
func Merge(base, override Snapshot) Snapshot {
	out := base
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&out.Title, override.Title)
	pick(&out.Description, override.Description)
	pick(&out.Keywords, override.Keywords)
	pick(&out.Author, override.Author)
	pick(&out.Image, override.Image)
	pick(&out.URL, override.URL)
	pick(&out.Type, override.Type)
	pick(&out.SiteName, override.SiteName)
	pick(&out.Locale, override.Locale)
	pick(&out.PublishedTime, override.PublishedTime)
	pick(&out.ModifiedTime, override.ModifiedTime)
	pick(&out.Section, override.Section)
	pick(&out.TwitterCard, override.TwitterCard)
	pick(&out.TwitterSite, override.TwitterSite)
	pick(&out.TwitterCreator, override.TwitterCreator)
	if override.Tags != nil {
		out.Tags = append([]string{}, override.Tags...)
	}
	return out
}

// DefaultSnapshot is the base every page starts from.
func DefaultSnapshot(s settings.SiteSettings, locale string) Snapshot {
	d := settings.Defaults()
	or := func(v, fallback string) string {
		if v != "" {
			return v
		}
		return fallback
	}
	return Snapshot{
		Title:       or(s.Title, d.Title),
		Description: or(s.Description, d.Description),
		Keywords:    or(s.Keywords, d.Keywords),
		Author:      or(s.Author, d.Author),
		SiteName:    or(s.Title, d.Title),
		Locale:      or(locale, "zh_CN"),
		Type:        TypeWebsite,
		TwitterCard: CardSummaryLarge,
	}
}

// isArticle reports whether article fields apply. They are skipped only when
// the type is set to something other than article.
func (s Snapshot) isArticle() bool {
	return s.Type == "" || s.Type == TypeArticle
}
