package seo

import (
	"github.com/cfblog/cfblog-web/internal/settings"
)

// Reconcile makes h match every set field of s. Unset fields are not touched
// and repeated calls with the same snapshot leave the head unchanged.
func Reconcile(h Head, s Snapshot) {
	if s.Title != "" {
		h.SetTitle(s.Title)
	}

	SetMeta(h, "description", s.Description, false)
	SetMeta(h, "keywords", s.Keywords, false)
	SetMeta(h, "author", s.Author, false)

	SetMeta(h, "og:title", s.Title, true)
	SetMeta(h, "og:description", s.Description, true)
	SetMeta(h, "og:type", s.Type, true)
	SetMeta(h, "og:url", s.URL, true)
	SetMeta(h, "og:site_name", s.SiteName, true)
	SetMeta(h, "og:locale", s.Locale, true)
	SetMeta(h, "og:image", s.Image, true)

	if s.isArticle() {
		SetMeta(h, "article:published_time", s.PublishedTime, true)
		SetMeta(h, "article:modified_time", s.ModifiedTime, true)
		SetMeta(h, "article:section", s.Section, true)
		if s.Tags != nil {
			ReplaceTags(h, s.Tags)
		}
	}

	SetMeta(h, "twitter:card", s.TwitterCard, false)
	SetMeta(h, "twitter:title", s.Title, false)
	SetMeta(h, "twitter:description", s.Description, false)
	SetMeta(h, "twitter:site", s.TwitterSite, false)
	SetMeta(h, "twitter:creator", s.TwitterCreator, false)
	SetMeta(h, "twitter:image", s.Image, false)

	SetLink(h, "canonical", s.URL)
}

// SetMeta finds or creates the meta element keyed by name (or property) and
// sets its content. An empty content is a no-op.
func SetMeta(h Head, name, content string, property bool) {
	if content == "" {
		return
	}
	sel, key := MetaName(name), "name"
	if property {
		sel, key = MetaProperty(name), "property"
	}
	el := h.Find(sel)
	if el == nil {
		el = h.Append("meta", Attr{Key: key, Val: name})
	}
	el.SetAttr("content", content)
}

// RemoveMeta removes the meta element keyed by name (or property), if present.
func RemoveMeta(h Head, name string, property bool) {
	sel := MetaName(name)
	if property {
		sel = MetaProperty(name)
	}
	if el := h.Find(sel); el != nil {
		el.Remove()
	}
}

// SetLink finds or creates <link rel=rel> and sets its href. An empty href is a no-op.
func SetLink(h Head, rel, href string) {
	if href == "" {
		return
	}
	el := h.Find(LinkRel(rel))
	if el == nil {
		el = h.Append("link", Attr{Key: "rel", Val: rel})
	}
	el.SetAttr("href", href)
}

// ReplaceTags removes every article:tag element and adds one per tag, in order.
func ReplaceTags(h Head, tags []string) {
	for _, el := range h.FindAll(MetaProperty("article:tag")) {
		el.Remove()
	}
	for _, tag := range tags {
		h.Append("meta", Attr{Key: "property", Val: "article:tag"}, Attr{Key: "content", Val: tag})
	}
}

// SetFavicon points the first icon link at url, creating a shortcut icon link if none exists.
func SetFavicon(h Head, url string) {
	if url == "" {
		return
	}
	el := h.Find(Selector{Tag: "link", Attr: "rel", Value: "icon", Contains: true})
	if el == nil {
		el = h.Append("link", Attr{Key: "type", Val: "image/x-icon"}, Attr{Key: "rel", Val: "shortcut icon"})
	}
	el.SetAttr("href", url)
}

// ApplySiteIdentity writes the site-wide settings into the head: title,
// favicon, description, keywords and author. Empty settings are skipped.
func ApplySiteIdentity(h Head, s settings.SiteSettings) {
	if s.Title != "" {
		h.SetTitle(s.Title)
	}
	SetFavicon(h, s.Favicon)
	SetMeta(h, "description", s.Description, false)
	SetMeta(h, "keywords", s.Keywords, false)
	SetMeta(h, "author", s.Author, false)
}
