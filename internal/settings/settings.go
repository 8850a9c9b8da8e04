// Package settings serves site-wide settings from the blog API.
//
// The full settings object is composed from three upstream sources, each
// cached on its own: the API root (site title and description), user 1 (the
// author) and the generic settings blob. Reads never fail; anything that
// cannot be fetched falls back to the built-in defaults.
package settings

import (
	"fmt"
	"strconv"
)

// Default values used when the API does not provide a field.
const (
	DefaultTitle       = "CFBlog"
	DefaultDescription = "基于 Cloudflare Workers + D1 + R2 构建的现代化博客系统"
	DefaultKeywords    = "blog, cloudflare, workers, vue3, typescript"
	DefaultAuthor      = "CFBlog"
	DefaultFooterText  = "© 2024 CFBlog. Powered by Cloudflare Workers."
)

// Setting keys.
const (
	KeyTitle       = "site_title"
	KeyDescription = "site_description"
	KeyKeywords    = "site_keywords"
	KeyAuthor      = "site_author"
	KeyFavicon     = "site_favicon"
	KeyLogo        = "site_logo"
	KeyICP         = "site_icp"
	KeyFooterText  = "site_footer_text"
)

// Keys lists every setting key in display order.
var Keys = []string{
	KeyTitle,
	KeyDescription,
	KeyKeywords,
	KeyAuthor,
	KeyFavicon,
	KeyLogo,
	KeyICP,
	KeyFooterText,
}

// SiteSettings is the flat set of site-wide settings.
type SiteSettings struct {
	Title       string `json:"site_title"`
	Description string `json:"site_description"`
	Keywords    string `json:"site_keywords"`
	Author      string `json:"site_author"`
	Favicon     string `json:"site_favicon"`
	Logo        string `json:"site_logo"`
	ICP         string `json:"site_icp"`
	FooterText  string `json:"site_footer_text"`
}

// Defaults returns the built-in settings.
func Defaults() SiteSettings {
	return SiteSettings{
		Title:       DefaultTitle,
		Description: DefaultDescription,
		Keywords:    DefaultKeywords,
		Author:      DefaultAuthor,
		FooterText:  DefaultFooterText,
	}
}

// Get returns the value for key, or "" for unknown keys.
func (s SiteSettings) Get(key string) string {
	if p := s.field(key); p != nil {
		return *p
	}
	return ""
}

// Map returns the settings keyed by their API names.
func (s SiteSettings) Map() map[string]string {
	m := make(map[string]string, len(Keys))
	for _, k := range Keys {
		m[k] = s.Get(k)
	}
	return m
}

// IsKey reports whether key names a setting.
func IsKey(key string) bool {
	var s SiteSettings
	return s.field(key) != nil
}

func (s *SiteSettings) field(key string) *string {
	switch key {
	case KeyTitle:
		return &s.Title
	case KeyDescription:
		return &s.Description
	case KeyKeywords:
		return &s.Keywords
	case KeyAuthor:
		return &s.Author
	case KeyFavicon:
		return &s.Favicon
	case KeyLogo:
		return &s.Logo
	case KeyICP:
		return &s.ICP
	case KeyFooterText:
		return &s.FooterText
	}
	return nil
}

// set stores v under key unless v is empty.
func (s *SiteSettings) set(key, v string) {
	if v == "" {
		return
	}
	if p := s.field(key); p != nil {
		*p = v
	}
}

// Identity is the site identity served by the API root.
type Identity struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FallbackIdentity is returned when the API root cannot be fetched.
func FallbackIdentity() Identity {
	return Identity{Name: DefaultTitle}
}

// Compose merges the three sources. Precedence, lowest first: defaults, the
// generic blob, then the identity fields. Empty values never replace a
// populated field, so the result is always fully populated.
func Compose(identity Identity, author string, generic map[string]any) SiteSettings {
	s := Defaults()
	for _, k := range Keys {
		s.set(k, stringValue(generic[k]))
	}
	s.set(KeyTitle, identity.Name)
	s.set(KeyDescription, identity.Description)
	s.set(KeyAuthor, author)
	return s
}

// stringValue flattens the scalar values the settings endpoint may return.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
