package wp

import "time"

// RootInfo is the subset of GET /wp-json we use.
type RootInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Home        string `json:"home"`
}

// User is a WordPress user.
type User struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	URL         string            `json:"url"`
	Description string            `json:"description"`
	Link        string            `json:"link"`
	Slug        string            `json:"slug"`
	AvatarURLs  map[string]string `json:"avatar_urls,omitempty"`
}

// Rendered wraps the WordPress {"rendered": "..."} shape.
type Rendered struct {
	Rendered  string `json:"rendered"`
	Protected bool   `json:"protected,omitempty"`
}

// Post is a WordPress post.
type Post struct {
	ID               int64    `json:"id"`
	Date             string   `json:"date"`
	DateGMT          string   `json:"date_gmt"`
	Modified         string   `json:"modified"`
	ModifiedGMT      string   `json:"modified_gmt"`
	Slug             string   `json:"slug"`
	Status           string   `json:"status"`
	Type             string   `json:"type"`
	Link             string   `json:"link"`
	Title            Rendered `json:"title"`
	Content          Rendered `json:"content"`
	Excerpt          Rendered `json:"excerpt"`
	Author           int64    `json:"author"`
	FeaturedMedia    int64    `json:"featured_media"`
	FeaturedImageURL string   `json:"featured_image_url,omitempty"`
	CommentStatus    string   `json:"comment_status"`
	Sticky           bool     `json:"sticky"`
	Format           string   `json:"format"`
	Categories       []int64  `json:"categories"`
	Tags             []int64  `json:"tags"`
	CommentCount     int      `json:"comment_count,omitempty"`
	ViewCount        int      `json:"view_count,omitempty"`
}

// Page is a WordPress static page. It shares the post shape.
type Page = Post

// timeLayout is the REST API's timestamp format. It carries no zone.
const timeLayout = "2006-01-02T15:04:05"

// ParseTime parses an API timestamp. The _gmt variant is read as UTC, the
// site-local one as local time. Empty or malformed input yields the zero time.
func ParseTime(gmt, local string) time.Time {
	if t, err := time.Parse(timeLayout, gmt); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(timeLayout, local, time.Local); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// Published returns when the post was published.
func (p Post) Published() time.Time {
	return ParseTime(p.DateGMT, p.Date)
}

// Updated returns when the post was last modified, or its publication time
// when no modification is recorded.
func (p Post) Updated() time.Time {
	if t := ParseTime(p.ModifiedGMT, p.Modified); !t.IsZero() {
		return t
	}
	return p.Published()
}

// Category is a category term.
type Category struct {
	ID          int64  `json:"id"`
	Count       int    `json:"count"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Taxonomy    string `json:"taxonomy"`
	Parent      int64  `json:"parent"`
}

// Tag is a tag term.
type Tag struct {
	ID          int64  `json:"id"`
	Count       int    `json:"count"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Taxonomy    string `json:"taxonomy"`
}

// PostQuery selects a page of posts.
type PostQuery struct {
	Page       int
	PerPage    int
	Categories []int64
	Tags       []int64
	Search     string
	Slug       string
	// After and Before bound the publication date; zero means unbounded.
	After  time.Time
	Before time.Time
}

// PostList is one page of posts plus the totals reported by the API.
type PostList struct {
	Posts      []Post
	Total      int
	TotalPages int
}

// TermQuery selects categories or tags.
type TermQuery struct {
	Slug      string
	PerPage   int
	HideEmpty bool
}
