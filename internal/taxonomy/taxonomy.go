// Package taxonomy looks up categories and tags by ID through an in-memory index.
//
// Entries are immutable once fetched and stay cached until Clear. A term
// that cannot be fetched, for any reason, is reported as absent.
package taxonomy

import (
	"context"
	"log/slog"
	"time"

	"github.com/cfblog/cfblog-web/internal/cache"
	"github.com/cfblog/cfblog-web/internal/wp"
)

// Gateway is the part of the API client the taxonomy service needs.
type Gateway interface {
	Category(ctx context.Context, id int64) (wp.Category, error)
	Tag(ctx context.Context, id int64) (wp.Tag, error)
	Categories(ctx context.Context, q wp.TermQuery) ([]wp.Category, error)
	Tags(ctx context.Context, q wp.TermQuery) ([]wp.Tag, error)
}

// Service caches categories and tags by ID.
type Service struct {
	gw         Gateway
	logger     *slog.Logger
	categories *cache.Index[int64, wp.Category]
	tags       *cache.Index[int64, wp.Tag]
}

// NewService creates a taxonomy service. A ttl of zero keeps entries until Clear.
func NewService(gw Gateway, ttl time.Duration, observer cache.Observer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		gw:         gw,
		logger:     logger,
		categories: cache.NewIndex[int64, wp.Category]("categories", ttl, observer),
		tags:       cache.NewIndex[int64, wp.Tag]("tags", ttl, observer),
	}
}

// Category returns the category with id.
func (s *Service) Category(ctx context.Context, id int64) (wp.Category, bool) {
	c, err := s.categories.Get(ctx, id, s.fetchCategory)
	return c, err == nil
}

// Categories returns the categories for ids in the given order, skipping any
// that could not be fetched.
func (s *Service) Categories(ctx context.Context, ids []int64) []wp.Category {
	return s.categories.GetMany(ctx, ids, s.fetchCategory)
}

// Tag returns the tag with id.
func (s *Service) Tag(ctx context.Context, id int64) (wp.Tag, bool) {
	t, err := s.tags.Get(ctx, id, s.fetchTag)
	return t, err == nil
}

// Tags returns the tags for ids in the given order, skipping any that could
// not be fetched.
func (s *Service) Tags(ctx context.Context, ids []int64) []wp.Tag {
	return s.tags.GetMany(ctx, ids, s.fetchTag)
}

// CategoryBySlug resolves a category through the list endpoint and indexes it by ID.
func (s *Service) CategoryBySlug(ctx context.Context, slug string) (wp.Category, bool) {
	cats, err := s.gw.Categories(ctx, wp.TermQuery{Slug: slug})
	if err != nil {
		s.log(ctx, "category lookup failed", err, slog.String("slug", slug))
		return wp.Category{}, false
	}
	if len(cats) == 0 {
		return wp.Category{}, false
	}
	s.categories.Put(cats[0].ID, cats[0])
	return cats[0], true
}

// TagBySlug resolves a tag through the list endpoint and indexes it by ID.
func (s *Service) TagBySlug(ctx context.Context, slug string) (wp.Tag, bool) {
	tags, err := s.gw.Tags(ctx, wp.TermQuery{Slug: slug})
	if err != nil {
		s.log(ctx, "tag lookup failed", err, slog.String("slug", slug))
		return wp.Tag{}, false
	}
	if len(tags) == 0 {
		return wp.Tag{}, false
	}
	s.tags.Put(tags[0].ID, tags[0])
	return tags[0], true
}

// AllCategories lists non-empty categories and indexes them. It returns nil
// when the list cannot be fetched.
func (s *Service) AllCategories(ctx context.Context) []wp.Category {
	cats, err := s.gw.Categories(ctx, wp.TermQuery{PerPage: 100, HideEmpty: true})
	if err != nil {
		s.log(ctx, "category list failed", err)
		return nil
	}
	for _, c := range cats {
		s.categories.Put(c.ID, c)
	}
	return cats
}

// AllTags lists non-empty tags and indexes them. It returns nil when the
// list cannot be fetched.
func (s *Service) AllTags(ctx context.Context) []wp.Tag {
	tags, err := s.gw.Tags(ctx, wp.TermQuery{PerPage: 100, HideEmpty: true})
	if err != nil {
		s.log(ctx, "tag list failed", err)
		return nil
	}
	for _, t := range tags {
		s.tags.Put(t.ID, t)
	}
	return tags
}

// Clear drops every cached category and tag.
func (s *Service) Clear() {
	s.categories.Clear()
	s.tags.Clear()
}

// Len returns the number of cached categories and tags.
func (s *Service) Len() (categories, tags int) {
	return s.categories.Len(), s.tags.Len()
}

func (s *Service) fetchCategory(ctx context.Context, id int64) (wp.Category, error) {
	c, err := s.gw.Category(ctx, id)
	if err != nil {
		s.log(ctx, "category unavailable", err, slog.Int64("id", id))
	}
	return c, err
}

func (s *Service) fetchTag(ctx context.Context, id int64) (wp.Tag, error) {
	t, err := s.gw.Tag(ctx, id)
	if err != nil {
		s.log(ctx, "tag unavailable", err, slog.Int64("id", id))
	}
	return t, err
}

// log records a failed lookup. A non-success status means the term does not
// exist, which is routine; everything else is worth a warning.
func (s *Service) log(ctx context.Context, msg string, err error, attrs ...any) {
	reason := wp.ReasonOf(err)
	args := append([]any{slog.String("reason", string(reason)), slog.Any("error", err)}, attrs...)
	if reason == wp.ReasonStatus {
		s.logger.DebugContext(ctx, msg, args...)
		return
	}
	s.logger.WarnContext(ctx, msg, args...)
}
