package settings

import (
	"context"
	"log/slog"
	"time"

	"github.com/cfblog/cfblog-web/internal/cache"
	"github.com/cfblog/cfblog-web/internal/wp"
)

// AuthorID is the user whose name is used as the site author.
const AuthorID = 1

// Gateway is the part of the API client the settings service needs.
type Gateway interface {
	SiteInfo(ctx context.Context) (wp.RootInfo, error)
	User(ctx context.Context, id int64) (wp.User, error)
	Settings(ctx context.Context) (map[string]any, error)
	UpdateSettings(ctx context.Context, partial map[string]string) error
}

// Service reads and updates site settings through per-source caches.
type Service struct {
	gw     Gateway
	logger *slog.Logger

	identity *cache.Timed[Identity]
	author   *cache.Timed[string]
	generic  *cache.Timed[map[string]any]
}

// NewService creates a settings service. Every source is cached for ttl.
func NewService(gw Gateway, ttl time.Duration, logger *slog.Logger, opts ...cache.TimedOption) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		gw:       gw,
		logger:   logger,
		identity: cache.NewTimed[Identity]("site_info", ttl, opts...),
		author:   cache.NewTimed[string]("site_author", ttl, opts...),
		generic:  cache.NewTimed[map[string]any]("site_settings", ttl, opts...),
	}
}

// SiteInfo returns the site name and description from the API root.
// On failure it returns FallbackIdentity, which is not cached.
func (s *Service) SiteInfo(ctx context.Context) Identity {
	id, err := s.identity.Get(ctx, func(ctx context.Context) (Identity, error) {
		root, err := s.gw.SiteInfo(ctx)
		if err != nil {
			return Identity{}, err
		}
		id := Identity{Name: root.Name, Description: root.Description}
		if id.Name == "" {
			id.Name = DefaultTitle
		}
		return id, nil
	})
	if err != nil {
		s.warn("site info unavailable", err)
		return FallbackIdentity()
	}
	return id
}

// Author returns the display name of the site author.
func (s *Service) Author(ctx context.Context) string {
	name, err := s.author.Get(ctx, func(ctx context.Context) (string, error) {
		u, err := s.gw.User(ctx, AuthorID)
		if err != nil {
			return "", err
		}
		if u.Name == "" {
			return DefaultAuthor, nil
		}
		return u.Name, nil
	})
	if err != nil {
		s.warn("author unavailable", err)
		return DefaultAuthor
	}
	return name
}

// Generic returns the free-form settings blob, or an empty map on failure.
func (s *Service) Generic(ctx context.Context) map[string]any {
	m, err := s.generic.Get(ctx, s.gw.Settings)
	if err != nil {
		s.warn("settings unavailable, using defaults", err)
		return map[string]any{}
	}
	return m
}

// Settings returns the composed site settings. Each source is read from its
// own cache, so one source expiring does not refetch the others.
func (s *Service) Settings(ctx context.Context) SiteSettings {
	return Compose(s.SiteInfo(ctx), s.Author(ctx), s.Generic(ctx))
}

// Setting returns a single field, or "" if key is unknown.
func (s *Service) Setting(ctx context.Context, key string) string {
	return s.Settings(ctx).Get(key)
}

// Update writes partial to the API. It returns true only when the API
// answered 200, in which case every cached source is dropped.
func (s *Service) Update(ctx context.Context, partial map[string]string) bool {
	if err := s.gw.UpdateSettings(ctx, partial); err != nil {
		s.warn("settings update failed", err)
		return false
	}
	s.Clear()
	return true
}

// Clear drops every cached source.
func (s *Service) Clear() {
	s.identity.Invalidate()
	s.author.Invalidate()
	s.generic.Invalidate()
}

// CacheState describes one cached source.
type CacheState struct {
	Name      string    `json:"name"`
	Cached    bool      `json:"cached"`
	Fresh     bool      `json:"fresh"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

// CacheStates reports the state of every source cache.
func (s *Service) CacheStates() []CacheState {
	return []CacheState{
		state(s.identity),
		state(s.author),
		state(s.generic),
	}
}

func state[V any](c *cache.Timed[V]) CacheState {
	st := CacheState{Name: c.Name(), Fresh: c.Fresh()}
	if e, ok := c.Peek(); ok {
		st.Cached = true
		st.FetchedAt = e.FetchedAt
	}
	return st
}

func (s *Service) warn(msg string, err error) {
	s.logger.Warn(msg, "reason", string(wp.ReasonOf(err)), "error", err)
}
