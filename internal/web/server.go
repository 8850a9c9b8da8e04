// Package web serves the blog as server-rendered HTML.
//
// Every page is rendered from its template into a full document, then the
// document head is reconciled with the page's metadata before it is written.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/cfblog/cfblog-web/internal/lazyload"
	"github.com/cfblog/cfblog-web/internal/locale"
	"github.com/cfblog/cfblog-web/internal/richtext"
	"github.com/cfblog/cfblog-web/internal/settings"
	"github.com/cfblog/cfblog-web/internal/taxonomy"
	"github.com/cfblog/cfblog-web/internal/wp"
)

// DefaultPerPage is the number of posts on list pages.
const DefaultPerPage = 10

// archivePerPage is how many posts one archive page groups by month.
const archivePerPage = 100

//go:embed templates static
var files embed.FS

// Content is the part of the API client pages read posts through.
type Content interface {
	Posts(ctx context.Context, q wp.PostQuery) (wp.PostList, error)
	PostBySlug(ctx context.Context, slug string) (wp.Post, error)
	PageBySlug(ctx context.Context, slug string) (wp.Page, error)
}

// Options configure a Server.
type Options struct {
	// SiteURL is the public origin used for canonical links.
	SiteURL string
	Locale  locale.Locale
	PerPage int
	Logger  *slog.Logger
}

// Server renders the route table.
type Server struct {
	content  Content
	settings *settings.Service
	taxonomy *taxonomy.Service
	renderer *richtext.Renderer

	siteURL string
	locale  locale.Locale
	perPage int
	logger  *slog.Logger

	pages   map[string]*template.Template
	assets  map[string][]byte
	started time.Time
	handler http.Handler
}

// NewServer builds a server and parses its templates.
func NewServer(content Content, site *settings.Service, terms *taxonomy.Service, renderer *richtext.Renderer, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.Locale.Tag().IsRoot() {
		opts.Locale = locale.New(locale.Default)
	}

	s := &Server{
		content:  content,
		settings: site,
		taxonomy: terms,
		renderer: renderer,
		siteURL:  opts.SiteURL,
		locale:   opts.Locale,
		perPage:  opts.PerPage,
		logger:   opts.Logger,
		started:  time.Now(),
	}

	var err error
	if s.pages, err = s.parseTemplates(); err != nil {
		return nil, err
	}
	if s.assets, err = s.loadAssets(); err != nil {
		return nil, err
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.logger.Info("serving blog", "addr", ln.Addr().String(), "site_url", s.siteURL)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (s *Server) routes() http.Handler {
	handlers := map[string]http.HandlerFunc{
		"home":            s.handleHome,
		"categories":      s.handleCategories,
		"category-detail": s.handleCategory,
		"archives":        s.handleArchives,
		"tags":            s.handleTags,
		"tag-detail":      s.handleTag,
		"links":           s.handleStatic,
		"about":           s.handleStatic,
		"post-detail":     s.handlePost,
		"search":          s.handleSearch,
		"assets":          s.handleAsset,
		"healthz":         s.handleHealth,
		"cache-refresh":   s.handleCacheRefresh,
	}

	mux := http.NewServeMux()
	for _, route := range Routes() {
		h, ok := handlers[route.Name]
		if !ok {
			panic("web: no handler for route " + route.Name)
		}
		mux.Handle(route.muxPattern(), withRoute(route, h))
	}
	mux.HandleFunc("/", s.handleNotFound)

	return requestID(accessLog(s.logger, mux))
}

func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"date":  s.locale.FormatDate,
		"count": s.locale.FormatCount,
		"iso":   func(t time.Time) string { return t.Format(time.RFC3339) },
	}

	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		page := path.Base(name)
		if page == "layout.html" {
			continue
		}
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		pages[page[:len(page)-len(".html")]] = t
	}
	return pages, nil
}

func (s *Server) loadAssets() (map[string][]byte, error) {
	assets := map[string][]byte{
		"highlight.css": []byte(s.renderer.HighlightCSS()),
	}
	sources := []struct {
		fsys fs.FS
		dir  string
	}{
		{lazyload.Assets(), "assets"},
		{files, "static"},
	}
	for _, src := range sources {
		entries, err := fs.ReadDir(src.fsys, src.dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			b, err := fs.ReadFile(src.fsys, path.Join(src.dir, e.Name()))
			if err != nil {
				return nil, err
			}
			assets[e.Name()] = b
		}
	}
	return assets, nil
}

// execute renders a page template into a buffer.
func (s *Server) execute(page string, v *view) (*bytes.Buffer, error) {
	t, ok := s.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page template %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return nil, err
	}
	return &buf, nil
}
