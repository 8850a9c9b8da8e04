package web

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cfblog/cfblog-web/internal/htmlfrag"
	"github.com/cfblog/cfblog-web/internal/lazyload"
	"github.com/cfblog/cfblog-web/internal/richtext"
	"github.com/cfblog/cfblog-web/internal/seo"
	"github.com/cfblog/cfblog-web/internal/settings"
	"github.com/cfblog/cfblog-web/internal/wp"
)

// page is one render request. An empty template means the page of the
// route being served.
type page struct {
	template string
	status   int
	view     *view
	meta     seo.Snapshot
	ld       any
}

// render executes the page, reconciles its head and writes it.
func (s *Server) render(w http.ResponseWriter, r *http.Request, site settings.SiteSettings, p page) {
	v := p.view
	v.Site = site
	v.Lang = s.locale.Lang()
	v.Path = r.URL.Path
	v.Nav = navFor(r.URL.Path)
	if p.status == 0 {
		p.status = http.StatusOK
	}
	v.Status = p.status

	if p.template == "" {
		route, _ := routeFrom(r.Context())
		p.template = route.Page
	}
	buf, err := s.execute(p.template, v)
	if err != nil {
		s.logger.Error("render page", "template", p.template, "error", err, "request_id", RequestID(r.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	doc, err := seo.ParseDocument(buf)
	if err != nil {
		s.logger.Error("parse rendered page", "template", p.template, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	seo.ApplySiteIdentity(doc, site)
	m := seo.NewManager(doc, seo.DefaultSnapshot(site, s.locale.OpenGraph()), p.meta, s.logger)
	m.Navigate(s.canonical(r))
	if v.Pager.Prev != "" {
		m.SetLink("prev", s.siteURL+v.Pager.Prev)
	}
	if v.Pager.Next != "" {
		m.SetLink("next", s.siteURL+v.Pager.Next)
	}
	if p.status != http.StatusOK {
		// The site description belongs to real pages, not error pages.
		m.RemoveMeta("description", false)
		m.RemoveMeta("og:description", true)
		m.RemoveMeta("twitter:description", false)
		m.SetMeta("robots", "noindex", false)
	}
	if p.ld != nil {
		m.SetStructuredData(p.ld)
	}
	htmlfrag.Walk(doc.Root(), func(n *html.Node) {
		if n.DataAtom == atom.Img {
			lazyload.Mark(n, lazyload.Placeholder)
		}
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(p.status)
	if err := doc.Render(w); err != nil {
		s.logger.Debug("write page", "error", err)
	}
}

// canonical is the public URL of the request.
func (s *Server) canonical(r *http.Request) string {
	u := s.siteURL + r.URL.EscapedPath()
	if q := canonicalQuery(r.URL.Query()); q != "" {
		u += "?" + q
	}
	return u
}

// canonicalQuery keeps only the parameters that change page content.
func canonicalQuery(q url.Values) string {
	keep := url.Values{}
	for _, k := range []string{"page", "q"} {
		if v := q.Get(k); v != "" && !(k == "page" && v == "1") {
			keep.Set(k, v)
		}
	}
	return keep.Encode()
}

func pageTitle(heading string, site settings.SiteSettings) string {
	if heading == "" {
		return site.Title
	}
	return heading + " - " + site.Title
}

func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func pagerFor(r *http.Request, current, total int) pager {
	p := pager{Page: current, TotalPages: total}
	link := func(n int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(n))
		return r.URL.Path + "?" + q.Encode()
	}
	if current > 1 {
		p.Prev = link(current - 1)
	}
	if current < total {
		p.Next = link(current + 1)
	}
	return p
}

// listPosts fetches a page of posts. Failures degrade to an empty list.
func (s *Server) listPosts(ctx context.Context, q wp.PostQuery) ([]postCard, int) {
	list, err := s.content.Posts(ctx, q)
	if err != nil {
		s.logger.Warn("list posts failed", "reason", wp.ReasonOf(err), "error", err, "request_id", RequestID(ctx))
		return nil, 0
	}
	cards := make([]postCard, 0, len(list.Posts))
	for _, p := range list.Posts {
		cards = append(cards, s.card(ctx, p))
	}
	return cards, list.TotalPages
}

func (s *Server) card(ctx context.Context, p wp.Post) postCard {
	return postCard{
		Title:      title(p),
		URL:        postURL(p.Slug),
		Excerpt:    excerpt(p),
		Image:      p.FeaturedImageURL,
		Published:  p.Published(),
		Categories: categoryLinks(s.taxonomy.Categories(ctx, p.Categories)),
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	site := s.settings.Settings(ctx)
	n := pageNumber(r)
	posts, total := s.listPosts(ctx, wp.PostQuery{Page: n, PerPage: s.perPage})

	s.render(w, r, site, page{
		view: &view{
			Intro: site.Description,
			Posts: posts,
			Pager: pagerFor(r, n, total),
			Empty: "暂无文章",
		},
		meta: seo.Snapshot{Type: seo.TypeBlog},
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	site := s.settings.Settings(ctx)
	s.render(w, r, site, page{
		view: &view{Heading: "分类", Terms: categoryLinks(s.taxonomy.AllCategories(ctx)), Empty: "暂无分类"},
		meta: seo.Snapshot{Title: pageTitle("分类", site)},
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	site := s.settings.Settings(ctx)
	s.render(w, r, site, page{
		view: &view{Heading: "标签", Terms: tagLinks(s.taxonomy.AllTags(ctx)), Empty: "暂无标签"},
		meta: seo.Snapshot{Title: pageTitle("标签", site)},
	})
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cat, ok := s.taxonomy.CategoryBySlug(ctx, r.PathValue("slug"))
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	s.termPage(w, r, "categories", cat.Name, cat.Description, wp.PostQuery{Categories: []int64{cat.ID}})
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tag, ok := s.taxonomy.TagBySlug(ctx, r.PathValue("slug"))
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	s.termPage(w, r, "tags", tag.Name, tag.Description, wp.PostQuery{Tags: []int64{tag.ID}})
}

func (s *Server) termPage(w http.ResponseWriter, r *http.Request, index, name, description string, q wp.PostQuery) {
	ctx := r.Context()
	parent, _ := Lookup(index)
	site := s.settings.Settings(ctx)
	n := pageNumber(r)
	q.Page, q.PerPage = n, s.perPage
	posts, total := s.listPosts(ctx, q)

	desc := richtext.PlainText(description, excerptLength)
	s.render(w, r, site, page{
		view: &view{
			Heading: name,
			Intro:   desc,
			Posts:   posts,
			Pager:   pagerFor(r, n, total),
			Empty:   "暂无文章",
		},
		meta: seo.Snapshot{Title: pageTitle(name, site), Description: desc},
		ld: seo.BreadcrumbData([]seo.Crumb{
			{Name: site.Title, URL: s.siteURL + "/"},
			{Name: parent.Nav, URL: s.siteURL + parent.Pattern},
			{Name: name, URL: s.canonical(r)},
		}),
	})
}

func (s *Server) handleArchives(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	site := s.settings.Settings(ctx)
	n := pageNumber(r)
	posts, total := s.listPosts(ctx, wp.PostQuery{Page: n, PerPage: archivePerPage})

	var months []archiveMonth
	for _, p := range posts {
		label := s.locale.FormatMonth(p.Published)
		if len(months) == 0 || months[len(months)-1].Label != label {
			months = append(months, archiveMonth{Label: label})
		}
		months[len(months)-1].Posts = append(months[len(months)-1].Posts, p)
	}

	s.render(w, r, site, page{
		view: &view{Heading: "归档", Months: months, Pager: pagerFor(r, n, total), Empty: "暂无文章"},
		meta: seo.Snapshot{Title: pageTitle("归档", site)},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	site := s.settings.Settings(ctx)
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	v := &view{Heading: "搜索", Query: q, Empty: "输入关键词搜索文章"}
	if q != "" {
		n := pageNumber(r)
		var total int
		v.Posts, total = s.listPosts(ctx, wp.PostQuery{Search: q, Page: n, PerPage: s.perPage})
		v.Pager = pagerFor(r, n, total)
		v.Empty = "没有找到相关文章"
	}

	heading := "搜索"
	if q != "" {
		heading = "搜索: " + q
	}
	s.render(w, r, site, page{
		view: v,
		meta: seo.Snapshot{Title: pageTitle(heading, site)},
	})
}

// handleStatic renders the WordPress page whose slug is the route name.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	site := s.settings.Settings(ctx)
	route, _ := routeFrom(ctx)

	v := &view{Heading: route.Nav, Empty: "暂无内容"}
	meta := seo.Snapshot{Title: pageTitle(route.Nav, site)}
	pg, err := s.content.PageBySlug(ctx, route.Name)
	switch {
	case err == nil:
		v.Heading = title(pg)
		v.Content = template.HTML(s.renderer.Content(pg.Content.Rendered)) //nolint:gosec // sanitised by the renderer
		meta.Title = pageTitle(v.Heading, site)
		meta.Description = excerpt(pg)
	case !wp.IsNotFound(err):
		s.logger.Warn("load page failed", "slug", route.Name, "reason", wp.ReasonOf(err), "error", err)
	}
	if v.Content == "" && route.Name == "about" {
		v.Intro = site.Description
	}

	s.render(w, r, site, page{view: v, meta: meta})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := s.content.PostBySlug(ctx, r.PathValue("slug"))
	if err != nil {
		if wp.IsNotFound(err) {
			s.handleNotFound(w, r)
			return
		}
		s.logger.Warn("load post failed", "slug", r.PathValue("slug"), "reason", wp.ReasonOf(err), "error", err)
		s.handleError(w, r, http.StatusBadGateway)
		return
	}

	site := s.settings.Settings(ctx)
	cats := s.taxonomy.Categories(ctx, post.Categories)
	tags := s.taxonomy.Tags(ctx, post.Tags)

	pv := &postView{
		postCard: s.card(ctx, post),
		Updated:  post.Updated(),
		Tags:     tagLinks(tags),
	}
	pv.Categories = categoryLinks(cats)

	tagNames := make([]string, 0, len(tags))
	for _, t := range tags {
		tagNames = append(tagNames, t.Name)
	}
	section := ""
	if len(cats) > 0 {
		section = cats[0].Name
	}
	published := pv.Published.Format(time.RFC3339)
	modified := pv.Updated.Format(time.RFC3339)
	if pv.Published.IsZero() {
		published, modified = "", ""
	}

	s.render(w, r, site, page{
		view: &view{
			Heading: pv.Title,
			Post:    pv,
			Content: template.HTML(s.renderer.Content(post.Content.Rendered)), //nolint:gosec // sanitised by the renderer
		},
		meta: seo.Snapshot{
			Title:         pageTitle(pv.Title, site),
			Description:   pv.Excerpt,
			Image:         post.FeaturedImageURL,
			Type:          seo.TypeArticle,
			PublishedTime: published,
			ModifiedTime:  modified,
			Section:       section,
			Tags:          tagNames,
		},
		ld: seo.ArticleData(seo.Article{
			Headline:      pv.Title,
			Description:   pv.Excerpt,
			Image:         post.FeaturedImageURL,
			DatePublished: published,
			DateModified:  modified,
			Author:        site.Author,
			Publisher:     site.Title,
			PublisherLogo: site.Logo,
		}),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.handleError(w, r, http.StatusNotFound)
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, status int) {
	site := s.settings.Settings(r.Context())
	heading := "页面不存在"
	if status != http.StatusNotFound {
		heading = "加载失败"
	}
	s.render(w, r, site, page{
		template: "error",
		status:   status,
		view:     &view{Heading: heading},
		meta:     seo.Snapshot{Title: pageTitle(heading, site)},
	})
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	b, ok := s.assets[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, name, s.started, bytes.NewReader(b))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	categories, tags := s.taxonomy.Len()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"settings": s.settings.CacheStates(),
		"taxonomy": map[string]int{"categories": categories, "tags": tags},
	})
}

func (s *Server) handleCacheRefresh(w http.ResponseWriter, r *http.Request) {
	s.settings.Clear()
	s.taxonomy.Clear()
	s.logger.Info("caches cleared", "request_id", RequestID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
