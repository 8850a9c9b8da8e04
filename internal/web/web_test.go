package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfblog/cfblog-web/internal/locale"
	"github.com/cfblog/cfblog-web/internal/richtext"
	"github.com/cfblog/cfblog-web/internal/seo"
	"github.com/cfblog/cfblog-web/internal/settings"
	"github.com/cfblog/cfblog-web/internal/taxonomy"
	"github.com/cfblog/cfblog-web/internal/wp"
)

const siteURL = "https://blog.example.com"

const helloPost = `{
	"id": 11,
	"slug": "hello",
	"date_gmt": "2024-03-05T10:20:30",
	"modified_gmt": "2024-03-06T08:00:00",
	"title": {"rendered": "Hello &amp; welcome"},
	"excerpt": {"rendered": "<p>First post.</p>"},
	"content": {"rendered": "# Intro\n\nSee [docs](https://go.dev) and ![shot](/img/a.png)\n\n<script>alert(1)</script>"},
	"featured_image_url": "https://cdn.example/cover.png",
	"categories": [3],
	"tags": [7, 8]
}`

type fakeAPI struct {
	postsDown atomic.Bool
	requests  atomic.Int64
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wp-json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"name":"My Blog","description":"Notes on Go"}`)
	})
	mux.HandleFunc("GET /wp-json/wp/v2/users/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":1,"name":"Ann"}`)
	})
	mux.HandleFunc("GET /wp-json/wp/v2/settings", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"site_keywords":"go, web","site_favicon":"/favicon.png","site_icp":"ICP 123"}`)
	})
	mux.HandleFunc("GET /wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		if f.postsDown.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		q := r.URL.Query()
		switch {
		case q.Get("slug") == "hello":
			_, _ = io.WriteString(w, "["+helloPost+"]")
			return
		case q.Get("slug") != "":
			_, _ = io.WriteString(w, "[]")
			return
		case q.Get("search") == "nothing":
			w.Header().Set("X-WP-Total", "0")
			w.Header().Set("X-WP-TotalPages", "0")
			_, _ = io.WriteString(w, "[]")
			return
		}
		w.Header().Set("X-WP-Total", "12")
		w.Header().Set("X-WP-TotalPages", "2")
		_, _ = io.WriteString(w, "["+helloPost+`,{"id":12,"slug":"older","date_gmt":"2024-02-01T00:00:00","title":{"rendered":"Older"},"excerpt":{"rendered":""},"content":{"rendered":"<p>Older body</p>"}}]`)
	})
	mux.HandleFunc("GET /wp-json/wp/v2/pages", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("slug") == "about" {
			_, _ = io.WriteString(w, `[{"id":2,"slug":"about","title":{"rendered":"About me"},"content":{"rendered":"<p>I write <b>Go</b>.</p>"},"excerpt":{"rendered":""}}]`)
			return
		}
		_, _ = io.WriteString(w, "[]")
	})
	mux.HandleFunc("GET /wp-json/wp/v2/categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "3" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"id":3,"name":"Go","slug":"go","count":2}`)
	})
	mux.HandleFunc("GET /wp-json/wp/v2/tags/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		fmt.Fprintf(w, `{"id":%s,"name":"t%s","slug":"t%s","count":1}`, id, id, id)
	})
	mux.HandleFunc("GET /wp-json/wp/v2/categories", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("slug") {
		case "", "go":
			_, _ = io.WriteString(w, `[{"id":3,"name":"Go","slug":"go","count":2,"description":"All about Go"}]`)
		default:
			_, _ = io.WriteString(w, "[]")
		}
	})
	mux.HandleFunc("GET /wp-json/wp/v2/tags", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("slug") {
		case "", "t7":
			_, _ = io.WriteString(w, `[{"id":7,"name":"t7","slug":"t7","count":1200}]`)
		default:
			_, _ = io.WriteString(w, "[]")
		}
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		mux.ServeHTTP(w, r)
	})
}

func newTestServer(t *testing.T) (*Server, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	client := wp.NewClient(srv.URL)
	s, err := NewServer(
		client,
		settings.NewService(client, time.Minute, nil),
		taxonomy.NewService(client, 0, nil, nil),
		richtext.NewRenderer(richtext.Options{SiteURL: siteURL}),
		Options{SiteURL: siteURL, Locale: locale.New("zh_CN")},
	)
	require.NoError(t, err)
	return s, api
}

func get(t *testing.T, s *Server, target string) (*httptest.ResponseRecorder, *seo.Document) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		return rec, nil
	}
	doc, err := seo.ParseDocument(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return rec, doc
}

func meta(t *testing.T, doc *seo.Document, sel seo.Selector) string {
	t.Helper()
	el := doc.Find(sel)
	require.NotNil(t, el, "missing %s", sel)
	v, _ := el.Attr("content")
	return v
}

func TestRoutesTable(t *testing.T) {
	names := map[string]bool{}
	for _, r := range Routes() {
		assert.False(t, names[r.Name], "duplicate route %s", r.Name)
		names[r.Name] = true
	}
	for _, want := range []string{"home", "categories", "category-detail", "archives", "tags", "tag-detail", "links", "about", "post-detail", "search"} {
		r, ok := Lookup(want)
		require.True(t, ok, want)
		assert.NotEmpty(t, r.Page, want)
	}
	home, _ := Lookup("home")
	assert.Equal(t, "GET /{$}", home.muxPattern())
	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestRoutePagesAreTemplates(t *testing.T) {
	s, _ := newTestServer(t)
	pages, err := s.parseTemplates()
	require.NoError(t, err)

	for _, r := range Routes() {
		if r.Page == "" {
			continue
		}
		assert.Contains(t, pages, r.Page, "route %s", r.Name)
	}
	for name, want := range map[string]string{
		"categories":      "terms",
		"tags":            "terms",
		"category-detail": "posts",
		"tag-detail":      "posts",
	} {
		r, _ := Lookup(name)
		assert.Equal(t, want, r.Page, name)
	}
}

func TestHomePage(t *testing.T) {
	s, _ := newTestServer(t)
	rec, doc := get(t, s, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "My Blog", doc.Title())
	assert.Equal(t, "Notes on Go", meta(t, doc, seo.MetaName("description")))
	assert.Equal(t, "go, web", meta(t, doc, seo.MetaName("keywords")))
	assert.Equal(t, "Ann", meta(t, doc, seo.MetaName("author")))
	assert.Equal(t, "blog", meta(t, doc, seo.MetaProperty("og:type")))
	assert.Equal(t, siteURL+"/", meta(t, doc, seo.MetaProperty("og:url")))

	body := rec.Body.String()
	assert.Contains(t, body, "Hello &amp; welcome")
	assert.Contains(t, body, `href="/posts/hello"`)
	assert.Contains(t, body, `href="/categories/go"`)
	assert.Contains(t, body, "2024年3月5日")
	assert.Contains(t, body, "ICP 123")
	assert.Contains(t, body, `rel="next"`)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	next := doc.Find(seo.LinkRel("next"))
	require.NotNil(t, next)
	href, _ := next.Attr("href")
	assert.Equal(t, siteURL+"/?page=2", href)
	assert.Nil(t, doc.Find(seo.LinkRel("prev")))
}

func TestHomeDegradesWhenPostsFail(t *testing.T) {
	s, api := newTestServer(t)
	api.postsDown.Store(true)

	rec, _ := get(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "暂无文章")
}

func TestPostPage(t *testing.T) {
	s, _ := newTestServer(t)
	rec, doc := get(t, s, "/posts/hello")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Hello & welcome - My Blog", doc.Title())
	assert.Equal(t, "article", meta(t, doc, seo.MetaProperty("og:type")))
	assert.Equal(t, "First post.", meta(t, doc, seo.MetaName("description")))
	assert.Equal(t, "https://cdn.example/cover.png", meta(t, doc, seo.MetaProperty("og:image")))
	assert.Equal(t, "2024-03-05T10:20:30Z", meta(t, doc, seo.MetaProperty("article:published_time")))
	assert.Equal(t, "Go", meta(t, doc, seo.MetaProperty("article:section")))

	var tags []string
	for _, el := range doc.FindAll(seo.MetaProperty("article:tag")) {
		v, _ := el.Attr("content")
		tags = append(tags, v)
	}
	assert.Equal(t, []string{"t7", "t8"}, tags)

	canonical := doc.Find(seo.LinkRel("canonical"))
	require.NotNil(t, canonical)
	href, _ := canonical.Attr("href")
	assert.Equal(t, siteURL+"/posts/hello", href)

	raw, ok := seo.StructuredData(doc)
	require.True(t, ok)
	var ld map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &ld))
	assert.Equal(t, "Article", ld["@type"])
	assert.Equal(t, "2024-03-06T08:00:00Z", ld["dateModified"])

	body := rec.Body.String()
	assert.NotContains(t, body, "alert(1)")
	assert.Contains(t, body, `target="_blank"`)
	assert.Contains(t, body, `data-src="/img/a.png"`)
	assert.Contains(t, body, `class="lazy-loading"`)
	assert.Contains(t, body, `href="/tags/t8"`)
}

func TestPostNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec, doc := get(t, s, "/posts/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "页面不存在 - My Blog", doc.Title())
	assert.Equal(t, "noindex", meta(t, doc, seo.MetaName("robots")))
	assert.Nil(t, doc.Find(seo.MetaName("description")))
	assert.Nil(t, doc.Find(seo.MetaProperty("og:description")))
}

func TestPostUpstreamFailure(t *testing.T) {
	s, api := newTestServer(t)
	api.postsDown.Store(true)
	rec, _ := get(t, s, "/posts/hello")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUnknownPathIsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := get(t, s, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryDetail(t *testing.T) {
	s, _ := newTestServer(t)
	rec, doc := get(t, s, "/categories/go")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Go - My Blog", doc.Title())
	assert.Equal(t, "All about Go", meta(t, doc, seo.MetaName("description")))

	raw, ok := seo.StructuredData(doc)
	require.True(t, ok)
	assert.Contains(t, raw, "BreadcrumbList")
	assert.Contains(t, raw, siteURL+"/categories")
	assert.Contains(t, raw, `"name":"分类"`)

	rec, _ = get(t, s, "/categories/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTagDetailAndIndexes(t *testing.T) {
	s, _ := newTestServer(t)

	rec, doc := get(t, s, "/tags/t7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t7 - My Blog", doc.Title())

	rec, _ = get(t, s, "/tags")
	assert.Contains(t, rec.Body.String(), "1,200")

	rec, _ = get(t, s, "/categories")
	assert.Contains(t, rec.Body.String(), `href="/categories/go"`)
}

func TestArchivesGroupByMonth(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := get(t, s, "/archives")
	body := rec.Body.String()
	assert.Contains(t, body, "2024年3月")
	assert.Contains(t, body, "2024年2月")
	assert.Less(t, strings.Index(body, "2024年3月"), strings.Index(body, "2024年2月"))
}

func TestSearch(t *testing.T) {
	s, _ := newTestServer(t)

	rec, doc := get(t, s, "/search?q=nothing")
	assert.Contains(t, rec.Body.String(), "没有找到相关文章")
	href, _ := doc.Find(seo.LinkRel("canonical")).Attr("href")
	assert.Equal(t, siteURL+"/search?q=nothing", href)

	rec, _ = get(t, s, "/search")
	assert.Contains(t, rec.Body.String(), "输入关键词搜索文章")
}

func TestStaticPages(t *testing.T) {
	s, _ := newTestServer(t)

	rec, doc := get(t, s, "/about")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "About me - My Blog", doc.Title())
	assert.Contains(t, rec.Body.String(), "<b>Go</b>")

	rec, _ = get(t, s, "/links")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "暂无内容")
}

func TestAssets(t *testing.T) {
	s, _ := newTestServer(t)
	for _, name := range []string{"lazy.js", "lazy.css", "site.css", "highlight.css"} {
		rec, _ := get(t, s, "/assets/"+name)
		assert.Equal(t, http.StatusOK, rec.Code, name)
		assert.NotEmpty(t, rec.Body.String(), name)
	}
	rec, _ := get(t, s, "/assets/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndCacheRefresh(t *testing.T) {
	s, api := newTestServer(t)
	get(t, s, "/posts/hello")

	rec, _ := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var health struct {
		Status   string           `json:"status"`
		Taxonomy map[string]int   `json:"taxonomy"`
		Settings []map[string]any `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Taxonomy["categories"])
	assert.Len(t, health.Settings, 3)

	// Cached: a second render does not refetch settings or terms.
	before := api.requests.Load()
	get(t, s, "/posts/hello")
	assert.Equal(t, before+1, api.requests.Load())

	refresh := httptest.NewRecorder()
	s.Handler().ServeHTTP(refresh, httptest.NewRequest(http.MethodPost, "/-/cache/refresh", nil))
	assert.Equal(t, http.StatusOK, refresh.Code)
	assert.JSONEq(t, `{"ok":true}`, refresh.Body.String())

	c, tg := s.taxonomy.Len()
	assert.Zero(t, c)
	assert.Zero(t, tg)
}

func TestRequestIDIsPropagated(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
