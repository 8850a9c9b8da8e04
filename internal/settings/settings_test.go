package settings

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfblog/cfblog-web/internal/cache"
	"github.com/cfblog/cfblog-web/internal/wp"
)

type fakeGateway struct {
	root      wp.RootInfo
	user      wp.User
	generic   map[string]any
	rootErr   error
	userErr   error
	genErr    error
	updateErr error

	rootCalls, userCalls, genCalls, updateCalls atomic.Int64
	updated                                     map[string]string
}

func (g *fakeGateway) SiteInfo(context.Context) (wp.RootInfo, error) {
	g.rootCalls.Add(1)
	return g.root, g.rootErr
}

func (g *fakeGateway) User(_ context.Context, id int64) (wp.User, error) {
	g.userCalls.Add(1)
	if id != AuthorID {
		return wp.User{}, errors.New("unexpected user id")
	}
	return g.user, g.userErr
}

func (g *fakeGateway) Settings(context.Context) (map[string]any, error) {
	g.genCalls.Add(1)
	return g.generic, g.genErr
}

func (g *fakeGateway) UpdateSettings(_ context.Context, partial map[string]string) error {
	g.updateCalls.Add(1)
	g.updated = partial
	return g.updateErr
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newService(gw Gateway, clk *clock) *Service {
	return NewService(gw, 5*time.Minute, nil, cache.WithClock(clk.Now))
}

func statusErr(code int) error {
	return &wp.Error{Reason: wp.ReasonStatus, StatusCode: code}
}

func TestDefaultsFullyPopulated(t *testing.T) {
	d := Defaults()
	assert.Equal(t, "CFBlog", d.Title)
	assert.Equal(t, "CFBlog", d.Author)
	assert.Equal(t, DefaultKeywords, d.Keywords)
	assert.Equal(t, DefaultFooterText, d.FooterText)
	assert.NotEmpty(t, d.Description)
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		author   string
		generic  map[string]any
		check    func(t *testing.T, s SiteSettings)
	}{
		{
			name:     "identity beats generic blob",
			identity: Identity{Name: "A", Description: "desc"},
			author:   "Alice",
			generic:  map[string]any{"site_title": "B", "site_author": "Bob", "site_logo": "/logo.png"},
			check: func(t *testing.T, s SiteSettings) {
				assert.Equal(t, "A", s.Title)
				assert.Equal(t, "desc", s.Description)
				assert.Equal(t, "Alice", s.Author)
				assert.Equal(t, "/logo.png", s.Logo)
			},
		},
		{
			name:     "empty identity keeps generic value",
			identity: Identity{Name: "A"},
			generic:  map[string]any{"site_description": "from blob"},
			check: func(t *testing.T, s SiteSettings) {
				assert.Equal(t, "from blob", s.Description)
				assert.Equal(t, DefaultAuthor, s.Author)
			},
		},
		{
			name:    "empty and non-string values never blank a default",
			generic: map[string]any{"site_keywords": "", "site_footer_text": nil, "site_icp": map[string]any{"x": 1}},
			check: func(t *testing.T, s SiteSettings) {
				assert.Equal(t, Defaults(), s)
			},
		},
		{
			name:    "scalar values are flattened",
			generic: map[string]any{"site_icp": float64(12345)},
			check: func(t *testing.T, s SiteSettings) {
				assert.Equal(t, "12345", s.ICP)
			},
		},
		{
			name:    "unknown keys are ignored",
			generic: map[string]any{"posts_per_page": float64(10)},
			check: func(t *testing.T, s SiteSettings) {
				assert.Equal(t, Defaults(), s)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Compose(tt.identity, tt.author, tt.generic))
		})
	}
}

func TestSettingsPrecedence(t *testing.T) {
	gw := &fakeGateway{
		root:    wp.RootInfo{Name: "A"},
		user:    wp.User{Name: "Alice"},
		generic: map[string]any{"site_title": "B"},
	}
	svc := newService(gw, &clock{now: time.Now()})

	s := svc.Settings(context.Background())
	assert.Equal(t, "A", s.Title)
	assert.Equal(t, "Alice", s.Author)
	assert.Equal(t, "A", svc.Setting(context.Background(), KeyTitle))
	assert.Equal(t, "", svc.Setting(context.Background(), "nope"))
}

func TestSettingsAllFailReturnsDefaults(t *testing.T) {
	gw := &fakeGateway{
		rootErr: errors.New("dial tcp: refused"),
		userErr: statusErr(500),
		genErr:  &wp.Error{Reason: wp.ReasonDecode},
	}
	svc := newService(gw, &clock{now: time.Now()})

	assert.Equal(t, Defaults(), svc.Settings(context.Background()))
	assert.Equal(t, FallbackIdentity(), svc.SiteInfo(context.Background()))
	assert.Equal(t, DefaultAuthor, svc.Author(context.Background()))
	assert.Empty(t, svc.Generic(context.Background()))
}

func TestFallbacksAreNotCached(t *testing.T) {
	gw := &fakeGateway{rootErr: statusErr(502)}
	svc := newService(gw, &clock{now: time.Now()})

	svc.SiteInfo(context.Background())
	svc.SiteInfo(context.Background())
	assert.Equal(t, int64(2), gw.rootCalls.Load())

	gw.rootErr = nil
	gw.root = wp.RootInfo{Name: "Up again"}
	assert.Equal(t, "Up again", svc.SiteInfo(context.Background()).Name)
}

func TestSubCachesExpireIndependently(t *testing.T) {
	clk := &clock{now: time.Now()}
	gw := &fakeGateway{root: wp.RootInfo{Name: "A"}, user: wp.User{Name: "U"}, generic: map[string]any{}}
	svc := newService(gw, clk)

	svc.Settings(context.Background())
	clk.Advance(3 * time.Minute)
	svc.author.Invalidate()
	svc.Settings(context.Background())

	assert.Equal(t, int64(1), gw.rootCalls.Load())
	assert.Equal(t, int64(2), gw.userCalls.Load())
	assert.Equal(t, int64(1), gw.genCalls.Load())

	clk.Advance(2 * time.Minute)
	svc.Settings(context.Background())
	assert.Equal(t, int64(2), gw.rootCalls.Load(), "identity expired at 5m")
	assert.Equal(t, int64(2), gw.userCalls.Load(), "author refetched at 3m is still fresh")
}

func TestUpdate(t *testing.T) {
	t.Run("success invalidates every source", func(t *testing.T) {
		gw := &fakeGateway{root: wp.RootInfo{Name: "A"}, generic: map[string]any{}}
		svc := newService(gw, &clock{now: time.Now()})
		svc.Settings(context.Background())

		ok := svc.Update(context.Background(), map[string]string{KeyFooterText: "new"})
		require.True(t, ok)
		assert.Equal(t, "new", gw.updated[KeyFooterText])

		for _, st := range svc.CacheStates() {
			assert.False(t, st.Cached, st.Name)
		}
		svc.Settings(context.Background())
		assert.Equal(t, int64(2), gw.rootCalls.Load())
		assert.Equal(t, int64(2), gw.genCalls.Load())
	})

	t.Run("failure keeps caches and returns false", func(t *testing.T) {
		gw := &fakeGateway{root: wp.RootInfo{Name: "A"}, generic: map[string]any{}, updateErr: statusErr(403)}
		svc := newService(gw, &clock{now: time.Now()})
		svc.Settings(context.Background())

		assert.False(t, svc.Update(context.Background(), map[string]string{KeyTitle: "x"}))
		svc.Settings(context.Background())
		assert.Equal(t, int64(1), gw.rootCalls.Load())
	})
}

func TestServiceAgainstHTTPAPI(t *testing.T) {
	var rootHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wp-json", func(w http.ResponseWriter, r *http.Request) {
		rootHits.Add(1)
		_, _ = io.WriteString(w, `{"name":"A","description":"Notes"}`)
	})
	mux.HandleFunc("GET /wp-json/wp/v2/users/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":1,"name":"Alice"}`)
	})
	mux.HandleFunc("GET /wp-json/wp/v2/settings", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"site_title":"B","site_icp":"ICP-1"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := NewService(wp.NewClient(srv.URL), time.Minute, nil)
	s := svc.Settings(context.Background())
	assert.Equal(t, "A", s.Title)
	assert.Equal(t, "Notes", s.Description)
	assert.Equal(t, "ICP-1", s.ICP)

	svc.Settings(context.Background())
	assert.Equal(t, int64(1), rootHits.Load())
}

func TestStore(t *testing.T) {
	gw := &fakeGateway{root: wp.RootInfo{Name: "A"}, generic: map[string]any{}}
	svc := newService(gw, &clock{now: time.Now()})
	st := NewStore(svc)

	assert.Equal(t, Defaults(), st.Current())
	assert.False(t, st.Loaded())

	var seen []string
	st.OnLoad(func(s SiteSettings) { seen = append(seen, s.Title) })

	st.Load(context.Background())
	assert.True(t, st.Loaded())
	assert.False(t, st.Loading())
	assert.Equal(t, "A", st.Current().Title)

	gw.root.Name = "C"
	st.Refresh(context.Background())
	assert.Equal(t, "C", st.Current().Title)
	assert.Equal(t, []string{"A", "C"}, seen)
}

type blockingGateway struct {
	fakeGateway
	release chan struct{}
	started chan struct{}
}

func (g *blockingGateway) SiteInfo(ctx context.Context) (wp.RootInfo, error) {
	close(g.started)
	<-g.release
	return g.fakeGateway.SiteInfo(ctx)
}

func TestStoreLoadIsNotReentrant(t *testing.T) {
	gw := &blockingGateway{
		fakeGateway: fakeGateway{root: wp.RootInfo{Name: "A"}, generic: map[string]any{}},
		release:     make(chan struct{}),
		started:     make(chan struct{}),
	}
	st := NewStore(NewService(gw, time.Minute, nil))

	done := make(chan struct{})
	go func() {
		st.Load(context.Background())
		close(done)
	}()
	<-gw.started
	assert.True(t, st.Loading())

	// Returns at once; the first load is still blocked.
	st.Load(context.Background())
	assert.False(t, st.Loaded())

	close(gw.release)
	<-done
	assert.True(t, st.Loaded())
	assert.Equal(t, int64(1), gw.rootCalls.Load())
}

func TestKeys(t *testing.T) {
	for _, k := range Keys {
		assert.True(t, IsKey(k), k)
	}
	assert.False(t, IsKey("site_name"))
	assert.Len(t, Defaults().Map(), len(Keys))
}
