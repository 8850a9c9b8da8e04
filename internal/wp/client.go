// Package wp provides an HTTP client for the WordPress-compatible REST API.
// It only builds URLs and decodes JSON; caching lives in the services above it.
package wp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cfblog/cfblog-web/internal/version"
)

// RequestInfo describes a request about to be or just sent.
type RequestInfo struct {
	Method string
	URL    string
}

// RequestResult describes the outcome of a request.
type RequestResult struct {
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Hooks observe gateway traffic.
type Hooks interface {
	OnRequestEnd(ctx context.Context, info RequestInfo, result RequestResult)
}

// Client is an HTTP client for the blog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	hooks      Hooks
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHooks installs request hooks.
func WithHooks(h Hooks) Option {
	return func(c *Client) { c.hooks = h }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new API client rooted at baseURL.
// No client-side timeout is set; requests are bounded by their context.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SiteInfo fetches the API root document.
func (c *Client) SiteInfo(ctx context.Context) (RootInfo, error) {
	var info RootInfo
	_, err := c.get(ctx, "/wp-json", nil, &info)
	return info, err
}

// User fetches a single user.
func (c *Client) User(ctx context.Context, id int64) (User, error) {
	var u User
	_, err := c.get(ctx, "/wp-json/wp/v2/users/"+strconv.FormatInt(id, 10), nil, &u)
	return u, err
}

// Settings fetches the free-form settings object.
func (c *Client) Settings(ctx context.Context) (map[string]any, error) {
	var s map[string]any
	if _, err := c.get(ctx, "/wp-json/wp/v2/settings", nil, &s); err != nil {
		return nil, err
	}
	if s == nil {
		s = map[string]any{}
	}
	return s, nil
}

// UpdateSettings sends a partial settings object. Only 200 counts as success.
func (c *Client) UpdateSettings(ctx context.Context, partial map[string]string) error {
	u := c.buildURL("/wp-json/wp/v2/settings", nil)
	resp, err := c.do(ctx, http.MethodPut, u, partial)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &Error{Reason: ReasonStatus, Method: http.MethodPut, URL: u, StatusCode: resp.StatusCode}
	}
	return nil
}

// Category fetches one category by ID.
func (c *Client) Category(ctx context.Context, id int64) (Category, error) {
	var cat Category
	_, err := c.get(ctx, "/wp-json/wp/v2/categories/"+strconv.FormatInt(id, 10), nil, &cat)
	return cat, err
}

// Tag fetches one tag by ID.
func (c *Client) Tag(ctx context.Context, id int64) (Tag, error) {
	var tag Tag
	_, err := c.get(ctx, "/wp-json/wp/v2/tags/"+strconv.FormatInt(id, 10), nil, &tag)
	return tag, err
}

// Categories lists categories.
func (c *Client) Categories(ctx context.Context, q TermQuery) ([]Category, error) {
	var cats []Category
	_, err := c.get(ctx, "/wp-json/wp/v2/categories", q.values(), &cats)
	return cats, err
}

// Tags lists tags.
func (c *Client) Tags(ctx context.Context, q TermQuery) ([]Tag, error) {
	var tags []Tag
	_, err := c.get(ctx, "/wp-json/wp/v2/tags", q.values(), &tags)
	return tags, err
}

// Posts lists posts matching q.
func (c *Client) Posts(ctx context.Context, q PostQuery) (PostList, error) {
	var posts []Post
	header, err := c.get(ctx, "/wp-json/wp/v2/posts", q.values(), &posts)
	if err != nil {
		return PostList{}, err
	}
	list := PostList{Posts: posts, Total: len(posts), TotalPages: 1}
	if v, err := strconv.Atoi(header.Get("X-WP-Total")); err == nil {
		list.Total = v
	}
	if v, err := strconv.Atoi(header.Get("X-WP-TotalPages")); err == nil {
		list.TotalPages = v
	}
	return list, nil
}

// PostBySlug fetches the post with the given slug.
func (c *Client) PostBySlug(ctx context.Context, slug string) (Post, error) {
	list, err := c.Posts(ctx, PostQuery{Slug: slug, PerPage: 1})
	if err != nil {
		return Post{}, err
	}
	if len(list.Posts) == 0 {
		return Post{}, notFound(c.buildURL("/wp-json/wp/v2/posts", url.Values{"slug": {slug}}))
	}
	return list.Posts[0], nil
}

// PageBySlug fetches the static page with the given slug.
func (c *Client) PageBySlug(ctx context.Context, slug string) (Page, error) {
	q := url.Values{"slug": {slug}}
	var pages []Page
	if _, err := c.get(ctx, "/wp-json/wp/v2/pages", q, &pages); err != nil {
		return Page{}, err
	}
	if len(pages) == 0 {
		return Page{}, notFound(c.buildURL("/wp-json/wp/v2/pages", q))
	}
	return pages[0], nil
}

func notFound(u string) error {
	return &Error{Reason: ReasonStatus, Method: http.MethodGet, URL: u, StatusCode: http.StatusNotFound}
}

// get performs a GET and decodes a 200 JSON body into v.
func (c *Client) get(ctx context.Context, path string, query url.Values, v any) (http.Header, error) {
	u := c.buildURL(path, query)
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &Error{Reason: ReasonStatus, Method: http.MethodGet, URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Reason: ReasonTransport, Method: http.MethodGet, URL: u, StatusCode: resp.StatusCode, Cause: err}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, &Error{Reason: ReasonDecode, Method: http.MethodGet, URL: u, StatusCode: resp.StatusCode, Cause: err}
	}
	return resp.Header, nil
}

// do sends a single request. There is no retry; a failed call is reported once.
func (c *Client) do(ctx context.Context, method, u string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, &Error{Reason: ReasonTransport, Method: method, URL: u, Cause: err}
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	result := RequestResult{Duration: time.Since(start), Err: err}
	if resp != nil {
		result.StatusCode = resp.StatusCode
	}
	c.logger.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("url", u),
		slog.Int("status", result.StatusCode),
		slog.Duration("duration", result.Duration))
	if c.hooks != nil {
		c.hooks.OnRequestEnd(ctx, RequestInfo{Method: method, URL: u}, result)
	}

	if err != nil {
		return nil, &Error{Reason: ReasonTransport, Method: method, URL: u, Cause: err}
	}
	return resp, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (q PostQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if len(q.Categories) > 0 {
		v.Set("categories", joinIDs(q.Categories))
	}
	if len(q.Tags) > 0 {
		v.Set("tags", joinIDs(q.Tags))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Slug != "" {
		v.Set("slug", q.Slug)
	}
	if !q.After.IsZero() {
		v.Set("after", q.After.Format(timeLayout))
	}
	if !q.Before.IsZero() {
		v.Set("before", q.Before.Format(timeLayout))
	}
	return v
}

func (q TermQuery) values() url.Values {
	v := url.Values{}
	if q.Slug != "" {
		v.Set("slug", q.Slug)
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.HideEmpty {
		v.Set("hide_empty", "true")
	}
	return v
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
