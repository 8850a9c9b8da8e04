package web

import "net/http"

// Route is one entry of the route table.
type Route struct {
	Name    string `json:"name"`
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
	// Page names the template rendered for the route; empty for non-page endpoints.
	Page string `json:"page,omitempty"`
	// Nav is the navigation label; routes without one are not in the menu.
	Nav string `json:"nav,omitempty"`
}

// Routes returns the route table in match-priority order.
func Routes() []Route {
	return []Route{
		{Name: "home", Method: http.MethodGet, Pattern: "/", Page: "home", Nav: "首页"},
		{Name: "categories", Method: http.MethodGet, Pattern: "/categories", Page: "terms", Nav: "分类"},
		{Name: "category-detail", Method: http.MethodGet, Pattern: "/categories/{slug}", Page: "posts"},
		{Name: "archives", Method: http.MethodGet, Pattern: "/archives", Page: "archives", Nav: "归档"},
		{Name: "tags", Method: http.MethodGet, Pattern: "/tags", Page: "terms", Nav: "标签"},
		{Name: "tag-detail", Method: http.MethodGet, Pattern: "/tags/{slug}", Page: "posts"},
		{Name: "links", Method: http.MethodGet, Pattern: "/links", Page: "static", Nav: "友链"},
		{Name: "about", Method: http.MethodGet, Pattern: "/about", Page: "static", Nav: "关于"},
		{Name: "post-detail", Method: http.MethodGet, Pattern: "/posts/{slug}", Page: "post"},
		{Name: "search", Method: http.MethodGet, Pattern: "/search", Page: "search"},
		{Name: "assets", Method: http.MethodGet, Pattern: "/assets/{file}"},
		{Name: "healthz", Method: http.MethodGet, Pattern: "/healthz"},
		{Name: "cache-refresh", Method: http.MethodPost, Pattern: "/-/cache/refresh"},
	}
}

// Lookup returns the route with name.
func Lookup(name string) (Route, bool) {
	for _, r := range Routes() {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// muxPattern is the ServeMux pattern for r. The root pattern only matches "/"
// itself so unknown paths fall through to the not-found handler.
func (r Route) muxPattern() string {
	p := r.Pattern
	if p == "/" {
		p = "/{$}"
	}
	return r.Method + " " + p
}
