// Package site names the public and admin paths of the website and resolves
// route guards for them.
package site

import (
	"strings"

	"github.com/lysyi3m/sanskrithi-site/app/content"
	"github.com/lysyi3m/sanskrithi-site/app/session"
)

type Route struct {
	Name       string             `json:"name"`
	Path       string             `json:"path"`
	Collection content.Collection `json:"collection,omitempty"`
	Detail     bool               `json:"detail,omitempty"`
	Guarded    bool               `json:"guarded"`
}

var routes = []Route{
	{Name: "home", Path: "/"},
	{Name: "about", Path: "/about"},
	{Name: "blog", Path: "/blog", Collection: content.Blogs},
	{Name: "blog-post", Path: "/blog/:id", Collection: content.Blogs, Detail: true},
	{Name: "blog-detail", Path: "/BlogDetail/:id", Collection: content.Blogs, Detail: true},
	{Name: "gurukul", Path: "/gurukul"},
	{Name: "courses", Path: "/courses", Collection: content.Courses},
	{Name: "course", Path: "/courses/:id", Collection: content.Courses, Detail: true},
	{Name: "research", Path: "/research", Collection: content.ResearchPapers},
	{Name: "research-paper", Path: "/research/:id", Collection: content.ResearchPapers, Detail: true},
	{Name: "articles", Path: "/article", Collection: content.Articles},
	{Name: "article", Path: "/article/:id", Collection: content.Articles, Detail: true},

	{Name: "admin-login", Path: session.LoginPath},
	{Name: "admin-blog", Path: "/admin/blog", Collection: content.Blogs, Guarded: true},
	{Name: "admin-course", Path: "/admin/course", Collection: content.Courses, Guarded: true},
	{Name: "admin-research", Path: "/admin/research", Collection: content.ResearchPapers, Guarded: true},
	{Name: "admin-articles", Path: "/admin/articles", Collection: content.Articles, Guarded: true},
}

func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Match finds the route for a concrete path
func Match(path string) (Route, bool) {
	path = clean(path)
	for _, r := range routes {
		if matches(r.Path, path) {
			return r, true
		}
	}
	return Route{}, false
}

// Resolution is the result of resolving a path for a session
type Resolution struct {
	Route    Route            `json:"route"`
	Found    bool             `json:"found"`
	Decision session.Decision `json:"decision"`
}

// Resolve applies the route guard for path. Unknown and public paths are allowed.
func Resolve(path string, s session.Session) Resolution {
	r, ok := Match(path)
	if !ok {
		return Resolution{Found: false, Decision: session.Decision{Allow: true}}
	}

	decision := session.Decision{Allow: true}
	if r.Guarded {
		decision = session.Guard(s.Authenticated)
	}

	return Resolution{Route: r, Found: true, Decision: decision}
}

func clean(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return "/"
	}
	return path
}

func matches(pattern, path string) bool {
	pp := strings.Split(pattern, "/")
	ps := strings.Split(path, "/")
	if len(pp) != len(ps) {
		return false
	}
	for i := range pp {
		if strings.HasPrefix(pp[i], ":") {
			if ps[i] == "" {
				return false
			}
			continue
		}
		if pp[i] != ps[i] {
			return false
		}
	}
	return true
}
