package client

import (
	"context"
	"strings"

	"github.com/VJYGOUR/auth-system/internal/models"
)

// LoginPath is where anonymous visitors of protected routes are sent.
const LoginPath = "/login"

// Kind says what a navigation should do.
type Kind int

const (
	// Placeholder means the auth state is still loading; show neither the
	// guarded content nor a redirect.
	Placeholder Kind = iota
	Redirect
	Render
	Forbidden
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Placeholder:
		return "placeholder"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	case Forbidden:
		return "forbidden"
	default:
		return "not_found"
	}
}

// View renders a page for the current user.
type View func(ctx context.Context, user *models.PublicUser) (string, error)

// Route is one node of the route tree. Protection is inherited: every
// descendant of a protected route is protected, and role sets accumulate.
type Route struct {
	Path      string
	View      View
	Protected bool
	// Roles, when set, admit users holding any one of them.
	Roles    []string
	Children []Route
}

// Outcome is the result of evaluating a navigation.
type Outcome struct {
	Kind  Kind
	Route *Route
	// To and From are set for redirects; From is the originally requested
	// path so the login page can return there.
	To   string
	From string
}

// RoleChecker reports whether user holds role.
type RoleChecker func(user models.PublicUser, role string) bool

// Guard decides whether a guarded route may render.
type Guard struct {
	LoginPath string
	HasRole   RoleChecker
}

// Protect evaluates the gate for path under state. With no roles any
// authenticated user passes.
func (g Guard) Protect(state State, path string, roles ...string) Outcome {
	switch {
	case state.IsLoading || state.Phase != PhaseReady:
		return Outcome{Kind: Placeholder}
	case !state.IsAuthenticated || state.User == nil:
		return Outcome{Kind: Redirect, To: g.loginPath(), From: path}
	}

	if len(roles) == 0 {
		return Outcome{Kind: Render}
	}
	if g.HasRole != nil {
		for _, role := range roles {
			if g.HasRole(*state.User, role) {
				return Outcome{Kind: Render}
			}
		}
	}
	return Outcome{Kind: Forbidden}
}

func (g Guard) loginPath() string {
	if g.LoginPath == "" {
		return LoginPath
	}
	return g.LoginPath
}

// Router resolves paths against a route tree and applies the guard to
// protected routes.
type Router struct {
	routes []Route
	guard  Guard
}

// NewRouter creates a Router over routes.
func NewRouter(guard Guard, routes ...Route) *Router {
	return &Router{routes: routes, guard: guard}
}

// Resolve finds the route for path and decides what to do with it.
func (r *Router) Resolve(state State, path string) Outcome {
	path = cleanPath(path)
	route, protected, roles := find(r.routes, path, false, nil)
	if route == nil {
		return Outcome{Kind: NotFound, From: path}
	}
	if !protected {
		return Outcome{Kind: Render, Route: route}
	}

	out := r.guard.Protect(state, path, roles...)
	if out.Kind == Render {
		out.Route = route
	}
	return out
}

func find(routes []Route, path string, protected bool, roles []string) (*Route, bool, []string) {
	for i := range routes {
		route := &routes[i]
		p := protected || route.Protected
		rs := append(append([]string(nil), roles...), route.Roles...)
		if route.Path != "" && cleanPath(route.Path) == path {
			return route, p, rs
		}
		if found, fp, frs := find(route.Children, path, p, rs); found != nil {
			return found, fp, frs
		}
	}
	return nil, false, nil
}

func cleanPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
