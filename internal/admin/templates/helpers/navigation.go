package helpers

import (
	"context"
	"path"
	"strings"

	"finitefield.org/recruit-admin/internal/admin/httpserver/middleware"
)

// BasePath returns the admin mount point of the current request.
func BasePath(ctx context.Context) string {
	return cleanRoute(middleware.BasePathFromContext(ctx))
}

// NavActive reports whether the current request is at route, or below it when
// prefix is set. "/" only ever matches itself.
func NavActive(ctx context.Context, route string, prefix bool) bool {
	current := cleanRoute(middleware.RequestPathFromContext(ctx))
	route = cleanRoute(route)
	if current == route {
		return true
	}
	return prefix && route != "/" && strings.HasPrefix(current, route+"/")
}

// NavClass returns the topbar link classes.
func NavClass(active bool) string {
	if active {
		return "font-medium text-slate-900"
	}
	return "text-slate-500 hover:text-slate-900"
}

// JoinPath appends segments to base, e.g. JoinPath("/admin", "candidates", "1001").
func JoinPath(base string, segments ...string) string {
	return cleanRoute(path.Join(append([]string{"/", base}, segments...)...))
}

func cleanRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	return path.Clean("/" + route)
}
