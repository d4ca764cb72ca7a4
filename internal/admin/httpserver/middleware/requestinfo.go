package middleware

import (
	"context"
	"net/http"
	"strings"
)

type requestInfoKey struct{}

// RequestInfo is the part of the request the layout needs for navigation
// state and for building links under the mount point.
type RequestInfo struct {
	Path     string
	RawQuery string
	BasePath string
}

// RequestInfoMiddleware records the request path alongside the admin base path.
func RequestInfoMiddleware(basePath string) func(http.Handler) http.Handler {
	base := "/" + strings.Trim(strings.TrimSpace(basePath), "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := RequestInfo{Path: r.URL.Path, RawQuery: r.URL.RawQuery, BasePath: base}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))
		})
	}
}

func requestInfo(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// RequestPathFromContext returns the request path, or "" outside the middleware.
func RequestPathFromContext(ctx context.Context) string { return requestInfo(ctx).Path }

// RawQueryFromContext returns the raw query of the current request.
func RawQueryFromContext(ctx context.Context) string { return requestInfo(ctx).RawQuery }

// BasePathFromContext returns the admin mount point, defaulting to "/".
func BasePathFromContext(ctx context.Context) string {
	if base := requestInfo(ctx).BasePath; base != "" {
		return base
	}
	return "/"
}
