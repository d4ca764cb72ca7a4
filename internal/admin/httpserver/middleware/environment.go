package middleware

import (
	"context"
	"net/http"
	"strings"
)

const defaultEnvironment = "Development"

type environmentKey struct{}

// Environment labels every request with the deployment name shown in the
// topbar badge.
func Environment(label string) func(http.Handler) http.Handler {
	if label = strings.TrimSpace(label); label == "" {
		label = defaultEnvironment
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), environmentKey{}, label)))
		})
	}
}

// EnvironmentFromContext returns the label, or "Development" outside the middleware.
func EnvironmentFromContext(ctx context.Context) string {
	if label, ok := ctx.Value(environmentKey{}).(string); ok {
		return label
	}
	return defaultEnvironment
}

// IsProduction reports whether edits made here reach real candidates.
func IsProduction(ctx context.Context) bool {
	label := strings.ToLower(EnvironmentFromContext(ctx))
	return label == "production" || label == "prod"
}
