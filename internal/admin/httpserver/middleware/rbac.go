package middleware

import (
	"net/http"

	"finitefield.org/recruit-admin/internal/admin/rbac"
)

const forbiddenToast = "この操作を行う権限がありません。"

// RequireCapability rejects requests from staff whose roles do not grant c.
func RequireCapability(c rbac.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || !rbac.HasCapability(user.Roles, c) {
				Forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Forbidden answers 403. htmx requests keep the current DOM and get a toast
// instead of an error swap.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	if IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Reswap", "none")
		_ = TriggerEvents(w, map[string]any{"toast": map[string]string{"message": forbiddenToast, "tone": "danger"}})
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
