package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"
)

type csrfKey struct{}

// CSRFConfig names the double-submit cookie and where mutations echo it.
type CSRFConfig struct {
	CookieName string
	CookiePath string
	HeaderName string
	FormField  string
	MaxAge     time.Duration
	Secure     bool
}

type csrfGuard struct {
	cfg CSRFConfig
}

// CSRF issues a token cookie and requires every unsafe request to echo it in
// the header (htmx) or the form field (plain posts such as login and logout).
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	g := csrfGuard{cfg: cfg}
	g.cfg.CookieName = firstNonBlank(cfg.CookieName, "admin_csrf")
	g.cfg.CookiePath = firstNonBlank(cfg.CookiePath, "/")
	g.cfg.HeaderName = firstNonBlank(cfg.HeaderName, "X-CSRF-Token")
	g.cfg.FormField = firstNonBlank(cfg.FormField, "csrf_token")
	if g.cfg.MaxAge <= 0 {
		g.cfg.MaxAge = 24 * time.Hour
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := g.token(w, r)
			if err != nil {
				http.Error(w, "csrf token error", http.StatusInternalServerError)
				return
			}
			if mutates(r.Method) && !g.echoed(r, token) {
				Forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, token)))
		})
	}
}

// CSRFTokenFromContext returns the token to embed in forms and the csrf meta tag.
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}

func (g csrfGuard) token(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(g.cfg.CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    token,
		Path:     g.cfg.CookiePath,
		HttpOnly: true,
		Secure:   g.cfg.Secure || r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(g.cfg.MaxAge.Seconds()),
	})
	return token, nil
}

func (g csrfGuard) echoed(r *http.Request, token string) bool {
	submitted := r.Header.Get(g.cfg.HeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(g.cfg.FormField)
	}
	return submitted != "" && subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) == 1
}

func mutates(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}

func firstNonBlank(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
