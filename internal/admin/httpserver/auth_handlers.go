package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	custommw "finitefield.org/recruit-admin/internal/admin/httpserver/middleware"
	"finitefield.org/recruit-admin/internal/admin/observability"
	appsession "finitefield.org/recruit-admin/internal/admin/session"
	"finitefield.org/recruit-admin/internal/admin/templates/auth"
	"finitefield.org/recruit-admin/internal/admin/workspace"
)

// tokenCookieName is one of the cookies the Auth middleware reads the ID token from.
const tokenCookieName = "Authorization"

var loginMessages = map[string]string{
	"logged_out":                "ログアウトしました。",
	"expired":                   "セッションの有効期限が切れました。再度ログインしてください。",
	custommw.ReasonTokenExpired: "セッションの有効期限が切れました。再度ログインしてください。",
	custommw.ReasonMissingToken: "ログインが必要です。",
	custommw.ReasonTokenInvalid: "ログイン情報が無効です。再度お試しください。",
}

// authHandlers serves the login form and signs staff in and out. Signing out
// also drops every candidate workspace the session still holds.
type authHandlers struct {
	authenticator custommw.Authenticator
	workspaces    *workspace.Manager
	basePath      string
	loginPath     string
}

func newAuthHandlers(authenticator custommw.Authenticator, workspaces *workspace.Manager, basePath, loginPath string) *authHandlers {
	if authenticator == nil {
		panic("auth: authenticator is required")
	}
	basePath = normalizeBasePath(basePath)
	return &authHandlers{
		authenticator: authenticator,
		workspaces:    workspaces,
		basePath:      basePath,
		loginPath:     resolveLoginPath(basePath, loginPath),
	}
}

func (h *authHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if h.signedIn(r) && q.Get("force") == "" {
		http.Redirect(w, r, h.afterLogin(q.Get("next")), http.StatusFound)
		return
	}

	data := h.pageData(r)
	data.Email = strings.TrimSpace(q.Get("email"))
	data.Next = h.safeNext(q.Get("next"))
	data.Message = loginMessages[firstNonEmpty(q.Get("status"), q.Get("reason"))]
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		data.Remember = sess.RememberMe()
	}
	h.render(w, r, data, http.StatusOK)
}

func (h *authHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r)
	if err := r.ParseForm(); err != nil {
		data.Error = "フォームの送信に失敗しました。もう一度お試しください。"
		h.render(w, r, data, http.StatusBadRequest)
		return
	}

	data.Email = strings.TrimSpace(r.PostFormValue("email"))
	data.Next = h.safeNext(r.PostFormValue("next"))
	data.Remember = r.PostFormValue("remember") != ""
	token := strings.TrimSpace(r.PostFormValue("id_token"))
	if token == "" {
		data.Error = "IDトークンまたはパスワードを入力してください。"
		h.render(w, r, data, http.StatusBadRequest)
		return
	}

	user, err := h.authenticator.Authenticate(r, token)
	if err != nil || user == nil {
		observability.FromContext(r.Context()).Info("admin login failed", zap.String("email", data.Email), zap.Error(err))
		data.Error = loginErrorMessage(err)
		h.render(w, r, data, http.StatusUnauthorized)
		return
	}
	if user.Email == "" {
		user.Email = data.Email
	}

	var expires time.Time
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.SetUser(&appsession.User{UID: user.UID, Email: user.Email, Roles: user.Roles})
		sess.SetRememberMe(data.Remember)
		if data.Remember {
			expires = sess.ExpiresAt()
		}
	}
	h.setTokenCookie(w, r, firstNonEmpty(user.Token, token), expires)

	target := h.afterLogin(data.Next)
	if custommw.IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *authHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		if h.workspaces != nil {
			h.workspaces.CloseSession(sess.ID())
		}
		sess.Destroy()
	}
	h.setTokenCookie(w, r, "", time.Time{})

	target := h.loginPath + "?status=logged_out"
	if custommw.IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *authHandlers) pageData(r *http.Request) auth.LoginPageData {
	return auth.LoginPageData{
		LoginPath: h.loginPath,
		CSRFToken: custommw.CSRFTokenFromContext(r.Context()),
	}
}

func (h *authHandlers) render(w http.ResponseWriter, r *http.Request, data auth.LoginPageData, status int) {
	templ.Handler(auth.LoginPage(data), templ.WithStatus(status)).ServeHTTP(w, r)
}

func (h *authHandlers) signedIn(r *http.Request) bool {
	sess, ok := custommw.SessionFromContext(r.Context())
	return ok && sess.User() != nil && sess.User().UID != ""
}

// setTokenCookie stores the bearer token for the Auth middleware. An empty
// token clears it; a zero expiry makes it a browser-session cookie.
func (h *authHandlers) setTokenCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Path:     h.basePath,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case token == "":
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	case !expires.IsZero():
		cookie.Value = "Bearer " + token
		cookie.Expires = expires.UTC()
		if remaining := time.Until(expires); remaining > 0 {
			cookie.MaxAge = int(remaining.Round(time.Second).Seconds())
		}
	default:
		cookie.Value = "Bearer " + token
	}
	http.SetCookie(w, cookie)
}

func (h *authHandlers) afterLogin(next string) string {
	if target := h.safeNext(next); target != "" {
		return target
	}
	return h.basePath
}

// safeNext accepts only same-origin paths under the base path, and never the
// login page itself.
func (h *authHandlers) safeNext(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return ""
	}
	unescaped, err := url.PathUnescape(firstNonEmpty(parsed.Path, "/"))
	if err != nil || strings.Contains(unescaped, "\\") {
		return ""
	}
	cleaned := path.Clean("/" + strings.TrimLeft(unescaped, "/"))
	if strings.HasPrefix(unescaped, "//") || !underBase(cleaned, h.basePath) || cleaned == h.loginPath {
		return ""
	}
	if parsed.RawQuery != "" {
		cleaned += "?" + parsed.RawQuery
	}
	return cleaned
}

func underBase(p, base string) bool {
	if base == "/" {
		return true
	}
	return p == base || strings.HasPrefix(p, base+"/")
}

func loginErrorMessage(err error) string {
	var authErr *custommw.AuthError
	switch {
	case errors.As(err, &authErr) && authErr.Reason == custommw.ReasonTokenExpired:
		return "セッションの有効期限が切れました。再度ログインしてください。"
	case errors.As(err, &authErr) && authErr.Reason == custommw.ReasonMissingToken:
		return "認証情報が不足しています。もう一度確認してください。"
	case err == nil, errors.As(err, &authErr), errors.Is(err, custommw.ErrUnauthorized):
		return "認証に失敗しました。入力内容をご確認ください。"
	}
	return "ログインに失敗しました。時間をおいて再度お試しください。"
}
