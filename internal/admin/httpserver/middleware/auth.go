package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/recruit-admin/internal/admin/observability"
	appsession "finitefield.org/recruit-admin/internal/admin/session"
)

// User is the signed-in staff member. Token is forwarded to the ATS backend.
type User struct {
	UID   string
	Email string
	Roles []string
	Token string
}

// Authenticator resolves a bearer token into a User.
type Authenticator interface {
	Authenticate(r *http.Request, token string) (*User, error)
}

// ErrUnauthorized is the fallback cause of a failed authentication.
var ErrUnauthorized = errors.New("unauthorized")

// Reason codes carried by AuthError. The login page maps them to messages.
const (
	ReasonMissingToken = "missing_token"
	ReasonTokenInvalid = "token_invalid"
	ReasonTokenExpired = "token_expired"
)

// AuthError tags an authentication failure with a reason code.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

func NewAuthError(reason string, err error) error {
	return &AuthError{Reason: reason, Err: err}
}

// tokenSources are the cookies checked, in order, when no Authorization
// header is present. "__session" is the only cookie Firebase Hosting forwards.
var tokenSources = []string{"Authorization", "__session", "idToken"}

type userKey struct{}

// Auth requires a valid token on every request. Browsers are sent to the
// login page with the current path as next; htmx requests get a 401 with
// HX-Redirect, or HX-Refresh when only the token expired so the client SDK
// can mint a new one.
func Auth(authenticator Authenticator, loginPath string) func(http.Handler) http.Handler {
	if authenticator == nil {
		authenticator = DefaultAuthenticator()
	}
	if loginPath == "" {
		loginPath = "/login"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(authenticator, r)
			if err != nil {
				reason := ReasonTokenInvalid
				var authErr *AuthError
				if errors.As(err, &authErr) && authErr.Reason != "" {
					reason = authErr.Reason
				}
				observability.FromContext(r.Context()).Info("auth failure",
					zap.String("reason", reason),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				if sess, ok := SessionFromContext(r.Context()); ok {
					sess.Destroy()
				}
				rejectUnauthenticated(w, r, loginPath, reason)
				return
			}

			if sess, ok := SessionFromContext(r.Context()); ok {
				sess.SetUser(&appsession.User{UID: user.UID, Email: user.Email, Roles: user.Roles})
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func authenticate(authenticator Authenticator, r *http.Request) (*User, error) {
	token := requestToken(r)
	if token == "" {
		return nil, NewAuthError(ReasonMissingToken, ErrUnauthorized)
	}
	user, err := authenticator.Authenticate(r, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewAuthError(ReasonTokenInvalid, ErrUnauthorized)
	}
	return user, nil
}

func requestToken(r *http.Request) string {
	if token, ok := stripBearer(r.Header.Get("Authorization")); ok {
		return token
	}
	for _, name := range tokenSources {
		if c, err := r.Cookie(name); err == nil {
			value := strings.TrimSpace(c.Value)
			if token, ok := stripBearer(value); ok {
				return token
			}
			if value != "" {
				return value
			}
		}
	}
	return ""
}

func stripBearer(value string) (string, bool) {
	if len(value) < 7 || !strings.EqualFold(value[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(value[7:])
	return token, token != ""
}

func rejectUnauthenticated(w http.ResponseWriter, r *http.Request, loginPath, reason string) {
	if IsHTMXRequest(r.Context()) {
		if reason == ReasonTokenExpired {
			w.Header().Set("HX-Refresh", "true")
		} else {
			w.Header().Set("HX-Redirect", loginPath)
		}
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	target, err := url.Parse(loginPath)
	if err != nil {
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}
	q := target.Query()
	if reason == ReasonTokenExpired {
		q.Set("reason", "expired")
	}
	if r.Method == http.MethodGet {
		q.Set("next", r.URL.RequestURI())
	}
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// ContextWithUser attaches user to ctx. Tests use it to stand in for Auth.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, _ := ctx.Value(userKey{}).(*User)
	return user, user != nil
}

// DefaultAuthenticator accepts any non-empty token as an admin. It backs
// local development when Firebase is not configured.
func DefaultAuthenticator() Authenticator {
	return devAuthenticator{}
}

type devAuthenticator struct{}

func (devAuthenticator) Authenticate(_ *http.Request, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	uid := token
	if len(uid) > 8 {
		uid = uid[:8]
	}
	return &User{UID: "dev:" + uid, Roles: []string{"admin"}, Token: token}, nil
}
