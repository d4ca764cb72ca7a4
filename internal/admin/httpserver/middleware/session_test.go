package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appsession "finitefield.org/recruit-admin/internal/admin/session"
)

type sessionHarness struct {
	now   time.Time
	store *appsession.Manager
	seen  []string
}

func newSessionHarness(t *testing.T) *sessionHarness {
	t.Helper()
	h := &sessionHarness{now: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)}
	store, err := appsession.NewManager(appsession.Config{
		CookieName:       "test_session",
		HashKey:          []byte("12345678901234567890123456789012"),
		BlockKey:         []byte("abcdefghijklmnopqrstuvwxyzABCDEF"),
		CookiePath:       "/admin",
		IdleTimeout:      5 * time.Minute,
		Lifetime:         time.Hour,
		RememberLifetime: 24 * time.Hour,
		Now:              func() time.Time { return h.now },
	})
	require.NoError(t, err)
	h.store = store
	return h
}

// visit runs one request through the middleware and returns the session cookie it set.
func (h *sessionHarness) visit(t *testing.T, cookie *http.Cookie) *http.Cookie {
	t.Helper()
	handler := Session(h.store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		require.True(t, ok, "session missing in context")
		h.seen = append(h.seen, sess.ID())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return findCookie(rec.Result().Cookies(), "test_session")
}

func TestSessionMiddlewareKeepsIDUntilIdle(t *testing.T) {
	h := newSessionHarness(t)

	cookie := h.visit(t, nil)
	require.NotNil(t, cookie, "first response must carry the session cookie")

	h.now = h.now.Add(2 * time.Minute)
	h.visit(t, cookie)
	require.Equal(t, h.seen[0], h.seen[1], "active session keeps its id")

	h.now = h.now.Add(15 * time.Minute)
	refreshed := h.visit(t, cookie)
	require.NotEqual(t, h.seen[1], h.seen[2], "idle session is replaced")
	require.NotNil(t, refreshed)
}

func TestSessionCookieWrittenBeforeResponseHeader(t *testing.T) {
	h := newSessionHarness(t)

	handler := Session(h.store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		sess.SetUser(&appsession.User{UID: "recruiter-1"})
		http.Redirect(w, r, "/admin/candidates", http.StatusSeeOther)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", nil))

	// Result reflects the header snapshot taken at WriteHeader time.
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	require.NotNil(t, cookie, "redirect must carry the session cookie")

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	loaded, err := h.store.Load(req)
	require.NoError(t, err)
	require.NotNil(t, loaded.User())
	require.Equal(t, "recruiter-1", loaded.User().UID)
}

func TestSessionDestroyClearsCookie(t *testing.T) {
	h := newSessionHarness(t)
	cookie := h.visit(t, nil)

	handler := Session(h.store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		sess.Destroy()
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	cleared := findCookie(rec.Result().Cookies(), "test_session")
	require.NotNil(t, cleared)
	require.Equal(t, -1, cleared.MaxAge)
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
