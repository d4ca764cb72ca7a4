package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"finitefield.org/recruit-admin/internal/admin/activity"
	"finitefield.org/recruit-admin/internal/admin/candidates"
	"finitefield.org/recruit-admin/internal/admin/httpserver"
	"finitefield.org/recruit-admin/internal/admin/httpserver/middleware"
	"finitefield.org/recruit-admin/internal/admin/pipeline"
	"finitefield.org/recruit-admin/internal/admin/session"
	"finitefield.org/recruit-admin/internal/admin/workspace"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithAuthenticator overrides the authenticator used by the admin server.
func WithAuthenticator(auth middleware.Authenticator) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Authenticator = auth
	}
}

// WithBasePath sets a custom base path for the admin routes.
func WithBasePath(path string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.BasePath = path
	}
}

// WithCandidatesService wires a custom candidate service implementation.
func WithCandidatesService(service candidates.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.CandidatesService = service
	}
}

// WithStatusService backs the status catalogue cache with service.
func WithStatusService(service pipeline.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.StatusCache = pipeline.NewCache(service)
	}
}

// WithActivityService wires a custom activity feed implementation.
func WithActivityService(service activity.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.ActivityService = service
	}
}

// WithWorkspaces injects the workspace manager so tests can inspect panel state.
func WithWorkspaces(manager *workspace.Manager) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Workspaces = manager
	}
}

// WithNow fixes the clock used for relative timestamps.
func WithNow(now func() time.Time) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Now = now
	}
}

// NewServer constructs an httptest server running the admin HTTP stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	store, err := session.NewManager(session.Config{
		CookieName: "test_session",
		HashKey:    []byte("0123456789abcdef0123456789abcdef"),
		BlockKey:   []byte("abcdefghijklmnopqrstuvwxyz012345"),
		CookiePath: "/",
	})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	cfg := httpserver.Config{
		Address:           ":0",
		BasePath:          "/admin",
		LoginPath:         "",
		Environment:       "Test",
		Logger:            zaptest.NewLogger(t),
		SessionStore:      store,
		CSRFCookieName:    "csrf_token",
		CSRFHeaderName:    "X-CSRF-Token",
		Authenticator:     middleware.DefaultAuthenticator(),
		CandidatesService: candidates.NewStaticService(nil),
		ActivityService:   activity.NewStaticService(nil),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	srv := httpserver.New(cfg)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
