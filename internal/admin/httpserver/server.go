package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"finitefield.org/recruit-admin/internal/admin/activity"
	"finitefield.org/recruit-admin/internal/admin/candidates"
	custommw "finitefield.org/recruit-admin/internal/admin/httpserver/middleware"
	"finitefield.org/recruit-admin/internal/admin/httpserver/ui"
	"finitefield.org/recruit-admin/internal/admin/observability"
	"finitefield.org/recruit-admin/internal/admin/pipeline"
	"finitefield.org/recruit-admin/internal/admin/rbac"
	appsession "finitefield.org/recruit-admin/internal/admin/session"
	"finitefield.org/recruit-admin/internal/admin/workspace"
	"finitefield.org/recruit-admin/public"
)

// Config holds runtime options for the admin HTTP server.
type Config struct {
	Address          string
	BasePath         string
	LoginPath        string
	Environment      string
	Logger           *zap.Logger
	Authenticator    custommw.Authenticator
	SessionStore     custommw.SessionStore
	CSRFCookieName   string
	CSRFCookiePath   string
	CSRFCookieSecure bool
	CSRFHeaderName   string

	CandidatesService candidates.Service
	StatusCache       *pipeline.Cache
	ActivityService   activity.Service
	Workspaces        *workspace.Manager
	Now               func() time.Time
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.RequestLogger(logger))
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(60 * time.Second))

	router.Handle("/public/static/*", http.StripPrefix("/public/static/", public.Handler()))

	basePath := normalizeBasePath(cfg.BasePath)
	loginPath := resolveLoginPath(basePath, cfg.LoginPath)

	authenticator := cfg.Authenticator
	if authenticator == nil {
		authenticator = custommw.DefaultAuthenticator()
	}

	store := cfg.SessionStore
	if store == nil {
		store = ephemeralSessionStore(logger, basePath)
	}

	svc := cfg.CandidatesService
	if svc == nil {
		svc = candidates.NewStaticService(nil)
	}
	statuses := cfg.StatusCache
	if statuses == nil {
		statuses = pipeline.NewCache(pipeline.NewStaticService(nil))
	}
	workspaces := cfg.Workspaces
	if workspaces == nil {
		workspaces = workspace.NewManager(svc, statuses, nil, workspace.WithLogger(logger))
	}

	handlers := ui.NewHandlers(ui.Dependencies{
		Candidates: svc,
		Statuses:   statuses,
		Activity:   cfg.ActivityService,
		Workspaces: workspaces,
		Now:        cfg.Now,
	})

	csrfCfg := custommw.CSRFConfig{
		CookieName: cfg.CSRFCookieName,
		CookiePath: firstNonEmpty(cfg.CSRFCookiePath, basePath),
		HeaderName: cfg.CSRFHeaderName,
		Secure:     cfg.CSRFCookieSecure,
	}

	mountAdminRoutes(router, basePath, routeOptions{
		Authenticator: authenticator,
		LoginPath:     loginPath,
		Environment:   cfg.Environment,
		Session:       store,
		CSRF:          csrfCfg,
		Handlers:      handlers,
		Auth:          newAuthHandlers(authenticator, workspaces, basePath, loginPath),
	})

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

type routeOptions struct {
	Authenticator custommw.Authenticator
	LoginPath     string
	Environment   string
	Session       custommw.SessionStore
	CSRF          custommw.CSRFConfig
	Handlers      *ui.Handlers
	Auth          *authHandlers
}

func mountAdminRoutes(router chi.Router, base string, opts routeOptions) {
	h := opts.Handlers

	router.Route(base, func(r chi.Router) {
		r.Use(custommw.Session(opts.Session))
		r.Use(custommw.RequestInfoMiddleware(base))
		r.Use(custommw.Environment(opts.Environment))
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.CSRF(opts.CSRF))

		loginRoute := strings.TrimPrefix(opts.LoginPath, strings.TrimRight(base, "/"))
		if loginRoute != opts.LoginPath || base == "/" {
			r.Get(loginRoute, opts.Auth.LoginForm)
			r.Post(loginRoute, opts.Auth.LoginSubmit)
		}

		r.Group(func(r chi.Router) {
			r.Use(custommw.Auth(opts.Authenticator, opts.LoginPath))

			r.Post("/logout", opts.Auth.Logout)
			r.Get("/", h.Home)
			r.With(custommw.RequireCapability(rbac.CapPipelineRefresh)).Post("/statuses/refresh", h.RefreshStatuses)

			r.Route("/candidates", func(r chi.Router) {
				r.Use(custommw.RequireCapability(rbac.CapCandidatesView))
				r.Get("/", h.CandidatesPage)
				RegisterFragment(r, "/table", h.CandidatesTable)

				r.Route("/{candidateID}", func(r chi.Router) {
					r.Get("/", h.CandidateDetail)
					r.With(custommw.RequireHTMX(), custommw.RequireCapability(rbac.CapActivityView)).Get("/activity", h.CandidateActivity)
					r.With(custommw.RequireCapability(rbac.CapPipelineStage)).Post("/jobs/{jobID}/stage", h.JobStage)

					r.Route("/panels/{attribute}", func(r chi.Router) {
						RegisterFragment(r, "/", h.PanelFragment)
						r.Post("/edit", h.PanelEdit)
						r.Post("/cancel", h.PanelCancel)
						r.Post("/append", h.PanelAppend)
						r.Post("/remove", h.PanelRemove)
						r.Post("/save", h.PanelSave)
					})
				})
			})
		})
	})
}

// ephemeralSessionStore backs sessions with per-process random keys. Sessions
// do not survive a restart.
func ephemeralSessionStore(logger *zap.Logger, basePath string) custommw.SessionStore {
	store, err := appsession.NewManager(appsession.Config{
		HashKey:    securecookie.GenerateRandomKey(32),
		BlockKey:   securecookie.GenerateRandomKey(32),
		CookiePath: basePath,
	})
	if err != nil {
		logger.Fatal("session store", zap.Error(err))
	}
	logger.Warn("session keys not configured; using ephemeral keys")
	return store
}

func normalizeBasePath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return "/admin"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}

func resolveLoginPath(base string, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	if base == "/" {
		return "/login"
	}
	return base + "/login"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}
