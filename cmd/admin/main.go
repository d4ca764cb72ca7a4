package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"

	"finitefield.org/recruit-admin/internal/admin/activity"
	"finitefield.org/recruit-admin/internal/admin/backend"
	"finitefield.org/recruit-admin/internal/admin/candidates"
	"finitefield.org/recruit-admin/internal/admin/config"
	"finitefield.org/recruit-admin/internal/admin/httpserver"
	"finitefield.org/recruit-admin/internal/admin/httpserver/middleware"
	"finitefield.org/recruit-admin/internal/admin/observability"
	"finitefield.org/recruit-admin/internal/admin/pipeline"
	"finitefield.org/recruit-admin/internal/admin/session"
	"finitefield.org/recruit-admin/internal/admin/workspace"
)

const workspaceSweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := buildServices(cfg, logger)
	if err != nil {
		logger.Fatal("backend services", zap.Error(err))
	}
	if project := cfg.Activity.FirestoreProjectID; project != "" {
		client, err := firestore.NewClient(ctx, project)
		if err != nil {
			logger.Fatal("firestore client", zap.Error(err))
		}
		defer client.Close()
		services.activity = activity.NewFirestoreService(client, activity.FirestoreConfig{
			Collection: cfg.Activity.FirestoreCollection,
			Logger:     logger.Named("activity"),
		})
		logger.Info("activity feed served from Firestore", zap.String("project", project))
	}

	statuses := pipeline.NewCache(services.statuses, pipeline.WithTTL(cfg.Workspace.StatusCacheTTL))
	workspaces := workspace.NewManager(services.candidates, statuses, nil,
		workspace.WithIdleTTL(cfg.Workspace.IdleTTL),
		workspace.WithLogger(logger),
	)
	defer workspaces.Close()
	go workspaces.Run(ctx, workspaceSweepInterval)

	srv := httpserver.New(httpserver.Config{
		Address:           cfg.Server.Address,
		BasePath:          cfg.Server.BasePath,
		Environment:       cfg.Server.Environment,
		Logger:            logger,
		Authenticator:     buildAuthenticator(ctx, cfg.Firebase, logger),
		SessionStore:      buildSessionStore(cfg, logger),
		CSRFCookieName:    cfg.CSRF.CookieName,
		CSRFCookieSecure:  cfg.Session.CookieSecure,
		CSRFHeaderName:    cfg.CSRF.HeaderName,
		CandidatesService: services.candidates,
		StatusCache:       statuses,
		ActivityService:   services.activity,
		Workspaces:        workspaces,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	logger.Info("admin server listening",
		zap.String("addr", cfg.Server.Address),
		zap.String("base_path", cfg.Server.BasePath),
		zap.Bool("static_services", cfg.UseStaticServices()),
	)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}

type serviceSet struct {
	candidates candidates.Service
	statuses   pipeline.Service
	activity   activity.Service
}

// buildServices selects the ATS backend. Without an API base URL the console
// runs against seeded in-memory data.
func buildServices(cfg config.Config, logger *zap.Logger) (serviceSet, error) {
	if cfg.UseStaticServices() {
		logger.Warn("ADMIN_API_BASE_URL not set; using in-memory services")
		return serviceSet{
			candidates: candidates.NewStaticService(nil),
			statuses:   pipeline.NewStaticService(nil),
			activity:   activity.NewStaticService(nil),
		}, nil
	}

	client, err := backend.NewClient(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout})
	if err != nil {
		return serviceSet{}, err
	}
	candidateSvc, err := candidates.NewHTTPService(client)
	if err != nil {
		return serviceSet{}, err
	}
	statusSvc, err := pipeline.NewHTTPService(client)
	if err != nil {
		return serviceSet{}, err
	}
	activitySvc, err := activity.NewHTTPService(client)
	if err != nil {
		return serviceSet{}, err
	}
	return serviceSet{candidates: candidateSvc, statuses: statusSvc, activity: activitySvc}, nil
}

func buildSessionStore(cfg config.Config, logger *zap.Logger) middleware.SessionStore {
	if len(cfg.Session.HashKey) == 0 {
		return nil
	}
	store, err := session.NewManager(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      cfg.Session.HashKey,
		BlockKey:     cfg.Session.BlockKey,
		CookiePath:   cfg.Server.BasePath,
		CookieSecure: cfg.Session.CookieSecure,
	})
	if err != nil {
		logger.Fatal("session store", zap.Error(err))
	}
	return store
}

func buildAuthenticator(ctx context.Context, cfg config.FirebaseConfig, logger *zap.Logger) middleware.Authenticator {
	if cfg.ProjectID == "" {
		logger.Warn("FIREBASE_PROJECT_ID not set; using passthrough authenticator")
		return nil
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID: cfg.ProjectID,
	})
	if err != nil {
		logger.Error("failed to initialise Firebase app", zap.Error(err))
		return nil
	}

	client, err := app.Auth(ctx)
	if err != nil {
		logger.Error("failed to initialise Firebase auth client", zap.Error(err))
		return nil
	}

	logger.Info("Firebase authenticator enabled", zap.String("project", cfg.ProjectID))
	return middleware.NewFirebaseAuthenticator(client)
}
