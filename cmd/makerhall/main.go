package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/makerhall/makerhall/internal/apikeys"
	"github.com/makerhall/makerhall/internal/app"
	"github.com/makerhall/makerhall/internal/auth"
	"github.com/makerhall/makerhall/internal/authn"
	"github.com/makerhall/makerhall/internal/cards"
	"github.com/makerhall/makerhall/internal/observability"
	"github.com/makerhall/makerhall/internal/platform/cache"
	"github.com/makerhall/makerhall/internal/platform/db"
	"github.com/makerhall/makerhall/internal/roles"
	"github.com/makerhall/makerhall/internal/shared"
	"github.com/makerhall/makerhall/internal/users"
	"github.com/makerhall/makerhall/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "makerhall_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	userRepo := users.NewRepository(dbpool)
	roleRepo := roles.NewRepository(dbpool)
	keyRepo := apikeys.NewRepository(dbpool)
	cardStore := cards.NewStore(dbpool)

	// Users are provisioned against the configured admin role; a missing
	// row means logins for that role will come back not provisioned.
	if _, err := roleRepo.GetByName(ctx, cfg.AdminRoleName); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.Warn("admin role not provisioned", slog.String("role", cfg.AdminRoleName))
		} else {
			logger.Error("resolve admin role", slog.Any("error", err))
			os.Exit(1)
		}
	}

	resolver := authn.NewResolver(keyFinderAdapter{repo: keyRepo}, userLoaderAdapter{repo: userRepo}, cfg.AdminRoleName)

	verifier := auth.NewIntrospectionClient(cfg.OAuthIntrospectURL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(verifier, userRepo, authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	rolesHandler := roles.NewHandler(logger, roleRepo)
	usersHandler := users.NewHandler(logger, userRepo)
	cardsHandler := cards.NewHandler(logger, cardStore)
	keysHandler := apikeys.NewHandler(logger, keyRepo)
	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Resolver:       resolver,
		AuthHandler:    authHandler,
		RolesHandler:   rolesHandler,
		UsersHandler:   usersHandler,
		CardsHandler:   cardsHandler,
		APIKeysHandler: keysHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// keyFinderAdapter projects apikeys rows onto the authn-local key view, so
// the authn package never has to import the apikeys domain types.
type keyFinderAdapter struct {
	repo *apikeys.Repository
}

func (a keyFinderAdapter) FindByToken(ctx context.Context, token string) (authn.KeyView, error) {
	key, err := a.repo.FindByToken(ctx, token)
	if err != nil {
		return authn.KeyView{}, err
	}
	return authn.KeyView{Name: key.Name}, nil
}

// userLoaderAdapter flattens a user's role into the authn-local user view.
type userLoaderAdapter struct {
	repo *users.Repository
}

func (a userLoaderAdapter) GetWithRole(ctx context.Context, id int64) (authn.UserView, error) {
	user, err := a.repo.GetWithRole(ctx, id)
	if err != nil {
		return authn.UserView{}, err
	}
	return authn.UserView{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		IsActive:    user.IsActive,
		RoleName:    user.Role.Name,
		Permissions: user.Role.Permissions,
	}, nil
}
