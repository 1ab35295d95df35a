package app

import (
	"context"
	"errors"
	"net/http"

	"pr-analysis-service/internal/api"
	"pr-analysis-service/internal/auth"
	"pr-analysis-service/internal/config"
	"pr-analysis-service/internal/database"
	"pr-analysis-service/internal/generator"
	"pr-analysis-service/internal/handler"
	"pr-analysis-service/internal/repository"
	"pr-analysis-service/internal/service"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// AnalysisApp represents the application with its dependencies.
type AnalysisApp struct {
	cfg *config.Config

	db *pgxpool.Pool
	r  *echo.Echo

	log *zap.Logger
}

// NewAnalysisApp initializes the database, repositories, services,
// handlers and routes.
func NewAnalysisApp(cfg *config.Config, log *zap.Logger) *AnalysisApp {
	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	r := echo.New()
	r.HideBanner = true

	retrier := newRepoRetrier(cfg.Retry, isRetryableFunc)

	analysisRepo := repository.NewAnalysisRepository(db, trmpgx.DefaultCtxGetter, retrier)
	statusRepo := repository.NewStatusRepository(db, trmpgx.DefaultCtxGetter, retrier)
	aiLogRepo := repository.NewAILogRepository(db, trmpgx.DefaultCtxGetter, retrier)

	analysisService := service.NewAnalysisService(
		analysisRepo,
		statusRepo,
		aiLogRepo,
		newGenerator(cfg.AI),
		manager.Must(trmpgx.NewDefaultFactory(db)),
		log,
	)

	analysisHandler := handler.NewAnalysisHandler(analysisService, log)

	api.RegisterHandlers(r, analysisHandler)

	r.Use(middleware.Recover())
	r.Use(auth.Middleware(auth.NewTrustedHeaderResolver(auth.DefaultUserIDHeader), "/health"))

	return &AnalysisApp{
		cfg: cfg,
		db:  db,
		r:   r,
		log: log,
	}
}

// Run starts the HTTP server and waits for context cancellation.
func (a *AnalysisApp) Run(ctx context.Context) error {
	go func() {
		if err := a.r.Start(":" + a.cfg.App.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	return a.Shutdown()
}

// Shutdown closes the server and database connections.
func (a *AnalysisApp) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer cancel()

	if err := a.r.Shutdown(ctx); err != nil {
		a.log.Error("failed to shutdown server", zap.Error(err))
		return err
	}

	a.db.Close()

	return nil
}

// newGenerator picks the generation collaborator: the OpenRouter
// client in production, the deterministic mock when configured for
// local development.
func newGenerator(cfg config.AI) service.Generator {
	if cfg.UseMock {
		return generator.NewMock()
	}
	return generator.NewOpenRouterClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
}
