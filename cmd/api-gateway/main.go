package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/epc-dashboard-api/api/swagger"
	"github.com/noah-isme/epc-dashboard-api/internal/catalog"
	"github.com/noah-isme/epc-dashboard-api/internal/handler"
	"github.com/noah-isme/epc-dashboard-api/internal/lifecycle"
	"github.com/noah-isme/epc-dashboard-api/internal/repository"
	"github.com/noah-isme/epc-dashboard-api/internal/service"
	"github.com/noah-isme/epc-dashboard-api/pkg/cache"
	"github.com/noah-isme/epc-dashboard-api/pkg/config"
	"github.com/noah-isme/epc-dashboard-api/pkg/database"
	"github.com/noah-isme/epc-dashboard-api/pkg/jobs"
	"github.com/noah-isme/epc-dashboard-api/pkg/logger"
)

// @title EPC Dashboard API
// @version 1.0.0
// @description Milestone and document lifecycle engine for renewable energy EPC projects.
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	templates, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(cfg.Database, logr); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	checks := map[string]handler.Pinger{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if cfg.Dashboard.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("dashboard cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			checks["redis"] = func(ctx context.Context) error { return pingRedis(ctx, client) }
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)

	projectRepo := repository.NewProjectRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	validate := validator.New()
	policy := lifecycle.HealthPolicy{BudgetAtRiskMargin: cfg.Rollup.BudgetAtRiskMargin}

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Projects: projectRepo,
		Cache:    cacheSvc,
		Metrics:  metrics,
		Logger:   logr,
		Config:   service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL, Policy: policy},
	})
	if err := dashboardSvc.Flush(ctx); err != nil {
		logr.Warn("dashboard cache flush failed", zap.Error(err))
	}

	refreshQueue := jobs.NewQueue(service.RefreshJobType, dashboardSvc.HandleRefresh, jobs.QueueConfig{
		Workers:    cfg.Rollup.RefreshWorkers,
		MaxRetries: cfg.Rollup.RefreshRetries,
		Logger:     logr,
	})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()
	dashboardSvc.UseRefreshQueue(refreshQueue)

	projectSvc := service.NewProjectService(service.ProjectServiceParams{
		Projects:   projectRepo,
		Activities: activityRepo,
		Catalog:    templates,
		Dashboard:  dashboardSvc,
		Metrics:    metrics,
		Validator:  validate,
		Logger:     logr,
		Policy:     policy,
	})
	documentSvc := service.NewDocumentService(service.DocumentServiceParams{
		Documents: documentRepo,
		Dashboard: dashboardSvc,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
	})
	milestoneSvc := service.NewMilestoneService(milestoneRepo, dashboardSvc, validate, logr)
	activitySvc := service.NewActivityService(activityRepo, projectRepo)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, logr, metrics, routeHandlers{
		projects:   handler.NewProjectHandler(projectSvc),
		documents:  handler.NewDocumentHandler(documentSvc),
		milestones: handler.NewMilestoneHandler(milestoneSvc),
		dashboard:  handler.NewDashboardHandler(dashboardSvc),
		activity:   handler.NewActivityHandler(activitySvc),
		catalog:    handler.NewCatalogHandler(templates),
		ops:        handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.TemplatePath == "" {
		return catalog.Default()
	}
	templates, err := catalog.LoadFile(cfg.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("load template catalog %s: %w", cfg.TemplatePath, err)
	}
	return templates, nil
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
