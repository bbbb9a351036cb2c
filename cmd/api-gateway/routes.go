package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/epc-dashboard-api/internal/handler"
	"github.com/noah-isme/epc-dashboard-api/internal/middleware"
	"github.com/noah-isme/epc-dashboard-api/internal/service"
	"github.com/noah-isme/epc-dashboard-api/pkg/config"
	"github.com/noah-isme/epc-dashboard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/epc-dashboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/epc-dashboard-api/pkg/middleware/requestid"
)

var probePaths = []string{"/health", "/ready", "/metrics"}

type routeHandlers struct {
	projects   *handler.ProjectHandler
	documents  *handler.DocumentHandler
	milestones *handler.MilestoneHandler
	dashboard  *handler.DashboardHandler
	activity   *handler.ActivityHandler
	catalog    *handler.CatalogHandler
	ops        *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, probePaths...))
	r.Use(middleware.Metrics(metrics, probePaths...))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, cfg.Actor.Header))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Actor(cfg.Actor.Header))

	r.GET("/health", h.ops.Health)
	r.GET("/ready", h.ops.Ready)
	r.GET("/metrics", h.ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	projects := api.Group("/projects")
	projects.POST("", h.projects.Create)
	projects.GET("", h.projects.List)
	projects.GET("/:id", h.projects.Get)
	projects.PUT("/:id/progress", h.projects.UpdateProgress)
	projects.GET("/:id/dashboard", h.dashboard.Project)
	projects.GET("/:id/activity", h.activity.List)

	documents := api.Group("/documents")
	documents.GET("/:id", h.documents.History)
	documents.POST("/:id/versions", h.documents.Submit)
	documents.POST("/:id/versions/:version/review", h.documents.Review)

	milestones := api.Group("/milestones")
	milestones.POST("/:id/optional-documents", h.milestones.AddOptionalDocument)
	milestones.GET("/:id/optional-documents", h.milestones.ListOptionalDocuments)

	api.GET("/dashboard/portfolio", h.dashboard.Portfolio)
	api.GET("/catalog/templates", h.catalog.List)
	api.GET("/catalog/templates/:type", h.catalog.Get)

	return r
}
