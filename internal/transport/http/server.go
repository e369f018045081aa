package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"claimintake/internal/bootstrap"
	"claimintake/internal/transport/http/handler"
	"claimintake/internal/transport/http/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health  *handler.HealthHandler
	Tenant  *handler.TenantHandler
	Case    *handler.CaseHandler
	File    *handler.FileHandler
	Process *handler.ProcessHandler
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	maxUpload := app.Config.Pipeline.MaxUploadBytes

	handlers := Handlers{
		Health:  handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, healthChecks(app)...),
		Tenant:  handler.NewTenantHandler(app.Tenants),
		Case:    handler.NewCaseHandler(app.Cases),
		File:    handler.NewFileHandler(app.Cases, maxUpload),
		Process: handler.NewProcessHandler(app.Pipeline, app.Bulk, maxUpload),
	}
	return newEngine(app.Logger, app.Config.Auth.JWTSecret, handlers)
}

func newEngine(logger *zap.Logger, secret string, h Handlers) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(middleware.RequestLogger(logger), gin.Recovery())
	registerRoutes(router, secret, h)
	return router
}

func registerRoutes(router *gin.Engine, secret string, h Handlers) {
	router.GET("/healthz", h.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthJWT(secret))

	v1.POST("/tenants", middleware.RequireAdmin(), h.Tenant.Create)
	v1.GET("/tenants", middleware.RequireAdmin(), h.Tenant.List)

	tenant := v1.Group("/tenants/:tenant_id")
	tenant.Use(middleware.RequireTenantAccess())
	tenant.GET("", h.Tenant.Get)

	tenant.POST("/cases", h.Case.Create)
	tenant.GET("/cases", h.Case.List)
	tenant.POST("/cases/submit", h.Process.Submit)
	tenant.POST("/cases/submit/bulk", h.Process.Bulk)
	tenant.GET("/cases/:case_id", h.Case.Get)
	tenant.PATCH("/cases/:case_id", h.Case.Update)
	tenant.DELETE("/cases/:case_id", h.Case.Delete)
	tenant.POST("/cases/:case_id/files", h.File.Upload)
	tenant.GET("/cases/:case_id/files", h.File.List)
	tenant.POST("/cases/:case_id/reprocess", h.Process.Reprocess)
	tenant.GET("/cases/:case_id/responses", h.Case.ListResponses)
	tenant.GET("/cases/:case_id/responses/latest", h.Case.LatestResponse)

	tenant.DELETE("/files", h.File.Delete)
	tenant.GET("/responses/:response_id/files", h.Case.ResponseFiles)
}

func healthChecks(app *bootstrap.App) []handler.HealthCheck {
	checks := []handler.HealthCheck{
		{Name: "mysql", Ping: func(ctx context.Context) error {
			sqlDB, err := app.MySQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
		{Name: "redis", Ping: func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}},
		{Name: "s3", Ping: app.Objects.Ping},
	}

	rmq := handler.HealthCheck{Name: "rabbitmq"}
	if app.MQConn != nil {
		rmq.Ping = func(context.Context) error {
			if app.MQConn.IsClosed() {
				return errConnectionClosed
			}
			return nil
		}
	}
	return append(checks, rmq)
}
