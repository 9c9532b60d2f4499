package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/vanity-bot/internal/middleware"
	"github.com/noah-isme/vanity-bot/internal/models"
	"github.com/noah-isme/vanity-bot/internal/service"
	"github.com/noah-isme/vanity-bot/pkg/logger"
	"github.com/noah-isme/vanity-bot/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/vanity-bot/pkg/middleware/requestid"
)

// RouterConfig bundles what the admin API needs.
type RouterConfig struct {
	Logger    *zap.Logger
	Metrics   *service.MetricsService
	Auth      middleware.TokenValidator
	Community *CommunityHandler
	Events    *EventHandler
	Ops       *MetricsHandler
	Docs      bool
	Origins   []string
}

// NewRouter builds the admin HTTP API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(cors.New(cfg.Origins))
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics, "/metrics"))

	r.GET("/health", cfg.Ops.Health)
	r.GET("/ready", cfg.Ops.Ready)
	r.GET("/metrics", cfg.Ops.Prometheus)
	if cfg.Docs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/v1", middleware.JWT(cfg.Auth))

	events := v1.Group("/events", middleware.RequireRoles(models.OperatorIngest, models.OperatorAdmin))
	events.POST("/status", cfg.Events.Status)
	events.POST("/profile", cfg.Events.Profile)

	admin := v1.Group("", middleware.RequireRoles(models.OperatorAdmin))
	admin.GET("/stats", cfg.Ops.Stats)
	admin.POST("/sweeps", middleware.Audit(cfg.Logger, "sweep.run"), cfg.Ops.Sweep)

	communities := admin.Group("/communities/:id")
	communities.GET("/config", cfg.Community.GetConfig)
	communities.PUT("/config/role", middleware.Audit(cfg.Logger, "config.role"), cfg.Community.SetRole)
	communities.PUT("/config/channel", middleware.Audit(cfg.Logger, "config.channel"), cfg.Community.SetChannel)
	communities.PUT("/config/message", middleware.Audit(cfg.Logger, "config.message"), cfg.Community.SetMessage)
	communities.GET("/ledger", cfg.Community.ListLedger)
	communities.DELETE("/ledger", middleware.Audit(cfg.Logger, "ledger.reset"), cfg.Community.ResetLedger)
	communities.POST("/members/:userId/evaluate", cfg.Community.Evaluate)

	return r
}
