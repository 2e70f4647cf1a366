package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stanondieki/Infera-AI-sub003/internal/auth"
	"github.com/stanondieki/Infera-AI-sub003/internal/config"
	"github.com/stanondieki/Infera-AI-sub003/internal/service"
	"github.com/stanondieki/Infera-AI-sub003/internal/websocket"
	"gorm.io/gorm"
)

// Dependencies 路由依赖
type Dependencies struct {
	DB *gorm.DB

	TaskService      service.TaskService
	QueryService     service.QueryService
	AnalyticsService service.AnalyticsService

	// Validator 为 nil 时使用开发模式请求头认证
	Validator auth.TokenValidator
	// Authorizer 为 nil 时只按令牌角色授权
	Authorizer auth.Authorizer
	// Hub 为 nil 时不开放 /ws
	Hub *websocket.Hub

	HealthCheckers map[string]HealthChecker
}

// SetupRoutesWithConfig 配置路由
func SetupRoutesWithConfig(cfg *config.Config, deps *Dependencies) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware(config.IsProduction(cfg)))
	router.Use(CORSMiddleware(&cfg.CORS))
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware(cfg.Tracing.ServiceName))
	}
	router.Use(ErrorHandlerMiddleware())

	// 运维端点不经过认证和限流
	healthController := NewHealthController(deps.DB, deps.HealthCheckers)
	if deps.Hub != nil {
		healthController.clients = deps.Hub
	}
	router.GET("/health", healthController.Check)
	router.GET("/metrics", MetricsHandler)

	if deps.Hub != nil {
		upgrader := websocket.NewUpgrader(cfg.CORS.AllowedOrigins)
		router.GET("/ws", websocket.WebSocketHandler(deps.Hub, deps.Validator, cfg.Keycloak.AdminRole, upgrader))
	}

	adminOnly := auth.RequireRole(cfg.Keycloak.AdminRole, deps.Authorizer)
	workerOnly := auth.RequireRole(cfg.Keycloak.WorkerRole, deps.Authorizer)

	taskController := NewTaskController(deps.TaskService)
	queryController := NewQueryController(deps.QueryService)
	templateController := NewTemplateController()
	analyticsController := NewAnalyticsController(deps.AnalyticsService)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	v1.Use(auth.Middleware(deps.Validator))
	{
		tasks := v1.Group("/tasks")
		{
			tasks.POST("", adminOnly, taskController.Create)
			tasks.POST("/bulk", adminOnly, taskController.CreateBulk)
			tasks.GET("", queryController.ListTasks)
			tasks.GET("/:id", queryController.GetTask)
			tasks.GET("/:id/history", queryController.GetHistory)
			tasks.GET("/:id/reviews", queryController.GetReviews)
			tasks.POST("/:id/assign", adminOnly, taskController.Assign)
			tasks.POST("/:id/unassign", adminOnly, taskController.Unassign)
			tasks.POST("/:id/start", workerOnly, taskController.Start)
			tasks.POST("/:id/submit", workerOnly, taskController.Submit)
			tasks.POST("/:id/review", adminOnly, taskController.Review)
		}

		v1.GET("/review-queue", adminOnly, queryController.ReviewQueue)

		templates := v1.Group("/templates")
		{
			templates.GET("", templateController.List)
			templates.GET("/:id", templateController.Get)
			templates.POST("/:id/validate", templateController.Validate)
		}

		v1.GET("/analytics/summary", adminOnly, analyticsController.Summary)
	}

	// 未匹配的路由返回 JSON 而不是 HTML
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
	})

	return router
}
