package container

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stanondieki/Infera-AI-sub003/internal/api"
	"github.com/stanondieki/Infera-AI-sub003/internal/auth"
	"github.com/stanondieki/Infera-AI-sub003/internal/cache"
	"github.com/stanondieki/Infera-AI-sub003/internal/config"
	"github.com/stanondieki/Infera-AI-sub003/internal/database"
	"github.com/stanondieki/Infera-AI-sub003/internal/metrics"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stanondieki/Infera-AI-sub003/internal/service"
	"github.com/stanondieki/Infera-AI-sub003/internal/websocket"
	"gorm.io/gorm"
)

// permissionCacheTTL OpenFGA 检查结果缓存时间
const permissionCacheTTL = 30 * time.Second

// Container 依赖注入容器
// 管理数据库、仓储、服务和外部客户端
type Container struct {
	cfg *config.Config
	db  *gorm.DB

	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditLogRepository

	summaryCache cache.Cache
	hub          *websocket.Hub
	collector    *metrics.Collector

	taskService      service.TaskService
	queryService     service.QueryService
	analyticsService service.AnalyticsService

	validator  auth.TokenValidator
	fgaClient  *auth.OpenFGAClient
	authorizer *auth.CachedAuthorizer
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件,未配置的可选组件保持为空
func NewContainer(cfg *config.Config) (*Container, error) {
	// 默认重试 3 次,初始间隔 1 秒,指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	summaryCache, err := cache.New(cfg.Redis)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	c := &Container{
		cfg:          cfg,
		db:           db,
		taskRepo:     repository.NewTaskRepository(db),
		userRepo:     repository.NewUserRepository(db),
		auditRepo:    repository.NewAuditLogRepository(db),
		summaryCache: summaryCache,
		hub:          websocket.NewHub(),
	}

	auditSvc := service.NewAuditLogService(c.auditRepo)
	c.taskService = service.NewTaskService(c.taskRepo, c.userRepo, auditSvc, service.WithNotifier(c.hub))
	c.queryService = service.NewQueryService(c.taskRepo,
		repository.NewStateHistoryRepository(db),
		repository.NewReviewRecordRepository(db),
	)
	c.analyticsService = service.NewAnalyticsService(c.taskRepo, c.userRepo, summaryCache)
	c.collector = metrics.NewCollector(db, c.taskRepo, cfg.Metrics.CollectSchedule)

	if cfg.Keycloak.Issuer != "" {
		c.validator = auth.NewKeycloakTokenValidator(cfg.Keycloak.Issuer, cfg.Keycloak.JWKSURL)
	} else {
		logrus.Warn("keycloak issuer not configured, using X-User-ID headers for authentication")
	}

	if cfg.OpenFGA.StoreID != "" {
		fgaClient, err := auth.NewOpenFGAClientWithRetry(cfg.OpenFGA.APIURL, cfg.OpenFGA.StoreID, cfg.OpenFGA.ModelID, 3, time.Second)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize OpenFGA client: %w", err)
		}
		c.fgaClient = fgaClient
		c.authorizer = auth.NewCachedAuthorizer(fgaClient, auth.NewPermissionCache(permissionCacheTTL))
	}

	return c, nil
}

// Start 启动后台组件
func (c *Container) Start() error {
	go c.hub.Run()
	return c.collector.Start()
}

// Router 构造 HTTP 路由
func (c *Container) Router() *gin.Engine {
	deps := &api.Dependencies{
		DB:               c.db,
		TaskService:      c.taskService,
		QueryService:     c.queryService,
		AnalyticsService: c.analyticsService,
		Validator:        c.validator,
		Hub:              c.hub,
		HealthCheckers:   map[string]api.HealthChecker{},
	}
	// 接口字段只在确有实现时赋值,避免 nil 指针被当作已配置
	if c.authorizer != nil {
		deps.Authorizer = c.authorizer
		deps.HealthCheckers["openfga"] = c.fgaClient
	}
	return api.SetupRoutesWithConfig(c.cfg, deps)
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// UserRepository 用户仓储
func (c *Container) UserRepository() repository.UserRepository {
	return c.userRepo
}

// TaskService 任务服务
func (c *Container) TaskService() service.TaskService {
	return c.taskService
}

// RelationWriter OpenFGA 关系写入,未配置时返回 nil
func (c *Container) RelationWriter() auth.RelationWriter {
	if c.authorizer == nil {
		return nil
	}
	return c.authorizer
}

// Close 关闭容器,清理资源
func (c *Container) Close() {
	if c.collector != nil {
		c.collector.Stop()
	}
	if c.hub != nil {
		c.hub.Stop()
	}
	if c.summaryCache != nil {
		c.summaryCache.Close()
	}
	if err := database.Close(c.db); err != nil {
		logrus.WithError(err).Warn("failed to close database")
	}
}
