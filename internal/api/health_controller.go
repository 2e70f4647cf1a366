package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthChecker 外部依赖健康检查
type HealthChecker interface {
	CheckHealth(ctx context.Context) bool
}

// ClientCounter 在线推送连接数
type ClientCounter interface {
	GetClientCount() int
}

// HealthController 健康检查控制器
type HealthController struct {
	db       *gorm.DB
	checkers map[string]HealthChecker
	clients  ClientCounter
}

// NewHealthController 创建健康检查控制器,checkers 中的 nil 值视为未配置
func NewHealthController(db *gorm.DB, checkers map[string]HealthChecker) *HealthController {
	return &HealthController{
		db:       db,
		checkers: checkers,
	}
}

// Check 健康检查
func (c *HealthController) Check(ctx *gin.Context) {
	status := "healthy"
	checks := make(map[string]string)

	if c.db != nil {
		if err := c.checkDatabase(ctx.Request.Context()); err != nil {
			status = "unhealthy"
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	for name, checker := range c.checkers {
		switch {
		case checker == nil:
			checks[name] = "not configured"
		case checker.CheckHealth(ctx.Request.Context()):
			checks[name] = "healthy"
		default:
			status = "unhealthy"
			checks[name] = "unhealthy"
		}
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	body := gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	}
	if c.clients != nil {
		body["websocket_clients"] = c.clients.GetClientCount()
	}
	ctx.JSON(httpStatus, body)
}

// checkDatabase 检查数据库连接
func (c *HealthController) checkDatabase(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	if sqlDB == nil {
		return errors.New("no connection pool")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}
