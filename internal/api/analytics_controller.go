package api

import (
	"github.com/gin-gonic/gin"
	"github.com/stanondieki/Infera-AI-sub003/internal/service"
)

// AnalyticsController 统计控制器
type AnalyticsController struct {
	analyticsService service.AnalyticsService
}

// NewAnalyticsController 创建统计控制器
func NewAnalyticsController(analyticsService service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
	}
}

// Summary 平台统计汇总
// @Summary      统计汇总
// @Description  状态、类别、优先级分布,金额汇总,用户完成率和近期活动
// @Tags         查询统计
// @Router       /analytics/summary [get]
func (c *AnalyticsController) Summary(ctx *gin.Context) {
	summary, err := c.analyticsService.Summary(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, summary)
}
