package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stanondieki/Infera-AI-sub003/internal/service"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

// QueryController 查询控制器
type QueryController struct {
	queryService service.QueryService
}

// NewQueryController 创建查询控制器
func NewQueryController(queryService service.QueryService) *QueryController {
	return &QueryController{
		queryService: queryService,
	}
}

// parseFilter 解析列表查询参数,非法取值一次性返回字段错误
func parseFilter(ctx *gin.Context) (*repository.TaskFilter, error) {
	errs := task.FieldErrors{}
	filter := &repository.TaskFilter{
		Search: strings.TrimSpace(ctx.Query("search")),
		SortBy: ctx.Query("sort_by"),
		Order:  ctx.Query("order"),
	}

	if raw := ctx.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, ok := task.ParseStatus(part)
			if !ok {
				errs.Add("status", "unknown status "+strings.TrimSpace(part))
				continue
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if raw := ctx.Query("category"); raw != "" {
		if category, ok := task.ParseCategory(raw); ok {
			filter.Category = &category
		} else {
			errs.Add("category", "unknown category "+raw)
		}
	}
	if raw := ctx.Query("priority"); raw != "" {
		if priority, ok := task.ParsePriority(raw); ok {
			filter.Priority = &priority
		} else {
			errs.Add("priority", "unknown priority "+raw)
		}
	}
	if raw := strings.TrimSpace(ctx.Query("assignee")); raw != "" {
		filter.Assignee = &raw
	}
	if raw := ctx.Query("is_quality_control"); raw != "" {
		if qc, err := strconv.ParseBool(raw); err == nil {
			filter.IsQualityControl = &qc
		} else {
			errs.Add("is_quality_control", "must be true or false")
		}
	}
	if raw := ctx.Query("created_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedFrom = &t
		} else {
			errs.Add("created_from", "must be an RFC3339 timestamp")
		}
	}
	if raw := ctx.Query("created_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedTo = &t
		} else {
			errs.Add("created_to", "must be an RFC3339 timestamp")
		}
	}
	filter.Page = queryInt(ctx, "page", errs)
	filter.PageSize = queryInt(ctx, "page_size", errs)

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return filter, nil
}

func queryInt(ctx *gin.Context, key string, errs task.FieldErrors) int {
	raw := ctx.Query(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		errs.Add(key, "must be a non-negative integer")
		return 0
	}
	return v
}

// ListTasks 列出任务
// @Summary      获取任务列表
// @Description  分页获取任务列表,支持状态、类别、优先级、分配人和关键字过滤
// @Tags         查询统计
// @Router       /tasks [get]
func (c *QueryController) ListTasks(ctx *gin.Context) {
	filter, err := parseFilter(ctx)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	page, err := c.queryService.List(ctx.Request.Context(), filter)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Paginated(ctx, page.Items, NewPaginationInfo(page.Page, page.PageSize, page.Total))
}

// GetTask 获取任务详情
func (c *QueryController) GetTask(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateTaskID(ctx, id) {
		return
	}

	t, err := c.queryService.Get(ctx.Request.Context(), id)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, t)
}

// GetHistory 获取状态流转历史
func (c *QueryController) GetHistory(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateTaskID(ctx, id) {
		return
	}

	history, err := c.queryService.History(ctx.Request.Context(), id)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, history)
}

// GetReviews 获取审核记录
func (c *QueryController) GetReviews(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateTaskID(ctx, id) {
		return
	}

	reviews, err := c.queryService.Reviews(ctx.Request.Context(), id)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, reviews)
}

// ReviewQueue 待审核队列,按提交时间先后
func (c *QueryController) ReviewQueue(ctx *gin.Context) {
	errs := task.FieldErrors{}
	page := queryInt(ctx, "page", errs)
	pageSize := queryInt(ctx, "page_size", errs)
	if err := errs.Err(); err != nil {
		HandleError(ctx, err)
		return
	}

	result, err := c.queryService.ReviewQueue(ctx.Request.Context(), page, pageSize)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Paginated(ctx, result.Items, NewPaginationInfo(result.Page, result.PageSize, result.Total))
}
