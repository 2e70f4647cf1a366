package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stanondieki/Infera-AI-sub003/internal/auth"
	"github.com/stanondieki/Infera-AI-sub003/internal/service"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
	"github.com/stanondieki/Infera-AI-sub003/internal/utils"
)

// TaskController 任务控制器
type TaskController struct {
	taskService service.TaskService
}

// NewTaskController 创建任务控制器
func NewTaskController(taskService service.TaskService) *TaskController {
	return &TaskController{
		taskService: taskService,
	}
}

// CreateTaskRequest 创建任务请求,template_id 为空时按自由表单创建
type CreateTaskRequest struct {
	TemplateID string `json:"template_id"`
	service.TaskInput
}

// AssignRequest 分配请求
type AssignRequest struct {
	UserIDs []string `json:"user_ids"`
}

// ReviewRequest 审核请求
type ReviewRequest struct {
	Action string `json:"action" binding:"required"`
	service.ReviewOptions
}

// validateTaskID 验证任务 ID 并返回错误响应(如果无效)
func validateTaskID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateTaskID(id); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid task ID",
			Detail:  err.Error(),
			Kind:    string(task.KindValidation),
		})
		return false
	}
	return true
}

// actorID 当前请求主体的用户 ID
func actorID(ctx *gin.Context) (string, bool) {
	p, ok := auth.GetPrincipal(ctx)
	if !ok || p.UserID == "" {
		Error(ctx, http.StatusUnauthorized, "unauthorized", "")
		return "", false
	}
	return p.UserID, true
}

// Create 创建任务
// @Summary      创建任务
// @Description  基于模板或自由表单创建任务,可同时指定分配人
// @Tags         任务管理
// @Router       /tasks [post]
func (c *TaskController) Create(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	var (
		created *task.Task
		err     error
	)
	if strings.TrimSpace(req.TemplateID) == "" {
		created, err = c.taskService.CreateFreeform(ctx.Request.Context(), actor, &req.TaskInput)
	} else {
		created, err = c.taskService.CreateFromTemplate(ctx.Request.Context(), actor, req.TemplateID, &req.TaskInput)
	}
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Created(ctx, created)
}

// CreateBulk 批量创建任务
// @Summary      批量创建任务
// @Description  按类别模板的示例批量生成任务,部分失败时返回 207
// @Tags         任务管理
// @Router       /tasks/bulk [post]
func (c *TaskController) CreateBulk(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}

	var req service.BulkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	tasks, err := c.taskService.CreateBulk(ctx.Request.Context(), actor, &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Created(ctx, tasks)
}

// Assign 分配任务
// @Summary      分配任务
// @Description  替换任务的分配人集合,空集合使任务回到 AVAILABLE
// @Tags         任务管理
// @Router       /tasks/{id}/assign [post]
func (c *TaskController) Assign(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateTaskID(ctx, id) {
		return
	}
	actor, ok := actorID(ctx)
	if !ok {
		return
	}

	var req AssignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	updated, err := c.taskService.Assign(ctx.Request.Context(), actor, id, req.UserIDs)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, updated)
}

// Unassign 取消分配
func (c *TaskController) Unassign(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateTaskID(ctx, id) {
		return
	}
	actor, ok := actorID(ctx)
	if !ok {
		return
	}

	updated, err := c.taskService.Unassign(ctx.Request.Context(), actor, id)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, updated)
}

// Start 开始任务
// @Summary      开始任务
// @Description  候选人之一开始任务,任务只保留该工作者
// @Tags         任务管理
// @Router       /tasks/{id}/start [post]
func (c *TaskController) Start(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateTaskID(ctx, id) {
		return
	}
	worker, ok := actorID(ctx)
	if !ok {
		return
	}

	updated, err := c.taskService.Start(ctx.Request.Context(), worker, id)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, updated)
}

// Submit 提交任务
// @Summary      提交任务
// @Description  工作者提交交付物和实际工时,任务进入审核队列
// @Tags         任务管理
// @Router       /tasks/{id}/submit [post]
func (c *TaskController) Submit(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateTaskID(ctx, id) {
		return
	}
	worker, ok := actorID(ctx)
	if !ok {
		return
	}

	var req service.SubmitPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	updated, err := c.taskService.Submit(ctx.Request.Context(), worker, id, &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, updated)
}

// Review 审核任务
// @Summary      审核任务
// @Description  通过(带评分)或驳回(带反馈,可退回修改)
// @Tags         任务管理
// @Router       /tasks/{id}/review [post]
func (c *TaskController) Review(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateTaskID(ctx, id) {
		return
	}
	reviewer, ok := actorID(ctx)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}
	action, ok := task.ParseReviewAction(req.Action)
	if !ok {
		HandleError(ctx, task.NewValidationError("invalid review action", map[string]string{
			"action": "must be approve or reject",
		}))
		return
	}

	updated, err := c.taskService.Review(ctx.Request.Context(), reviewer, id, action, &req.ReviewOptions)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, updated)
}
