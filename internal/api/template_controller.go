package api

import (
	"github.com/gin-gonic/gin"
	"github.com/stanondieki/Infera-AI-sub003/internal/catalog"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

// TemplateController 模板控制器,模板目录是编译期静态表
type TemplateController struct{}

// NewTemplateController 创建模板控制器
func NewTemplateController() *TemplateController {
	return &TemplateController{}
}

// List 列出全部模板
// @Summary      获取模板列表
// @Tags         模板管理
// @Router       /templates [get]
func (c *TemplateController) List(ctx *gin.Context) {
	Success(ctx, catalog.List())
}

// Get 获取模板,带 section 参数时只返回该分区的字段
// @Summary      获取模板详情
// @Tags         模板管理
// @Router       /templates/{id} [get]
func (c *TemplateController) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	raw := ctx.Query("section")
	if raw == "" {
		tpl, err := catalog.Get(id)
		if err != nil {
			HandleError(ctx, err)
			return
		}
		Success(ctx, tpl)
		return
	}

	section, ok := catalog.ParseSection(raw)
	if !ok {
		HandleError(ctx, task.NewValidationError("invalid section", map[string]string{
			"section": "must be one of basic, content, requirements, payment",
		}))
		return
	}
	fields, err := catalog.Fields(id, section)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, fields)
}

// ValidateSectionRequest 分步校验请求
type ValidateSectionRequest struct {
	Section string                 `json:"section" binding:"required"`
	Values  map[string]interface{} `json:"values"`
}

// Validate 校验表单某一分区的取值
// @Summary      校验模板分区
// @Tags         模板管理
// @Router       /templates/{id}/validate [post]
func (c *TemplateController) Validate(ctx *gin.Context) {
	var req ValidateSectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	section, ok := catalog.ParseSection(req.Section)
	if !ok {
		HandleError(ctx, task.NewValidationError("invalid section", map[string]string{
			"section": "must be one of basic, content, requirements, payment",
		}))
		return
	}

	if err := catalog.ValidateSection(ctx.Param("id"), section, req.Values); err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, gin.H{"valid": true})
}
