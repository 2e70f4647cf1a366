package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

// PartialFailureResponse 批量创建部分失败的响应体
type PartialFailureResponse struct {
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Kind    string           `json:"kind"`
	Created []*task.Task     `json:"created"`
	Failed  []task.ItemError `json:"failed"`
}

// statusForKind 领域错误类别对应的 HTTP 状态码
func statusForKind(kind task.Kind) int {
	switch kind {
	case task.KindValidation:
		return http.StatusBadRequest
	case task.KindNotFound:
		return http.StatusNotFound
	case task.KindForbidden:
		return http.StatusForbidden
	case task.KindInvalidState:
		return http.StatusConflict
	case task.KindPartialFailure:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// HandleError 把服务层错误写成响应
func HandleError(c *gin.Context, err error) {
	var domainErr *task.Error
	if !errors.As(err, &domainErr) {
		_ = c.Error(err)
		GetLogger().WithError(err).WithField("request_id", c.GetString("request_id")).Error("request failed")
		Error(c, http.StatusInternalServerError, "internal server error", "")
		return
	}

	status := statusForKind(domainErr.Kind)
	if domainErr.Kind == task.KindPartialFailure {
		created := domainErr.Created
		if created == nil {
			created = []*task.Task{}
		}
		c.JSON(status, PartialFailureResponse{
			Code:    status,
			Message: domainErr.Message,
			Kind:    string(domainErr.Kind),
			Created: created,
			Failed:  domainErr.Items,
		})
		return
	}

	c.JSON(status, ErrorResponse{
		Code:    status,
		Message: domainErr.Message,
		Kind:    string(domainErr.Kind),
		Fields:  domainErr.Fields,
	})
}

// ErrorHandlerMiddleware 兜底处理 handler 通过 c.Error 上报但未写响应的错误
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			HandleError(c, c.Errors.Last().Err)
		}
	}
}

// bindError 请求体解析失败
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "invalid request body",
		Detail:  err.Error(),
		Kind:    string(task.KindValidation),
	})
}
