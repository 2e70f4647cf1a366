package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stanondieki/Infera-AI-sub003/internal/model"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
)

// requestKey 请求信息在 context 中的 key
type requestKey string

const (
	requestIDKey requestKey = "request_id"
	clientIPKey  requestKey = "ip"
	userAgentKey requestKey = "user_agent"
)

// WithRequestInfo 把请求 ID、客户端 IP 和 User Agent 放入 context,供审计日志使用
func WithRequestInfo(ctx context.Context, requestID, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	ctx = context.WithValue(ctx, clientIPKey, ip)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

// AuditLogService 审计日志服务接口
type AuditLogService interface {
	RecordAction(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) error
	ListByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error)
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction 记录操作审计日志
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	// 序列化详情
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    GetRequestID(ctx),
		IP:           GetClientIP(ctx),
		UserAgent:    GetUserAgent(ctx),
		Details:      detailsJSON,
		CreatedAt:    time.Now().UTC(),
	}

	return s.auditRepo.Save(ctx, auditLog)
}

// ListByResource 查询某个资源的审计日志
func (s *auditLogService) ListByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindByResource(ctx, resourceType, resourceID)
}

// recordAudit 审计失败不影响业务结果,只记录日志
func recordAudit(ctx context.Context, svc AuditLogService, userID, action, resourceID string, details interface{}) {
	if svc == nil || userID == "" {
		return
	}
	if err := svc.RecordAction(ctx, userID, action, "task", resourceID, details); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"action":  action,
			"task_id": resourceID,
		}).Warn("failed to record audit log")
	}
}

// GetRequestID 从 context 获取请求 ID
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// GetClientIP 从 context 获取客户端 IP
func GetClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok {
		return v
	}
	return ""
}

// GetUserAgent 从 context 获取 User Agent
func GetUserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(userAgentKey).(string); ok {
		return v
	}
	return ""
}
