package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// principalKey 当前请求主体在 gin.Context 中的 key
const principalKey = "principal"

// Principal 已认证的请求主体
type Principal struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles"`
}

// HasRole 判断主体是否拥有角色,不区分大小写
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// SetPrincipal 保存请求主体,同时写入 user_id 供日志和审计使用
func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
	c.Set("user_id", p.UserID)
	c.Set("roles", p.Roles)
}

// GetPrincipal 获取请求主体
func GetPrincipal(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

// splitRoles 解析逗号分隔的角色列表
func splitRoles(raw string) []string {
	parts := strings.Split(raw, ",")
	roles := make([]string, 0, len(parts))
	for _, part := range parts {
		if r := strings.TrimSpace(part); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
