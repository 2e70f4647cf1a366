package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequireRole 要求主体拥有角色
// 令牌中没有该角色时,若配置了 authorizer 则在 console 对象上检查同名关系
func RequireRole(role string, authorizer Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			unauthorized(c, "unauthorized", "")
			return
		}
		if p.HasRole(role) {
			c.Next()
			return
		}

		if authorizer != nil {
			allowed, err := authorizer.CheckPermission(c.Request.Context(), p.UserID, role, ConsoleType, ConsoleID)
			if err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"user_id":  p.UserID,
					"relation": role,
				}).Error("permission check failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    http.StatusInternalServerError,
					"message": "permission check failed",
					"kind":    "INTERNAL",
				})
				return
			}
			if allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":    http.StatusForbidden,
			"message": "role " + role + " required",
			"kind":    "FORBIDDEN",
		})
	}
}
