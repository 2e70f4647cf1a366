package api

import (
	"github.com/gin-gonic/gin"
)

// apiContentSecurityPolicy 接口只返回 JSON,不允许加载任何资源或被嵌入
const apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeadersMiddleware 安全头中间件
// HSTS 只在生产环境下发,开发环境通常是明文 HTTP
func SecurityHeadersMiddleware(production bool) gin.HandlerFunc {
	headers := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": apiContentSecurityPolicy,
		// 任务数据和收入不能被中间代理缓存
		"Cache-Control": "no-store",
	}
	if production {
		headers["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains"
	}

	return func(c *gin.Context) {
		for name, value := range headers {
			c.Header(name, value)
		}
		c.Next()
	}
}
