package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"innoteach/backend/pkg/jwt"
	"innoteach/backend/pkg/response"
)

// TokenCookie 存放登录 token 的 cookie 名
const TokenCookie = "token"

// 上下文键
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxName   = "name"
	ctxEmail  = "email"
)

// CookieAuth 认证中间件
// 优先读取 token cookie，缺失时回退到 Authorization: Bearer <token>
func CookieAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "Not authenticated")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		// 将用户信息注入上下文
		c.Set(ctxUserID, claims.UserID())
		c.Set(ctxRole, claims.Role)
		c.Set(ctxName, claims.Name)
		c.Set(ctxEmail, claims.Email)

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if v, err := c.Cookie(TokenCookie); err == nil && v != "" {
		return v
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		if role == "" {
			response.Unauthorized(c, "Not authenticated")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if role == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "Forbidden")
		c.Abort()
	}
}
