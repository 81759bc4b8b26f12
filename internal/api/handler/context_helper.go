package handler

import (
	"github.com/gin-gonic/gin"

	"innoteach/backend/internal/authz"
	"innoteach/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果认证中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString("user_id")
	if s == "" {
		response.Unauthorized(c, "Not authenticated")
		return "", false
	}
	return s, true
}

// MustGetSubject 提取当前请求身份（user_id + role）
func MustGetSubject(c *gin.Context) (authz.Subject, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return authz.Subject{}, false
	}
	role := c.GetString("role")
	if role == "" {
		response.Unauthorized(c, "Not authenticated")
		return authz.Subject{}, false
	}
	return authz.Subject{ID: id, Role: role}, true
}
