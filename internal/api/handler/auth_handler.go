package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"innoteach/backend/internal/api/middleware"
	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/service"
	"innoteach/backend/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cookie  CookieOptions
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookie: cookie}
}

// Register 注册并登录
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setToken(c, result.Token)
	response.Created(c, dto.AuthResponse{User: result.User})
}

// Login 用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setToken(c, result.Token)
	response.OK(c, dto.AuthResponse{User: result.User})
}

// Logout 清除登录 cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	response.OK(c, gin.H{"ok": true})
}

// Me 当前用户
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, dto.AuthResponse{User: *user})
}

// ── cookie ──

func (h *AuthHandler) setToken(c *gin.Context, token string) {
	h.setCookie(c, token, int(h.cookie.TTL.Seconds()))
}

// setCookie 设置与清除使用同一组属性，保证浏览器能正确覆盖
func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(sameSite(h.cookie.SameSite))
	c.SetCookie(middleware.TokenCookie, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func sameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
