package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"innoteach/backend/pkg/response"
)

const healthTimeout = 2 * time.Second

// HealthHandler 健康检查
type HealthHandler struct {
	checks map[string]func(ctx context.Context) error
}

// NewHealthHandler 创建 HealthHandler
func NewHealthHandler(checks map[string]func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health 存活与依赖状态
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	ok := true
	status := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			ok = false
			status[name] = "down"
			continue
		}
		status[name] = "up"
	}

	body := gin.H{"ok": ok, "checks": status}
	if !ok {
		c.JSON(http.StatusServiceUnavailable, response.Response{
			Code:    response.CodeInternal,
			Message: "degraded",
			Data:    body,
		})
		return
	}
	response.OK(c, body)
}
