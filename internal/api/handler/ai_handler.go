package handler

import (
	"github.com/gin-gonic/gin"

	"innoteach/backend/internal/service"
	"innoteach/backend/pkg/response"
)

// AIHandler AI 评阅 HTTP 处理器
type AIHandler struct {
	gradingSvc service.GradingService
}

// NewAIHandler 创建 AIHandler
func NewAIHandler(gradingSvc service.GradingService) *AIHandler {
	return &AIHandler{gradingSvc: gradingSvc}
}

// Grade 请求 AI 评语
// POST /api/ai/grade/:submissionId
func (h *AIHandler) Grade(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	result, err := h.gradingSvc.RequestAIFeedback(c.Request.Context(), actor, c.Param("submissionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}
