package handler

import (
	"github.com/gin-gonic/gin"

	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/service"
	"innoteach/backend/pkg/response"
)

// AnalyticsHandler 成绩统计 HTTP 处理器
type AnalyticsHandler struct {
	analyticsSvc service.AnalyticsService
}

// NewAnalyticsHandler 创建 AnalyticsHandler
func NewAnalyticsHandler(analyticsSvc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// StudentSummary 学生按课程的平均分
// GET /api/analytics/student/:studentId
func (h *AnalyticsHandler) StudentSummary(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	stats, err := h.analyticsSvc.StudentSummary(c.Request.Context(), actor, c.Param("studentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.StudentAnalyticsResponse{ByCourse: stats})
}
