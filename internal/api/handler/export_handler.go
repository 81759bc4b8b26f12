package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"innoteach/backend/internal/service"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// Gradebook 导出作业成绩册
// GET /api/submissions/assignment/:assignmentId/export
func (h *ExportHandler) Gradebook(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	file, err := h.exportSvc.ExportGradebook(c.Request.Context(), actor, c.Param("assignmentId"))
	if err != nil {
		respondError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
