package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"innoteach/backend/internal/api/middleware"
	apperrors "innoteach/backend/pkg/errors"
	"innoteach/backend/pkg/response"
)

// respondError 按错误分类写入响应
// 内部错误挂到 c.Errors，由日志中间件输出，响应只返回通用文案
func respondError(c *gin.Context, err error) {
	msg := apperrors.Message(err)

	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		response.BadRequest(c, msg)
	case apperrors.KindUnauthenticated:
		response.Unauthorized(c, msg)
	case apperrors.KindForbidden:
		response.Forbidden(c, msg)
	case apperrors.KindNotFound:
		response.NotFound(c, msg)
	case apperrors.KindConflict:
		response.Conflict(c, msg)
	case apperrors.KindUpstream:
		_ = c.Error(err)
		response.BadGateway(c, msg, apperrors.UpstreamStatus(err))
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// respondBindError 请求体绑定失败
func respondBindError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeValidation, "Request body too large")
		return
	}
	response.BadRequest(c, "Invalid request body")
}
