package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/service"
	"innoteach/backend/pkg/response"
)

// SubmissionHandler 提交与评分 HTTP 处理器
type SubmissionHandler struct {
	submissionSvc service.SubmissionService
	maxUpload     int64
}

// NewSubmissionHandler 创建 SubmissionHandler
func NewSubmissionHandler(submissionSvc service.SubmissionService, maxUpload int64) *SubmissionHandler {
	return &SubmissionHandler{submissionSvc: submissionSvc, maxUpload: maxUpload}
}

// Submit 学生提交（multipart：assignment, content, 可选 file；纯文本提交也可用 JSON）
// POST /api/submissions
func (h *SubmissionHandler) Submit(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var upload *service.Upload
	fh, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		respondBindError(c, err)
		return
	default:
		if h.maxUpload > 0 && fh.Size > h.maxUpload {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeValidation, "File too large")
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondBindError(c, err)
			return
		}
		defer f.Close()
		upload = &service.Upload{Name: fh.Filename, Reader: f}
	}

	result, err := h.submissionSvc.Submit(c.Request.Context(), actor, &req, upload)
	if err != nil {
		respondError(c, err)
		return
	}

	body := dto.SubmissionResponse{Submission: result.Submission}
	if result.Created {
		response.Created(c, body)
		return
	}
	response.OK(c, body)
}

// ListMine 学生本人提交
// GET /api/submissions/mine
func (h *SubmissionHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	list, err := h.submissionSvc.ListMine(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.SubmissionListResponse{Submissions: list})
}

// ListForTeacher 教师课程下的全部提交
// GET /api/submissions
func (h *SubmissionHandler) ListForTeacher(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	list, err := h.submissionSvc.ListForTeacher(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.SubmissionListResponse{Submissions: list})
}

// ListByAssignment 单个作业的提交
// GET /api/submissions/assignment/:assignmentId
func (h *SubmissionHandler) ListByAssignment(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	list, err := h.submissionSvc.ListByAssignment(c.Request.Context(), actor, c.Param("assignmentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.SubmissionListResponse{Submissions: list})
}

// Count 作业提交数
// GET /api/submissions/count/:assignmentId
func (h *SubmissionHandler) Count(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	n, err := h.submissionSvc.Count(c.Request.Context(), actor, c.Param("assignmentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.CountResponse{Count: n})
}

// Grade 教师评分
// PATCH /api/submissions/:id/grade
func (h *SubmissionHandler) Grade(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	sub, err := h.submissionSvc.Grade(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.SubmissionResponse{Submission: sub})
}
