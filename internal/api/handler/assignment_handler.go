package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/service"
	"innoteach/backend/pkg/response"
)

// AssignmentHandler 作业模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
	calendarSvc   service.CalendarService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService, calendarSvc service.CalendarService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc, calendarSvc: calendarSvc}
}

// Create 创建作业
// POST /api/assignments
func (h *AssignmentHandler) Create(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	a, err := h.assignmentSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, dto.AssignmentResponse{Assignment: a})
}

// ListByCourse 课程下的作业
// GET /api/assignments/course/:courseId
func (h *AssignmentHandler) ListByCourse(c *gin.Context) {
	list, err := h.assignmentSvc.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.AssignmentListResponse{Assignments: list})
}

// ListForTeacher 教师全部作业（附提交数）
// GET /api/assignments/teacher
func (h *AssignmentHandler) ListForTeacher(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	list, err := h.assignmentSvc.ListForTeacher(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.TeacherAssignmentListResponse{Assignments: list})
}

// Calendar 学生作业截止日历
// GET /api/assignments/calendar.ics
func (h *AssignmentHandler) Calendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	feed, err := h.calendarSvc.StudentFeed(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="assignments.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}
