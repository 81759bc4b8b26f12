package handler

import (
	"github.com/gin-gonic/gin"

	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/service"
	"innoteach/backend/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// Create 创建课程
// POST /api/courses
func (h *CourseHandler) Create(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, dto.CourseResponse{Course: course})
}

// Publish 发布课程
// PATCH /api/courses/:id/publish
func (h *CourseHandler) Publish(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Publish(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.CourseResponse{Course: course})
}

// ListMine 教师自己的课程
// GET /api/courses/my
func (h *CourseHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	courses, err := h.courseSvc.ListMine(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.CourseListResponse{Courses: courses})
}

// ListPublished 公开课程目录
// GET /api/courses
func (h *CourseHandler) ListPublished(c *gin.Context) {
	courses, err := h.courseSvc.ListPublished(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.CourseListResponse{Courses: courses})
}

// Enroll 学生选课
// POST /api/courses/:id/enroll
func (h *CourseHandler) Enroll(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Enroll(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.CourseResponse{Course: course})
}

// ListEnrolled 学生已选课程
// GET /api/courses/enrolled
func (h *CourseHandler) ListEnrolled(c *gin.Context) {
	actor, ok := MustGetSubject(c)
	if !ok {
		return
	}

	courses, err := h.courseSvc.ListEnrolled(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.CourseListResponse{Courses: courses})
}
