package handler

import (
	"context"
	"time"

	"innoteach/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Course     *CourseHandler
	Assignment *AssignmentHandler
	Submission *SubmissionHandler
	Export     *ExportHandler
	AI         *AIHandler
	Analytics  *AnalyticsHandler
	Health     *HealthHandler
}

// Options Handler 层需要的配置
type Options struct {
	Cookie        CookieOptions
	MaxUploadSize int64
	// Checks 健康检查项，名称 → 探测函数
	Checks map[string]func(ctx context.Context) error
}

// CookieOptions 登录 cookie 属性
type CookieOptions struct {
	TTL      time.Duration
	Secure   bool
	SameSite string // lax | strict | none
	Domain   string
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, opts Options) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, opts.Cookie),
		Course:     NewCourseHandler(svc.Course),
		Assignment: NewAssignmentHandler(svc.Assignment, svc.Calendar),
		Submission: NewSubmissionHandler(svc.Submission, opts.MaxUploadSize),
		Export:     NewExportHandler(svc.Export),
		AI:         NewAIHandler(svc.Grading),
		Analytics:  NewAnalyticsHandler(svc.Analytics),
		Health:     NewHealthHandler(opts.Checks),
	}
}
