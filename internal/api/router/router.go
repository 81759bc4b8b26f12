package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"innoteach/backend/config"
	"innoteach/backend/internal/api/handler"
	"innoteach/backend/internal/api/middleware"
	"innoteach/backend/internal/model"
	"innoteach/backend/pkg/jwt"
	"innoteach/backend/pkg/redis"
)

// 登录/注册限流：每个 IP 每个路由
const (
	authRateLimit  = 20
	authRateWindow = time.Minute
)

// multipart 表单字段的额外余量
const formOverhead = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时限流降级放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.Trace.Enabled {
		r.Use(otelgin.Middleware(cfg.Trace.ServiceName))
	}
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.ClientOrigin))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	// ── 本地附件 ──
	if cfg.Upload.Driver == "local" {
		r.Static(cfg.Upload.URLPrefix, cfg.Upload.Dir)
	}

	jsonLimit := middleware.BodyLimit(cfg.Server.BodyLimit)
	uploadLimit := middleware.BodyLimit(cfg.Upload.MaxSize + formOverhead)
	authRequired := middleware.CookieAuth(jwtMgr)
	teacherOnly := middleware.RoleAuth(model.RoleTeacher)
	studentOnly := middleware.RoleAuth(model.RoleStudent)

	api := r.Group("/api")
	{
		// 认证模块
		auth := api.Group("/auth", jsonLimit)
		{
			limited := middleware.RateLimit(rdb, authRateLimit, authRateWindow)
			auth.POST("/register", limited, h.Auth.Register)
			auth.POST("/login", limited, h.Auth.Login)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/me", authRequired, h.Auth.Me)
		}

		// 课程模块
		courses := api.Group("/courses", jsonLimit)
		{
			courses.GET("", h.Course.ListPublished)
			courses.POST("", authRequired, teacherOnly, h.Course.Create)
			courses.GET("/my", authRequired, teacherOnly, h.Course.ListMine)
			courses.PATCH("/:id/publish", authRequired, teacherOnly, h.Course.Publish)
			courses.POST("/:id/enroll", authRequired, studentOnly, h.Course.Enroll)
			courses.GET("/enrolled", authRequired, studentOnly, h.Course.ListEnrolled)
		}

		// 作业模块
		assignments := api.Group("/assignments", jsonLimit, authRequired)
		{
			assignments.POST("", teacherOnly, h.Assignment.Create)
			assignments.GET("/course/:courseId", h.Assignment.ListByCourse)
			assignments.GET("/teacher", teacherOnly, h.Assignment.ListForTeacher)
			assignments.GET("/calendar.ics", studentOnly, h.Assignment.Calendar)
		}

		// 提交与评分
		api.POST("/submissions", uploadLimit, authRequired, studentOnly, h.Submission.Submit)
		submissions := api.Group("/submissions", jsonLimit, authRequired)
		{
			submissions.GET("/mine", studentOnly, h.Submission.ListMine)
			submissions.GET("", teacherOnly, h.Submission.ListForTeacher)
			submissions.GET("/assignment/:assignmentId", teacherOnly, h.Submission.ListByAssignment)
			submissions.GET("/assignment/:assignmentId/export", teacherOnly, h.Export.Gradebook)
			submissions.GET("/count/:assignmentId", teacherOnly, h.Submission.Count)
			submissions.PATCH("/:id/grade", teacherOnly, h.Submission.Grade)
		}

		// AI 评阅（教师或提交者本人，归属由 Service 层判断）
		api.POST("/ai/grade/:submissionId", jsonLimit, authRequired, h.AI.Grade)

		// 成绩统计
		api.GET("/analytics/student/:studentId", authRequired, h.Analytics.StudentSummary)
	}

	return r
}
