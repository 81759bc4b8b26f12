package dto

import (
	"time"

	"innoteach/backend/internal/model"
)

// ── 认证模块响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserResponse 去掉密码哈希等敏感字段
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse 注册/登录/当前用户
type AuthResponse struct {
	User UserResponse `json:"user"`
}

// AuthResult 认证成功结果，token 由 handler 写入 cookie
type AuthResult struct {
	User  UserResponse
	Token string
}

// ── 课程模块响应 ──

// CourseResponse 单个课程
type CourseResponse struct {
	Course *model.Course `json:"course"`
}

// CourseListResponse 课程列表
type CourseListResponse struct {
	Courses []model.Course `json:"courses"`
}

// ── 作业模块响应 ──

// AssignmentResponse 单个作业
type AssignmentResponse struct {
	Assignment *model.Assignment `json:"assignment"`
}

// AssignmentListResponse 作业列表
type AssignmentListResponse struct {
	Assignments []model.Assignment `json:"assignments"`
}

// TeacherAssignmentListResponse 教师作业列表（附提交数）
type TeacherAssignmentListResponse struct {
	Assignments []model.AssignmentWithCount `json:"assignments"`
}

// ── 提交模块响应 ──

// SubmissionResponse 单个提交
type SubmissionResponse struct {
	Submission *model.Submission `json:"submission"`
}

// SubmitResult 提交结果，Created 区分新建/更新
type SubmitResult struct {
	Submission *model.Submission
	Created    bool
}

// SubmissionListResponse 提交列表
type SubmissionListResponse struct {
	Submissions []model.Submission `json:"submissions"`
}

// CountResponse 计数
type CountResponse struct {
	Count int64 `json:"count"`
}

// ── AI 评阅响应 ──

// AIResult 模型返回的建议评语与分数
type AIResult struct {
	Feedback string   `json:"feedback"`
	Score    *float64 `json:"score"`
}

// AIGradeResponse AI 评阅结果与更新后的提交
type AIGradeResponse struct {
	AI         AIResult          `json:"ai"`
	Submission *model.Submission `json:"submission"`
}

// ── 统计模块响应 ──

// StudentAnalyticsResponse 学生按课程的成绩统计
type StudentAnalyticsResponse struct {
	ByCourse []model.CourseScore `json:"byCourse"`
}

// ── 导出 ──

// FileResult 生成的文件内容
type FileResult struct {
	Filename    string
	ContentType string
	Data        []byte
}
