package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程
type CreateCourseRequest struct {
	Title       string `json:"title"       binding:"required,max=200"`
	Description string `json:"description"`
}

// ── 作业模块 DTO ──

// CreateAssignmentRequest 创建作业
// dueDate 接受 RFC3339 或 YYYY-MM-DD
type CreateAssignmentRequest struct {
	Course       string `json:"course"       binding:"required"`
	Title        string `json:"title"        binding:"required,max=200"`
	Instructions string `json:"instructions"`
	DueDate      string `json:"dueDate"`
}

// ── 提交模块 DTO ──

// SubmitRequest 学生提交（multipart 表单或 JSON，附件单独处理）
type SubmitRequest struct {
	Assignment string `form:"assignment" json:"assignment" binding:"required"`
	Content    string `form:"content"    json:"content"`
}

// GradeRequest 教师评分，score 与 feedback 均按请求整体覆盖，score 缺省即清空
type GradeRequest struct {
	Score    *float64 `json:"score"    binding:"omitempty,min=0,max=100"`
	Feedback string   `json:"feedback"`
}
