package model

import "gorm.io/datatypes"

// FileRef 提交附件
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Submission 提交表，对应 submissions
// (assignment_id, student_id) 唯一；ai_feedback 与教师的 score/feedback 相互独立
type Submission struct {
	ID           string                      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AssignmentID string                      `gorm:"type:uuid;not null"                             json:"assignmentId"`
	StudentID    string                      `gorm:"type:uuid;not null"                             json:"studentId"`
	Content      string                      `gorm:"type:text;not null;default:''"                  json:"content"`
	Files        datatypes.JSONSlice[FileRef] `gorm:"type:jsonb;not null;default:'[]'"               json:"files"`
	Score        *float64                    `gorm:"type:double precision"                          json:"score"`
	Feedback     string                      `gorm:"type:text;not null;default:''"                  json:"feedback"`
	AIFeedback   string                      `gorm:"column:ai_feedback;type:text;not null;default:''" json:"aiFeedback"`
	Timestamps

	// 关联
	Assignment *Assignment `gorm:"foreignKey:AssignmentID;references:ID" json:"assignment,omitempty"`
	Student    *User       `gorm:"foreignKey:StudentID;references:ID"    json:"student,omitempty"`
}

// TableName 指定表名
func (Submission) TableName() string { return "submissions" }

// CourseScore 学生按课程聚合的成绩
type CourseScore struct {
	CourseID    string   `gorm:"column:course_id"    json:"courseId"`
	CourseTitle string   `gorm:"column:course_title" json:"courseTitle"`
	AvgScore    *float64 `gorm:"column:avg_score"    json:"avgScore"`
	Count       int64    `gorm:"column:count"        json:"count"`
}
