package model

import "time"

// Assignment 作业表，对应 assignments
// 归属关系由 course.teacher_id 传递得出
type Assignment struct {
	ID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CourseID     string     `gorm:"type:uuid;not null"                             json:"courseId"`
	Title        string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Instructions string     `gorm:"type:text;not null;default:''"                  json:"instructions"`
	DueDate      *time.Time `gorm:"type:timestamptz"                               json:"dueDate,omitempty"`
	Timestamps

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// AssignmentWithCount 教师作业列表项，附带提交数
type AssignmentWithCount struct {
	Assignment
	CourseTitle     string `gorm:"column:course_title"     json:"courseTitle"`
	SubmissionCount int64  `gorm:"column:submission_count" json:"submissionCount"`
}
