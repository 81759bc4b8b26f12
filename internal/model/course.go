package model

import "time"

// Course 课程表，对应 courses
type Course struct {
	ID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title       string `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string `gorm:"type:text;not null;default:''"                  json:"description"`
	TeacherID   string `gorm:"type:uuid;not null"                             json:"teacherId"`
	Published   bool   `gorm:"not null;default:false"                         json:"published"`
	Timestamps

	// 关联
	Teacher *User `gorm:"foreignKey:TeacherID;references:ID" json:"teacher,omitempty"`

	// Students 已选课学生 ID，仅在需要时填充
	Students []string `gorm:"-" json:"students,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// CourseStudent 选课关系表，对应 course_students
// (course_id, student_id) 为联合主键，重复选课由数据库去重
type CourseStudent struct {
	CourseID   string    `gorm:"type:uuid;primaryKey"                json:"courseId"`
	StudentID  string    `gorm:"type:uuid;primaryKey"                json:"studentId"`
	EnrolledAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"enrolledAt"`
}

// TableName 指定表名
func (CourseStudent) TableName() string { return "course_students" }
