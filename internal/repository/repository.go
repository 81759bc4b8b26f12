package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
// 仓储层只做数据访问，不做任何权限判断
type Repository struct {
	User       UserRepository
	Course     CourseRepository
	Assignment AssignmentRepository
	Submission SubmissionRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:       NewUserRepo(db),
		Course:     NewCourseRepo(db),
		Assignment: NewAssignmentRepo(db),
		Submission: NewSubmissionRepo(db),
	}
}

// selectPublicUser 关联用户时只取公开字段
func selectPublicUser(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "role")
}
