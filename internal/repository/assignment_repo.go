package repository

import (
	"context"

	"gorm.io/gorm"

	"innoteach/backend/internal/model"
)

// AssignmentRepository 作业数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	// GetByID 预加载所属课程，用于归属判断
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Assignment, error)
	ListByTeacherWithCounts(ctx context.Context, teacherID string) ([]model.AssignmentWithCount, error)
	// ListForStudent 学生已选课程中的全部作业
	ListForStudent(ctx context.Context, studentID string) ([]model.Assignment, error)
}

// assignmentRepo AssignmentRepository 的 GORM 实现
type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.Assignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListByTeacherWithCounts(ctx context.Context, teacherID string) ([]model.AssignmentWithCount, error) {
	var list []model.AssignmentWithCount
	err := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Select("assignments.*, c.title AS course_title, "+
			"(SELECT COUNT(*) FROM submissions s WHERE s.assignment_id = assignments.id) AS submission_count").
		Joins("JOIN courses c ON c.id = assignments.course_id").
		Where("c.teacher_id = ?", teacherID).
		Order("assignments.created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListForStudent(ctx context.Context, studentID string) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Joins("JOIN course_students cs ON cs.course_id = assignments.course_id").
		Where("cs.student_id = ?", studentID).
		Order("assignments.due_date ASC NULLS LAST, assignments.created_at DESC").
		Find(&list).Error
	return list, err
}
