package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"innoteach/backend/internal/model"
)

// CourseRepository 课程与选课数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	SetPublished(ctx context.Context, id string, published bool) error
	ListByTeacher(ctx context.Context, teacherID string) ([]model.Course, error)
	ListPublished(ctx context.Context) ([]model.Course, error)

	// Enroll 幂等：已选课时不报错也不重复写入
	Enroll(ctx context.Context, courseID, studentID string) error
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
	ListEnrolled(ctx context.Context, studentID string) ([]model.Course, error)
	ListStudentIDs(ctx context.Context, courseID string) ([]string, error)
}

// courseRepo CourseRepository 的 GORM 实现
type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

// ────────────────────── 课程 ──────────────────────

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) SetPublished(ctx context.Context, id string, published bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"published":  published,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) ListPublished(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Preload("Teacher", selectPublicUser).
		Where("published = ?", true).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

// ────────────────────── 选课 ──────────────────────

func (r *courseRepo) Enroll(ctx context.Context, courseID, studentID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.CourseStudent{
			CourseID:   courseID,
			StudentID:  studentID,
			EnrolledAt: time.Now(),
		}).Error
}

func (r *courseRepo) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CourseStudent{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *courseRepo) ListEnrolled(ctx context.Context, studentID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Preload("Teacher", selectPublicUser).
		Joins("JOIN course_students cs ON cs.course_id = courses.id").
		Where("cs.student_id = ?", studentID).
		Order("courses.created_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) ListStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.CourseStudent{}).
		Where("course_id = ?", courseID).
		Order("enrolled_at").
		Pluck("student_id", &ids).Error
	return ids, err
}
