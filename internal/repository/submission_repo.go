package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"innoteach/backend/internal/model"
)

// SubmissionRepository 提交数据访问接口
type SubmissionRepository interface {
	// Upsert 按 (assignment_id, student_id) 插入或更新 content；replaceFiles 为 true 时同时覆盖 files
	// 返回值 created 表示本次是否新建
	Upsert(ctx context.Context, sub *model.Submission, replaceFiles bool) (created bool, err error)
	// GetByID 预加载 assignment→course 与 student
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	// GetByPair 按 (assignment_id, student_id) 查询，不预加载
	GetByPair(ctx context.Context, assignmentID, studentID string) (*model.Submission, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Submission, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]model.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error)
	CountByAssignment(ctx context.Context, assignmentID string) (int64, error)
	// Grade 仅写 score 与 feedback
	Grade(ctx context.Context, id string, score *float64, feedback string) error
	// UpdateAIFeedback 仅写 ai_feedback
	UpdateAIFeedback(ctx context.Context, id, aiFeedback string) error
	ScoresByCourse(ctx context.Context, studentID string) ([]model.CourseScore, error)
}

// submissionRepo SubmissionRepository 的 GORM 实现
type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

// ────── 写入 ──────

const upsertSQL = `
INSERT INTO submissions (assignment_id, student_id, content, files, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (assignment_id, student_id) DO UPDATE
SET content    = EXCLUDED.content,
    files      = CASE WHEN ? THEN EXCLUDED.files ELSE submissions.files END,
    updated_at = EXCLUDED.updated_at
RETURNING id, (xmax = 0) AS inserted`

func (r *submissionRepo) Upsert(ctx context.Context, sub *model.Submission, replaceFiles bool) (bool, error) {
	if sub.Files == nil {
		sub.Files = []model.FileRef{}
	}
	now := time.Now()

	var row struct {
		ID       string
		Inserted bool
	}
	err := r.db.WithContext(ctx).
		Raw(upsertSQL, sub.AssignmentID, sub.StudentID, sub.Content, sub.Files, now, now, replaceFiles).
		Scan(&row).Error
	if err != nil {
		return false, err
	}

	sub.ID = row.ID
	return row.Inserted, nil
}

func (r *submissionRepo) Grade(ctx context.Context, id string, score *float64, feedback string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":      score,
			"feedback":   feedback,
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

func (r *submissionRepo) UpdateAIFeedback(ctx context.Context, id, aiFeedback string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("id = ?", id).
		UpdateColumn("ai_feedback", aiFeedback)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ────── 查询 ──────

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := r.db.WithContext(ctx).
		Preload("Assignment.Course").
		Preload("Student", selectPublicUser).
		Where("id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepo) GetByPair(ctx context.Context, assignmentID, studentID string) (*model.Submission, error) {
	var sub model.Submission
	err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Submission, error) {
	var list []model.Submission
	err := r.db.WithContext(ctx).
		Preload("Assignment.Course").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *submissionRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.Submission, error) {
	var list []model.Submission
	err := r.db.WithContext(ctx).
		Preload("Assignment.Course").
		Preload("Student", selectPublicUser).
		Joins("JOIN assignments a ON a.id = submissions.assignment_id").
		Joins("JOIN courses c ON c.id = a.course_id").
		Where("c.teacher_id = ?", teacherID).
		Order("submissions.created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *submissionRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error) {
	var list []model.Submission
	err := r.db.WithContext(ctx).
		Preload("Student", selectPublicUser).
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *submissionRepo) CountByAssignment(ctx context.Context, assignmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("assignment_id = ?", assignmentID).
		Count(&count).Error
	return count, err
}

func (r *submissionRepo) ScoresByCourse(ctx context.Context, studentID string) ([]model.CourseScore, error) {
	var list []model.CourseScore
	err := r.db.WithContext(ctx).
		Table("submissions s").
		Select("a.course_id, c.title AS course_title, AVG(s.score) AS avg_score, COUNT(*) AS count").
		Joins("JOIN assignments a ON a.id = s.assignment_id").
		Joins("JOIN courses c ON c.id = a.course_id").
		Where("s.student_id = ?", studentID).
		Group("a.course_id, c.title").
		Order("c.title").
		Scan(&list).Error
	return list, err
}
