package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"innoteach/backend/internal/authz"
	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/model"
	"innoteach/backend/internal/repository"
	apperrors "innoteach/backend/pkg/errors"
)

var (
	ErrAssignmentNotFound      = apperrors.New(apperrors.KindNotFound, "Assignment not found")
	ErrAssignmentTitleRequired = apperrors.New(apperrors.KindValidation, "Course and title are required")
	ErrInvalidDueDate          = apperrors.New(apperrors.KindValidation, "dueDate must be RFC3339 or YYYY-MM-DD")
)

// AssignmentService 作业业务接口
type AssignmentService interface {
	// Create 课程不存在或不属于当前教师时返回 ErrCourseNotFound
	Create(ctx context.Context, actor authz.Subject, req *dto.CreateAssignmentRequest) (*model.Assignment, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Assignment, error)
	ListForTeacher(ctx context.Context, actor authz.Subject) ([]model.AssignmentWithCount, error)
}

type assignmentService struct {
	repo   *repository.Repository
	authz  *authz.Authorizer
	logger *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, az *authz.Authorizer, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, authz: az, logger: logger}
}

func (s *assignmentService) Create(ctx context.Context, actor authz.Subject, req *dto.CreateAssignmentRequest) (*model.Assignment, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Course) == "" {
		return nil, ErrAssignmentTitleRequired
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	// 1. 校验课程归属
	if !isID(req.Course) {
		return nil, ErrCourseNotFound
	}
	course, err := s.repo.Course.GetByID(ctx, req.Course)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}
	if err := s.authz.Authorize(actor, authz.ActCreateAssignment, authz.AssignmentResource(course)); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	// 2. 创建
	a := &model.Assignment{
		CourseID:     course.ID,
		Title:        title,
		Instructions: req.Instructions,
		DueDate:      due,
	}
	if err := s.repo.Assignment.Create(ctx, a); err != nil {
		s.logger.Error("创建作业失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("作业已创建", zap.String("assignment_id", a.ID), zap.String("course_id", course.ID))
	return a, nil
}

func (s *assignmentService) ListByCourse(ctx context.Context, courseID string) ([]model.Assignment, error) {
	if !isID(courseID) {
		return []model.Assignment{}, nil
	}
	list, err := s.repo.Assignment.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程作业失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return nonNil(list), nil
}

func (s *assignmentService) ListForTeacher(ctx context.Context, actor authz.Subject) ([]model.AssignmentWithCount, error) {
	list, err := s.repo.Assignment.ListByTeacherWithCounts(ctx, actor.ID)
	if err != nil {
		s.logger.Error("查询教师作业失败", zap.Error(err))
		return nil, err
	}
	return nonNil(list), nil
}

// parseDueDate 空串表示无截止时间
func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, ErrInvalidDueDate
}
