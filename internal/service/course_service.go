package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"innoteach/backend/internal/authz"
	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/model"
	"innoteach/backend/internal/repository"
	apperrors "innoteach/backend/pkg/errors"
)

var (
	ErrCourseNotFound      = apperrors.New(apperrors.KindNotFound, "Course not found")
	ErrCourseTitleRequired = apperrors.New(apperrors.KindValidation, "Title is required")
)

// CourseService 课程与选课业务接口
type CourseService interface {
	Create(ctx context.Context, actor authz.Subject, req *dto.CreateCourseRequest) (*model.Course, error)
	// Publish 不存在或非本人课程均返回 ErrCourseNotFound
	Publish(ctx context.Context, actor authz.Subject, courseID string) (*model.Course, error)
	ListMine(ctx context.Context, actor authz.Subject) ([]model.Course, error)
	ListPublished(ctx context.Context) ([]model.Course, error)
	// Enroll 课程不存在或未发布返回 ErrCourseNotFound；重复选课幂等
	Enroll(ctx context.Context, actor authz.Subject, courseID string) (*model.Course, error)
	ListEnrolled(ctx context.Context, actor authz.Subject) ([]model.Course, error)
}

type courseService struct {
	repo   *repository.Repository
	authz  *authz.Authorizer
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, az *authz.Authorizer, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, authz: az, logger: logger}
}

// ────── Create ──────

func (s *courseService) Create(ctx context.Context, actor authz.Subject, req *dto.CreateCourseRequest) (*model.Course, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrCourseTitleRequired
	}

	course := &model.Course{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		TeacherID:   actor.ID,
	}
	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("课程已创建", zap.String("course_id", course.ID), zap.String("teacher_id", actor.ID))
	return course, nil
}

// ────── Publish ──────

func (s *courseService) Publish(ctx context.Context, actor authz.Subject, courseID string) (*model.Course, error) {
	course, err := s.get(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.Authorize(actor, authz.ActPublishCourse, authz.CourseResource(course)); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	if err := s.repo.Course.SetPublished(ctx, course.ID, true); err != nil {
		if isNotFound(err) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("发布课程失败", zap.String("course_id", course.ID), zap.Error(err))
		return nil, err
	}

	course.Published = true
	return course, nil
}

// ────── List ──────

func (s *courseService) ListMine(ctx context.Context, actor authz.Subject) ([]model.Course, error) {
	courses, err := s.repo.Course.ListByTeacher(ctx, actor.ID)
	if err != nil {
		s.logger.Error("查询教师课程失败", zap.Error(err))
		return nil, err
	}
	return nonNil(courses), nil
}

func (s *courseService) ListPublished(ctx context.Context) ([]model.Course, error) {
	courses, err := s.repo.Course.ListPublished(ctx)
	if err != nil {
		s.logger.Error("查询已发布课程失败", zap.Error(err))
		return nil, err
	}
	return nonNil(courses), nil
}

// ────── Enroll ──────

func (s *courseService) Enroll(ctx context.Context, actor authz.Subject, courseID string) (*model.Course, error) {
	course, err := s.get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Published {
		return nil, ErrCourseNotFound
	}

	if err := s.repo.Course.Enroll(ctx, course.ID, actor.ID); err != nil {
		s.logger.Error("选课失败", zap.String("course_id", course.ID), zap.Error(err))
		return nil, err
	}

	students, err := s.repo.Course.ListStudentIDs(ctx, course.ID)
	if err != nil {
		s.logger.Error("查询选课名单失败", zap.String("course_id", course.ID), zap.Error(err))
		return nil, err
	}
	course.Students = students
	return course, nil
}

func (s *courseService) ListEnrolled(ctx context.Context, actor authz.Subject) ([]model.Course, error) {
	courses, err := s.repo.Course.ListEnrolled(ctx, actor.ID)
	if err != nil {
		s.logger.Error("查询已选课程失败", zap.Error(err))
		return nil, err
	}
	return nonNil(courses), nil
}

func (s *courseService) get(ctx context.Context, courseID string) (*model.Course, error) {
	if !isID(courseID) {
		return nil, ErrCourseNotFound
	}
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return course, nil
}

// nonNil 空结果序列化为 [] 而非 null
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
