package service

import (
	"context"

	"go.uber.org/zap"

	"innoteach/backend/internal/authz"
	"innoteach/backend/internal/model"
	"innoteach/backend/internal/repository"
)

// AnalyticsService 成绩统计
type AnalyticsService interface {
	// StudentSummary 教师可查任意学生，学生只能查自己
	StudentSummary(ctx context.Context, actor authz.Subject, studentID string) ([]model.CourseScore, error)
}

type analyticsService struct {
	repo   *repository.Repository
	authz  *authz.Authorizer
	logger *zap.Logger
}

// NewAnalyticsService 创建 AnalyticsService 实例
func NewAnalyticsService(repo *repository.Repository, az *authz.Authorizer, logger *zap.Logger) AnalyticsService {
	return &analyticsService{repo: repo, authz: az, logger: logger}
}

func (s *analyticsService) StudentSummary(ctx context.Context, actor authz.Subject, studentID string) ([]model.CourseScore, error) {
	if err := s.authz.Authorize(actor, authz.ActReadAnalytics, authz.AnalyticsResource(studentID)); err != nil {
		return nil, err
	}
	if !isID(studentID) {
		return nil, ErrUserNotFound
	}

	stats, err := s.repo.Submission.ScoresByCourse(ctx, studentID)
	if err != nil {
		s.logger.Error("统计学生成绩失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return nonNil(stats), nil
}
