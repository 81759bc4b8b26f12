package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"innoteach/backend/internal/authz"
	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/repository"
	apperrors "innoteach/backend/pkg/errors"
	"innoteach/backend/pkg/openrouter"
)

// GradingService AI 评阅协调
type GradingService interface {
	// RequestAIFeedback 仅写 ai_feedback；上游失败时提交保持不变
	RequestAIFeedback(ctx context.Context, actor authz.Subject, submissionID string) (*dto.AIGradeResponse, error)
}

type gradingService struct {
	repo    *repository.Repository
	authz   *authz.Authorizer
	grader  AIGrader
	timeout time.Duration
	logger  *zap.Logger
}

// NewGradingService 创建 GradingService 实例
func NewGradingService(
	repo *repository.Repository,
	az *authz.Authorizer,
	grader AIGrader,
	timeout time.Duration,
	logger *zap.Logger,
) GradingService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &gradingService{repo: repo, authz: az, grader: grader, timeout: timeout, logger: logger}
}

func (s *gradingService) RequestAIFeedback(ctx context.Context, actor authz.Subject, submissionID string) (*dto.AIGradeResponse, error) {
	// 1. 加载提交
	if !isID(submissionID) {
		return nil, ErrSubmissionNotFound
	}
	sub, err := s.repo.Submission.GetByID(ctx, submissionID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("查询提交失败", zap.Error(err))
		return nil, err
	}

	if err := s.authz.Authorize(actor, authz.ActAIFeedback, authz.SubmissionResource(sub)); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	// 2. 作业说明，缺失时降级为空串
	instructions := ""
	if sub.Assignment != nil {
		instructions = sub.Assignment.Instructions
	}

	// 3. 调用模型
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.grader.Grade(callCtx, openrouter.GradeRequest{
		Instructions: instructions,
		Content:      sub.Content,
	})
	if err != nil {
		s.logger.Warn("AI 评阅失败",
			zap.String("submission_id", sub.ID),
			zap.Bool("timeout", openrouter.IsTimeout(err)),
			zap.Error(err),
		)
		if apperrors.KindOf(err) != apperrors.KindUpstream {
			err = apperrors.Upstream(0, err)
		}
		return nil, err
	}

	// 4. 仅写 ai_feedback
	if err := s.repo.Submission.UpdateAIFeedback(ctx, sub.ID, result.Feedback); err != nil {
		if isNotFound(err) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("写入 AI 评语失败", zap.String("submission_id", sub.ID), zap.Error(err))
		return nil, err
	}
	sub.AIFeedback = result.Feedback

	return &dto.AIGradeResponse{
		AI:         dto.AIResult{Feedback: result.Feedback, Score: result.Score},
		Submission: sub,
	}, nil
}
