package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"innoteach/backend/internal/authz"
	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/model"
	"innoteach/backend/internal/repository"
	apperrors "innoteach/backend/pkg/errors"
	"innoteach/backend/pkg/storage"
)

var (
	ErrSubmissionNotFound = apperrors.New(apperrors.KindNotFound, "Submission not found")
	ErrNotEnrolled        = apperrors.New(apperrors.KindForbidden, "Not enrolled in this course")
	ErrGradeForbidden     = apperrors.New(apperrors.KindForbidden, "Not authorized to grade this submission")
	ErrEmptySubmission    = apperrors.New(apperrors.KindValidation, "Content or file is required")
)

// SubmissionService 提交与评分业务接口
type SubmissionService interface {
	// Submit 同一 (作业, 学生) 仅保留一行：再次提交更新 content，有新附件时替换 files
	Submit(ctx context.Context, actor authz.Subject, req *dto.SubmitRequest, file *Upload) (*dto.SubmitResult, error)
	ListMine(ctx context.Context, actor authz.Subject) ([]model.Submission, error)
	ListForTeacher(ctx context.Context, actor authz.Subject) ([]model.Submission, error)
	ListByAssignment(ctx context.Context, actor authz.Subject, assignmentID string) ([]model.Submission, error)
	Count(ctx context.Context, actor authz.Subject, assignmentID string) (int64, error)
	// Grade 提交不存在返回 ErrSubmissionNotFound，非归属教师返回 ErrGradeForbidden
	Grade(ctx context.Context, actor authz.Subject, submissionID string, req *dto.GradeRequest) (*model.Submission, error)
}

type submissionService struct {
	repo    *repository.Repository
	authz   *authz.Authorizer
	storage storage.Storage
	logger  *zap.Logger
}

// NewSubmissionService 创建 SubmissionService 实例
func NewSubmissionService(
	repo *repository.Repository,
	az *authz.Authorizer,
	store storage.Storage,
	logger *zap.Logger,
) SubmissionService {
	return &submissionService{repo: repo, authz: az, storage: store, logger: logger}
}

// ────── Submit ──────

func (s *submissionService) Submit(ctx context.Context, actor authz.Subject, req *dto.SubmitRequest, file *Upload) (*dto.SubmitResult, error) {
	if req.Content == "" && file == nil {
		return nil, ErrEmptySubmission
	}

	// 1. 作业存在且学生已选该课程
	if !isID(req.Assignment) {
		return nil, ErrAssignmentNotFound
	}
	a, err := s.repo.Assignment.GetByID(ctx, req.Assignment)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.Error(err))
		return nil, err
	}
	enrolled, err := s.repo.Course.IsEnrolled(ctx, a.CourseID, actor.ID)
	if err != nil {
		s.logger.Error("查询选课关系失败", zap.Error(err))
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	// 2. 保存附件
	sub := &model.Submission{
		AssignmentID: a.ID,
		StudentID:    actor.ID,
		Content:      req.Content,
	}
	if file != nil {
		obj, err := s.storage.Save(ctx, file.Name, file.Reader)
		if err != nil {
			s.logger.Error("保存附件失败", zap.String("name", file.Name), zap.Error(err))
			return nil, err
		}
		sub.Files = []model.FileRef{{Name: obj.Name, URL: obj.URL}}
	}

	// 3. upsert；有新附件时记下将被替换的旧附件
	var replaced []model.FileRef
	if file != nil {
		if prev, err := s.repo.Submission.GetByPair(ctx, a.ID, actor.ID); err == nil {
			replaced = prev.Files
		} else if !isNotFound(err) {
			s.logger.Warn("查询旧提交失败，旧附件将不清理", zap.Error(err))
		}
	}

	created, err := s.repo.Submission.Upsert(ctx, sub, file != nil)
	if err != nil {
		s.logger.Error("保存提交失败", zap.Error(err))
		s.removeFiles(ctx, sub.Files)
		return nil, err
	}
	s.removeFiles(ctx, replaced)

	saved, err := s.repo.Submission.GetByID(ctx, sub.ID)
	if err != nil {
		s.logger.Error("读取提交失败", zap.String("submission_id", sub.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("提交已保存",
		zap.String("submission_id", saved.ID),
		zap.String("assignment_id", a.ID),
		zap.Bool("created", created),
	)
	return &dto.SubmitResult{Submission: saved, Created: created}, nil
}

// removeFiles 删除不再被引用的附件，失败只记录日志
func (s *submissionService) removeFiles(ctx context.Context, files []model.FileRef) {
	for _, f := range files {
		if err := s.storage.Delete(ctx, f.URL); err != nil {
			s.logger.Warn("删除附件失败", zap.String("url", f.URL), zap.Error(err))
		}
	}
}

// ────── List ──────

func (s *submissionService) ListMine(ctx context.Context, actor authz.Subject) ([]model.Submission, error) {
	list, err := s.repo.Submission.ListByStudent(ctx, actor.ID)
	if err != nil {
		s.logger.Error("查询学生提交失败", zap.Error(err))
		return nil, err
	}
	return nonNil(list), nil
}

func (s *submissionService) ListForTeacher(ctx context.Context, actor authz.Subject) ([]model.Submission, error) {
	list, err := s.repo.Submission.ListByTeacher(ctx, actor.ID)
	if err != nil {
		s.logger.Error("查询教师提交失败", zap.Error(err))
		return nil, err
	}
	return nonNil(list), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, actor authz.Subject, assignmentID string) ([]model.Submission, error) {
	a, err := loadManagedAssignment(ctx, s.repo, s.authz, s.logger, actor, assignmentID)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.Submission.ListByAssignment(ctx, a.ID)
	if err != nil {
		s.logger.Error("查询作业提交失败", zap.String("assignment_id", a.ID), zap.Error(err))
		return nil, err
	}
	for i := range list {
		list[i].Assignment = a
	}
	return nonNil(list), nil
}

func (s *submissionService) Count(ctx context.Context, actor authz.Subject, assignmentID string) (int64, error) {
	a, err := loadManagedAssignment(ctx, s.repo, s.authz, s.logger, actor, assignmentID)
	if err != nil {
		return 0, err
	}
	count, err := s.repo.Submission.CountByAssignment(ctx, a.ID)
	if err != nil {
		s.logger.Error("统计提交数失败", zap.String("assignment_id", a.ID), zap.Error(err))
		return 0, err
	}
	return count, nil
}

// ────── Grade ──────

func (s *submissionService) Grade(ctx context.Context, actor authz.Subject, submissionID string, req *dto.GradeRequest) (*model.Submission, error) {
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

	if err := s.authz.Authorize(actor, authz.ActGradeSubmission, authz.SubmissionResource(sub)); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrGradeForbidden
		}
		return nil, err
	}

	if err := s.repo.Submission.Grade(ctx, sub.ID, req.Score, req.Feedback); err != nil {
		if isNotFound(err) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("保存评分失败", zap.String("submission_id", sub.ID), zap.Error(err))
		return nil, err
	}

	sub.Score = req.Score
	sub.Feedback = req.Feedback

	s.logger.Info("提交已评分", zap.String("submission_id", sub.ID), zap.String("teacher_id", actor.ID))
	return sub, nil
}
