package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"innoteach/backend/internal/authz"
	"innoteach/backend/internal/model"
	"innoteach/backend/internal/repository"
	"innoteach/backend/pkg/jwt"
	"innoteach/backend/pkg/openrouter"
	"innoteach/backend/pkg/storage"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Course     CourseService
	Assignment AssignmentService
	Submission SubmissionService
	Grading    GradingService
	Analytics  AnalyticsService
	Export     ExportService
	Calendar   CalendarService
}

// AIGrader AI 评阅协作方
type AIGrader interface {
	Grade(ctx context.Context, req openrouter.GradeRequest) (*openrouter.GradeResult, error)
}

// Deps 构建 Service 所需的外部依赖
type Deps struct {
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Authz     *authz.Authorizer
	Storage   storage.Storage
	Grader    AIGrader
	AITimeout time.Duration
	Logger    *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	return &Service{
		Auth:       NewAuthService(d.Repo, d.JWT, d.Logger),
		Course:     NewCourseService(d.Repo, d.Authz, d.Logger),
		Assignment: NewAssignmentService(d.Repo, d.Authz, d.Logger),
		Submission: NewSubmissionService(d.Repo, d.Authz, d.Storage, d.Logger),
		Grading:    NewGradingService(d.Repo, d.Authz, d.Grader, d.AITimeout, d.Logger),
		Analytics:  NewAnalyticsService(d.Repo, d.Authz, d.Logger),
		Export:     NewExportService(d.Repo, d.Authz, d.Logger),
		Calendar:   NewCalendarService(d.Repo, d.Logger),
	}
}

// Upload 随提交上传的单个附件
type Upload struct {
	Name   string
	Reader io.Reader
}

// isID 路径参数是否为合法 UUID；非法 ID 一律按不存在处理
func isID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// loadManagedAssignment 加载作业并校验当前教师是否为其课程归属者
// 不存在与无权限统一返回 ErrAssignmentNotFound
func loadManagedAssignment(
	ctx context.Context,
	repo *repository.Repository,
	az *authz.Authorizer,
	logger *zap.Logger,
	actor authz.Subject,
	assignmentID string,
) (*model.Assignment, error) {
	if !isID(assignmentID) {
		return nil, ErrAssignmentNotFound
	}

	a, err := repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAssignmentNotFound
		}
		logger.Error("查询作业失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, err
	}

	if err := az.Authorize(actor, authz.ActManageAssignment, authz.AssignmentResource(a.Course)); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return a, nil
}
