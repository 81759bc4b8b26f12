package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"innoteach/backend/config"
	"innoteach/backend/internal/authz"
	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/model"
	"innoteach/backend/internal/repository"
	"innoteach/backend/internal/repository/memory"
	"innoteach/backend/pkg/jwt"
	"innoteach/backend/pkg/openrouter"
	"innoteach/backend/pkg/storage"
)

// ── 测试辅助 ──

type fakeGrader struct {
	result *openrouter.GradeResult
	err    error
	calls  []openrouter.GradeRequest
}

func (f *fakeGrader) Grade(_ context.Context, req openrouter.GradeRequest) (*openrouter.GradeResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type testEnv struct {
	svc     *Service
	repo    *repository.Repository
	store   *memory.Store
	grader  *fakeGrader
	jwt     *jwt.Manager
	uploads string
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()

	repo, store := memory.NewRepository()
	jwtMgr := jwt.NewManager(&config.AuthConfig{
		JWTSecret: "test-secret-key-for-unit-tests",
		TokenTTL:  time.Hour,
	})
	uploads := t.TempDir()
	local, err := storage.NewLocal(uploads, "/uploads")
	if err != nil {
		t.Fatalf("创建本地存储失败: %v", err)
	}
	grader := &fakeGrader{result: &openrouter.GradeResult{Feedback: "looks fine"}}

	svc := NewService(Deps{
		Repo:      repo,
		JWT:       jwtMgr,
		Authz:     authz.MustNew(),
		Storage:   local,
		Grader:    grader,
		AITimeout: time.Second,
		Logger:    zap.NewNop(),
	})
	return &testEnv{svc: svc, repo: repo, store: store, grader: grader, jwt: jwtMgr, uploads: uploads}
}

func (e *testEnv) register(t *testing.T, name, role string) authz.Subject {
	t.Helper()
	res, err := e.svc.Auth.Register(context.Background(), &dto.RegisterRequest{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("注册 %s 失败: %v", name, err)
	}
	return authz.Subject{ID: res.User.ID, Role: res.User.Role}
}

func (e *testEnv) publishedCourse(t *testing.T, teacher authz.Subject, title string) *model.Course {
	t.Helper()
	ctx := context.Background()
	c, err := e.svc.Course.Create(ctx, teacher, &dto.CreateCourseRequest{Title: title})
	if err != nil {
		t.Fatalf("创建课程失败: %v", err)
	}
	if _, err := e.svc.Course.Publish(ctx, teacher, c.ID); err != nil {
		t.Fatalf("发布课程失败: %v", err)
	}
	return c
}

func (e *testEnv) assignment(t *testing.T, teacher authz.Subject, courseID, title string) *model.Assignment {
	t.Helper()
	a, err := e.svc.Assignment.Create(context.Background(), teacher, &dto.CreateAssignmentRequest{
		Course:       courseID,
		Title:        title,
		Instructions: "Explain " + title,
	})
	if err != nil {
		t.Fatalf("创建作业失败: %v", err)
	}
	return a
}

// classroom 教师 T 的已发布课程 + 作业，学生 S 已选课
func (e *testEnv) classroom(t *testing.T) (teacher, student authz.Subject, a *model.Assignment) {
	t.Helper()
	teacher = e.register(t, "teacher", model.RoleTeacher)
	student = e.register(t, "student", model.RoleStudent)
	c := e.publishedCourse(t, teacher, "Physics")
	if _, err := e.svc.Course.Enroll(context.Background(), student, c.ID); err != nil {
		t.Fatalf("选课失败: %v", err)
	}
	return teacher, student, e.assignment(t, teacher, c.ID, "Newton")
}

func (e *testEnv) submit(t *testing.T, student authz.Subject, assignmentID, content string) *dto.SubmitResult {
	t.Helper()
	res, err := e.svc.Submission.Submit(context.Background(), student, &dto.SubmitRequest{
		Assignment: assignmentID,
		Content:    content,
	}, nil)
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	return res
}

func ptr(f float64) *float64 { return &f }
