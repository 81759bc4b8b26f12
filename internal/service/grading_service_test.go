package service

import (
	"context"
	"errors"
	"testing"

	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/model"
	apperrors "innoteach/backend/pkg/errors"
	"innoteach/backend/pkg/openrouter"
)

func TestRequestAIFeedback_OnlyTouchesAIFeedback(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	teacher, student, a := env.classroom(t)
	sub := env.submit(t, student, a.ID, "F = ma").Submission

	if _, err := env.svc.Submission.Grade(ctx, teacher, sub.ID, &dto.GradeRequest{Score: ptr(70), Feedback: "ok"}); err != nil {
		t.Fatalf("评分失败: %v", err)
	}

	env.grader.result = &openrouter.GradeResult{Feedback: "Add units.", Score: ptr(85)}
	res, err := env.svc.Grading.RequestAIFeedback(ctx, teacher, sub.ID)
	if err != nil {
		t.Fatalf("RequestAIFeedback 应成功: %v", err)
	}

	if res.AI.Feedback != "Add units." || res.AI.Score == nil || *res.AI.Score != 85 {
		t.Errorf("AI 结果不符: %+v", res.AI)
	}
	if res.Submission.AIFeedback != "Add units." {
		t.Errorf("aiFeedback 应写入，实际 %q", res.Submission.AIFeedback)
	}

	mine, _ := env.svc.Submission.ListMine(ctx, student)
	got := mine[0]
	if got.Score == nil || *got.Score != 70 || got.Feedback != "ok" {
		t.Errorf("教师评分不应被 AI 覆盖: score=%v feedback=%q", got.Score, got.Feedback)
	}
	if got.AIFeedback != "Add units." {
		t.Errorf("持久化 aiFeedback 不符: %q", got.AIFeedback)
	}

	if len(env.grader.calls) != 1 {
		t.Fatalf("期望调用模型 1 次，实际 %d", len(env.grader.calls))
	}
	if call := env.grader.calls[0]; call.Instructions != "Explain Newton" || call.Content != "F = ma" {
		t.Errorf("发送给模型的内容不符: %+v", call)
	}
}

func TestRequestAIFeedback_Access(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	_, student, a := env.classroom(t)
	otherTeacher := env.register(t, "other", model.RoleTeacher)
	otherStudent := env.register(t, "peer", model.RoleStudent)
	sub := env.submit(t, student, a.ID, "answer").Submission

	if _, err := env.svc.Grading.RequestAIFeedback(ctx, student, sub.ID); err != nil {
		t.Errorf("提交者本人应可请求: %v", err)
	}
	for _, actor := range []struct {
		name string
		id   string
		role string
	}{
		{"其他教师", otherTeacher.ID, otherTeacher.Role},
		{"其他学生", otherStudent.ID, otherStudent.Role},
	} {
		t.Run(actor.name, func(t *testing.T) {
			_, err := env.svc.Grading.RequestAIFeedback(ctx, subject(actor.id, actor.role), sub.ID)
			if !errors.Is(err, ErrSubmissionNotFound) {
				t.Errorf("期望 ErrSubmissionNotFound，实际: %v", err)
			}
		})
	}
}

func TestRequestAIFeedback_UpstreamFailureLeavesSubmission(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	teacher, student, a := env.classroom(t)
	sub := env.submit(t, student, a.ID, "answer").Submission

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"上游 429", apperrors.Upstream(429, errors.New("rate limited")), 429},
		{"网络错误", errors.New("connection refused"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.grader.err = tt.err
			_, err := env.svc.Grading.RequestAIFeedback(ctx, teacher, sub.ID)
			if apperrors.KindOf(err) != apperrors.KindUpstream {
				t.Fatalf("期望 Upstream，实际: %v", err)
			}
			if got := apperrors.UpstreamStatus(err); got != tt.wantStatus {
				t.Errorf("期望上游状态 %d，实际 %d", tt.wantStatus, got)
			}
			mine, _ := env.svc.Submission.ListMine(ctx, student)
			if mine[0].AIFeedback != "" {
				t.Error("上游失败时不应写入 aiFeedback")
			}
		})
	}
}
