package authz

import (
	"errors"
	"testing"

	"innoteach/backend/internal/model"
	apperrors "innoteach/backend/pkg/errors"
)

var (
	teacherA = Subject{ID: "t-a", Role: model.RoleTeacher}
	teacherB = Subject{ID: "t-b", Role: model.RoleTeacher}
	studentS = Subject{ID: "s-1", Role: model.RoleStudent}
	studentX = Subject{ID: "s-2", Role: model.RoleStudent}
)

func submissionOf(studentID, teacherID string) *model.Submission {
	return &model.Submission{
		StudentID: studentID,
		Assignment: &model.Assignment{
			Course: &model.Course{TeacherID: teacherID},
		},
	}
}

func TestAuthorize(t *testing.T) {
	a := MustNew()
	course := &model.Course{ID: "c-1", TeacherID: "t-a"}
	sub := submissionOf("s-1", "t-a")

	cases := []struct {
		name  string
		sub   Subject
		act   Action
		res   Resource
		allow bool
	}{
		{"教师发布自己的课程", teacherA, ActPublishCourse, CourseResource(course), true},
		{"教师发布他人课程", teacherB, ActPublishCourse, CourseResource(course), false},
		{"学生发布课程", studentS, ActPublishCourse, CourseResource(course), false},

		{"教师在自己课程下建作业", teacherA, ActCreateAssignment, AssignmentResource(course), true},
		{"教师在他人课程下建作业", teacherB, ActCreateAssignment, AssignmentResource(course), false},
		{"课程缺失", teacherA, ActManageAssignment, AssignmentResource(nil), false},

		{"教师评自己课程的提交", teacherA, ActGradeSubmission, SubmissionResource(sub), true},
		{"教师评他人课程的提交", teacherB, ActGradeSubmission, SubmissionResource(sub), false},
		{"学生给自己评分", studentS, ActGradeSubmission, SubmissionResource(sub), false},

		{"学生请求自己提交的 AI 评语", studentS, ActAIFeedback, SubmissionResource(sub), true},
		{"学生请求他人提交的 AI 评语", studentX, ActAIFeedback, SubmissionResource(sub), false},
		{"归属教师请求 AI 评语", teacherA, ActAIFeedback, SubmissionResource(sub), true},
		{"非归属教师请求 AI 评语", teacherB, ActAIFeedback, SubmissionResource(sub), false},

		{"教师查看任意学生统计", teacherB, ActReadAnalytics, AnalyticsResource("s-1"), true},
		{"学生查看自己统计", studentS, ActReadAnalytics, AnalyticsResource("s-1"), true},
		{"学生查看他人统计", studentX, ActReadAnalytics, AnalyticsResource("s-1"), false},

		{"空身份", Subject{}, ActReadAnalytics, AnalyticsResource(""), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := a.Authorize(tc.sub, tc.act, tc.res)
			if tc.allow && err != nil {
				t.Errorf("期望允许，实际: %v", err)
			}
			if !tc.allow {
				if !errors.Is(err, ErrDenied) {
					t.Errorf("期望 ErrDenied，实际: %v", err)
				}
				if apperrors.KindOf(err) != apperrors.KindForbidden {
					t.Errorf("期望 Forbidden 分类")
				}
			}
		})
	}
}

func TestSubmissionResource_MissingChain(t *testing.T) {
	a := MustNew()
	orphan := &model.Submission{StudentID: "s-1"}

	if err := a.Authorize(teacherA, ActGradeSubmission, SubmissionResource(orphan)); err == nil {
		t.Error("缺少课程归属时教师不应被允许评分")
	}
}
