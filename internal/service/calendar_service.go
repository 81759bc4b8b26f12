package service

import (
	"context"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"innoteach/backend/internal/repository"
)

const calendarProductID = "-//InnoTeach//Assignments//EN"

// CalendarService 学生作业截止日历
type CalendarService interface {
	// StudentFeed 已选课程中带截止时间的作业，序列化为 iCalendar 文本
	StudentFeed(ctx context.Context, studentID string) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger, now: time.Now}
}

func (s *calendarService) StudentFeed(ctx context.Context, studentID string) (string, error) {
	list, err := s.repo.Assignment.ListForStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生作业失败", zap.String("student_id", studentID), zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)

	stamp := s.now().UTC()
	for _, a := range list {
		if a.DueDate == nil {
			continue
		}
		due := a.DueDate.UTC()

		evt := cal.AddEvent(a.ID + "@innoteach")
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(due)
		evt.SetEndAt(due)

		summary := a.Title
		if a.Course != nil {
			summary = a.Course.Title + ": " + a.Title
		}
		evt.SetSummary(summary)
		if a.Instructions != "" {
			evt.SetDescription(a.Instructions)
		}
	}

	return cal.Serialize(), nil
}
