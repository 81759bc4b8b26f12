// Package memory 提供 map 实现的 Repository，仅作测试替身，供 service、handler
// 与 router 测试共享；数据不落盘，不得在 cmd/server 中装配。
//
// 行为对齐 GORM 实现：未命中返回 gorm.ErrRecordNotFound，唯一冲突返回
// gorm.ErrDuplicatedKey，查询结果按与 SQL 相同的顺序与预加载关系返回。
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"innoteach/backend/internal/model"
	"innoteach/backend/internal/repository"
)

// Store 所有内存表，四个 Repository 共享同一把锁
type Store struct {
	mu          sync.RWMutex
	seq         int64
	base        time.Time
	users       map[string]*model.User
	courses     map[string]*model.Course
	enrollments map[string]map[string]time.Time // course_id → student_id → enrolled_at
	assignments map[string]*model.Assignment
	submissions map[string]*model.Submission
}

// NewStore 创建空存储
func NewStore() *Store {
	return &Store{
		base:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:       make(map[string]*model.User),
		courses:     make(map[string]*model.Course),
		enrollments: make(map[string]map[string]time.Time),
		assignments: make(map[string]*model.Assignment),
		submissions: make(map[string]*model.Submission),
	}
}

// NewRepository 基于新 Store 的 Repository 聚合
func NewRepository() (*repository.Repository, *Store) {
	s := NewStore()
	return s.Repository(), s
}

// Repository 以本 Store 构建 Repository 聚合
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		User:       &userRepo{s},
		Course:     &courseRepo{s},
		Assignment: &assignmentRepo{s},
		Submission: &submissionRepo{s},
	}
}

// now 严格递增的时间戳，保证“最新优先”排序稳定
func (s *Store) now() time.Time {
	s.seq++
	return s.base.Add(time.Duration(s.seq) * time.Second)
}

func (s *Store) stamp(ts *model.Timestamps) {
	t := s.now()
	ts.CreatedAt, ts.UpdatedAt = t, t
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func publicUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

func copyCourse(c *model.Course) *model.Course {
	cp := *c
	cp.Teacher = nil
	cp.Students = nil
	return &cp
}

func (s *Store) assignmentWithCourse(id string) *model.Assignment {
	a, ok := s.assignments[id]
	if !ok {
		return nil
	}
	cp := *a
	if c, ok := s.courses[a.CourseID]; ok {
		cp.Course = copyCourse(c)
	}
	return &cp
}

// ────── User ──────

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = newID(user.ID)
	r.s.stamp(&user.Timestamps)
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ────── Course ──────

type courseRepo struct{ s *Store }

func (r *courseRepo) Create(_ context.Context, course *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	course.ID = newID(course.ID)
	r.s.stamp(&course.Timestamps)
	r.s.courses[course.ID] = copyCourse(course)
	return nil
}

func (r *courseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.courses[id]; ok {
		return copyCourse(c), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *courseRepo) SetPublished(_ context.Context, id string, published bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Published = published
	c.UpdatedAt = r.s.now()
	return nil
}

func (r *courseRepo) ListByTeacher(_ context.Context, teacherID string) ([]model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listCourses(func(c *model.Course) bool { return c.TeacherID == teacherID }, false), nil
}

func (r *courseRepo) ListPublished(_ context.Context) ([]model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listCourses(func(c *model.Course) bool { return c.Published }, true), nil
}

func (r *courseRepo) Enroll(_ context.Context, courseID, studentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[courseID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	set, ok := r.s.enrollments[courseID]
	if !ok {
		set = make(map[string]time.Time)
		r.s.enrollments[courseID] = set
	}
	if _, ok := set[studentID]; !ok {
		set[studentID] = r.s.now()
	}
	return nil
}

func (r *courseRepo) IsEnrolled(_ context.Context, courseID, studentID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.enrollments[courseID][studentID]
	return ok, nil
}

func (r *courseRepo) ListEnrolled(_ context.Context, studentID string) ([]model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listCourses(func(c *model.Course) bool {
		_, ok := r.s.enrollments[c.ID][studentID]
		return ok
	}, true), nil
}

func (r *courseRepo) ListStudentIDs(_ context.Context, courseID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	set := r.s.enrollments[courseID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return set[ids[i]].Before(set[ids[j]]) })
	return ids, nil
}

func (s *Store) listCourses(match func(*model.Course) bool, withTeacher bool) []model.Course {
	var list []model.Course
	for _, c := range s.courses {
		if !match(c) {
			continue
		}
		cp := copyCourse(c)
		if withTeacher {
			cp.Teacher = publicUser(s.users[c.TeacherID])
		}
		list = append(list, *cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

// ────── Assignment ──────

type assignmentRepo struct{ s *Store }

func (r *assignmentRepo) Create(_ context.Context, a *model.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[a.CourseID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	a.ID = newID(a.ID)
	r.s.stamp(&a.Timestamps)
	cp := *a
	cp.Course = nil
	r.s.assignments[a.ID] = &cp
	return nil
}

func (r *assignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if a := r.s.assignmentWithCourse(id); a != nil {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *assignmentRepo) ListByCourse(_ context.Context, courseID string) ([]model.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []model.Assignment
	for _, a := range r.s.assignments {
		if a.CourseID == courseID {
			list = append(list, *a)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *assignmentRepo) ListByTeacherWithCounts(_ context.Context, teacherID string) ([]model.AssignmentWithCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []model.AssignmentWithCount
	for _, a := range r.s.assignments {
		c, ok := r.s.courses[a.CourseID]
		if !ok || c.TeacherID != teacherID {
			continue
		}
		var count int64
		for _, sub := range r.s.submissions {
			if sub.AssignmentID == a.ID {
				count++
			}
		}
		list = append(list, model.AssignmentWithCount{
			Assignment:      *a,
			CourseTitle:     c.Title,
			SubmissionCount: count,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *assignmentRepo) ListForStudent(_ context.Context, studentID string) ([]model.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []model.Assignment
	for id, a := range r.s.assignments {
		if _, ok := r.s.enrollments[a.CourseID][studentID]; ok {
			list = append(list, *r.s.assignmentWithCourse(id))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		di, dj := list[i].DueDate, list[j].DueDate
		switch {
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		case di == nil && dj != nil:
			return false
		case di != nil && dj == nil:
			return true
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// ────── Submission ──────

type submissionRepo struct{ s *Store }

func (r *submissionRepo) Upsert(_ context.Context, sub *model.Submission, replaceFiles bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.assignments[sub.AssignmentID]; !ok {
		return false, gorm.ErrForeignKeyViolated
	}

	for _, existing := range r.s.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID {
			existing.Content = sub.Content
			if replaceFiles {
				existing.Files = append(existing.Files[:0:0], sub.Files...)
			}
			existing.UpdatedAt = r.s.now()
			sub.ID = existing.ID
			return false, nil
		}
	}

	sub.ID = newID(sub.ID)
	r.s.stamp(&sub.Timestamps)
	cp := *sub
	cp.Assignment, cp.Student = nil, nil
	if cp.Files == nil {
		cp.Files = []model.FileRef{}
	}
	r.s.submissions[sub.ID] = &cp
	return true, nil
}

func (r *submissionRepo) Grade(_ context.Context, id string, score *float64, feedback string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if score != nil {
		v := *score
		sub.Score = &v
	} else {
		sub.Score = nil
	}
	sub.Feedback = feedback
	sub.UpdatedAt = r.s.now()
	return nil
}

func (r *submissionRepo) UpdateAIFeedback(_ context.Context, id, aiFeedback string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	sub.AIFeedback = aiFeedback
	return nil
}

func (r *submissionRepo) GetByID(_ context.Context, id string) (*model.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.s.loadSubmission(sub, true, true), nil
}

func (r *submissionRepo) GetByPair(_ context.Context, assignmentID, studentID string) (*model.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sub := range r.s.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return r.s.loadSubmission(sub, false, false), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *submissionRepo) ListByStudent(_ context.Context, studentID string) ([]model.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listSubmissions(func(sub *model.Submission) bool {
		return sub.StudentID == studentID
	}, true, false), nil
}

func (r *submissionRepo) ListByTeacher(_ context.Context, teacherID string) ([]model.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listSubmissions(func(sub *model.Submission) bool {
		a, ok := r.s.assignments[sub.AssignmentID]
		if !ok {
			return false
		}
		c, ok := r.s.courses[a.CourseID]
		return ok && c.TeacherID == teacherID
	}, true, true), nil
}

func (r *submissionRepo) ListByAssignment(_ context.Context, assignmentID string) ([]model.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listSubmissions(func(sub *model.Submission) bool {
		return sub.AssignmentID == assignmentID
	}, false, true), nil
}

func (r *submissionRepo) CountByAssignment(_ context.Context, assignmentID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, sub := range r.s.submissions {
		if sub.AssignmentID == assignmentID {
			n++
		}
	}
	return n, nil
}

func (r *submissionRepo) ScoresByCourse(_ context.Context, studentID string) ([]model.CourseScore, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type agg struct {
		sum    float64
		scored int
		count  int64
	}
	byCourse := make(map[string]*agg)
	for _, sub := range r.s.submissions {
		if sub.StudentID != studentID {
			continue
		}
		a, ok := r.s.assignments[sub.AssignmentID]
		if !ok {
			continue
		}
		g, ok := byCourse[a.CourseID]
		if !ok {
			g = &agg{}
			byCourse[a.CourseID] = g
		}
		g.count++
		if sub.Score != nil {
			g.sum += *sub.Score
			g.scored++
		}
	}

	list := make([]model.CourseScore, 0, len(byCourse))
	for courseID, g := range byCourse {
		cs := model.CourseScore{CourseID: courseID, Count: g.count}
		if c, ok := r.s.courses[courseID]; ok {
			cs.CourseTitle = c.Title
		}
		if g.scored > 0 {
			avg := g.sum / float64(g.scored)
			cs.AvgScore = &avg
		}
		list = append(list, cs)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CourseTitle < list[j].CourseTitle })
	return list, nil
}

func (s *Store) loadSubmission(sub *model.Submission, withAssignment, withStudent bool) *model.Submission {
	cp := *sub
	cp.Files = append([]model.FileRef{}, sub.Files...)
	if sub.Score != nil {
		v := *sub.Score
		cp.Score = &v
	}
	if withAssignment {
		cp.Assignment = s.assignmentWithCourse(sub.AssignmentID)
	}
	if withStudent {
		cp.Student = publicUser(s.users[sub.StudentID])
	}
	return &cp
}

func (s *Store) listSubmissions(match func(*model.Submission) bool, withAssignment, withStudent bool) []model.Submission {
	var list []model.Submission
	for _, sub := range s.submissions {
		if match(sub) {
			list = append(list, *s.loadSubmission(sub, withAssignment, withStudent))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

// ────── 测试辅助 ──────

// SubmissionCount 当前提交总行数
func (s *Store) SubmissionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.submissions)
}
