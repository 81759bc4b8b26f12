// Package authz 集中定义资源级授权策略
//
// 所有归属判断（课程 → 作业 → 提交 的教师归属、学生本人数据）都经由 Authorizer.Authorize，
// 由 Casbin ABAC 模型求值。
// 角色校验（teacher / student）由路由中间件完成，这里只回答
// “该身份能否对该资源执行该动作”。
package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"

	"innoteach/backend/internal/model"
	apperrors "innoteach/backend/pkg/errors"
)

// Action 受控动作
type Action string

const (
	ActPublishCourse    Action = "publish"
	ActCreateAssignment Action = "create"
	ActManageAssignment Action = "manage" // 查看提交、计数、导出
	ActGradeSubmission  Action = "grade"
	ActAIFeedback       Action = "ai_feedback"
	ActReadAnalytics    Action = "read"
)

// 资源类型
const (
	KindCourse     = "course"
	KindAssignment = "assignment"
	KindSubmission = "submission"
	KindAnalytics  = "analytics"
)

// 作用域
const (
	scopeAny    = "any"
	scopeOwner  = "owner"  // 资源归属教师
	scopeMember = "member" // 资源归属学生本人
)

// ErrDenied 授权失败
var ErrDenied = apperrors.New(apperrors.KindForbidden, "Forbidden")

// Subject 已验证的请求身份，字段需导出供 Casbin 反射读取
type Subject struct {
	ID   string
	Role string
}

// Resource 被访问资源的归属属性
// Owner 为课程教师 ID，Member 为相关学生 ID
type Resource struct {
	Kind   string
	Owner  string
	Member string
}

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = role, kind, act, scope

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub.Role == p.role && r.obj.Kind == p.kind && r.act == p.act && (p.scope == "any" || (p.scope == "owner" && r.obj.Owner == r.sub.ID) || (p.scope == "member" && r.obj.Member == r.sub.ID))
`

// policies 角色 → 资源 → 动作 → 作用域
var policies = [][]string{
	{model.RoleTeacher, KindCourse, string(ActPublishCourse), scopeOwner},

	{model.RoleTeacher, KindAssignment, string(ActCreateAssignment), scopeOwner},
	{model.RoleTeacher, KindAssignment, string(ActManageAssignment), scopeOwner},

	{model.RoleTeacher, KindSubmission, string(ActGradeSubmission), scopeOwner},
	{model.RoleTeacher, KindSubmission, string(ActAIFeedback), scopeOwner},
	{model.RoleStudent, KindSubmission, string(ActAIFeedback), scopeMember},

	{model.RoleTeacher, KindAnalytics, string(ActReadAnalytics), scopeAny},
	{model.RoleStudent, KindAnalytics, string(ActReadAnalytics), scopeMember},
}

// Authorizer 基于 Casbin 的授权器，策略在构造时一次性加载，之后只读
type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
}

// New 构建授权器
func New() (*Authorizer, error) {
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("加载授权模型失败: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("创建 enforcer 失败: %w", err)
	}

	if _, err := e.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("加载授权策略失败: %w", err)
	}

	return &Authorizer{enforcer: e}, nil
}

// MustNew 同 New，失败时 panic，仅用于测试与启动期
func MustNew() *Authorizer {
	a, err := New()
	if err != nil {
		panic(err)
	}
	return a
}

// Authorize 允许返回 nil，拒绝返回 ErrDenied
func (a *Authorizer) Authorize(sub Subject, act Action, res Resource) error {
	if sub.ID == "" || sub.Role == "" {
		return ErrDenied
	}

	ok, err := a.enforcer.Enforce(sub, res, string(act))
	if err != nil {
		return fmt.Errorf("授权求值失败: %w", err)
	}
	if !ok {
		return ErrDenied
	}
	return nil
}

// ── 资源构造 ──

// CourseResource 课程归属其教师
func CourseResource(c *model.Course) Resource {
	return Resource{Kind: KindCourse, Owner: c.TeacherID}
}

// AssignmentResource 作业归属其课程教师；course 为作业所属课程
func AssignmentResource(course *model.Course) Resource {
	if course == nil {
		return Resource{Kind: KindAssignment}
	}
	return Resource{Kind: KindAssignment, Owner: course.TeacherID}
}

// SubmissionResource 提交的教师归属沿 submission → assignment → course 解析
func SubmissionResource(s *model.Submission) Resource {
	res := Resource{Kind: KindSubmission, Member: s.StudentID}
	if s.Assignment != nil && s.Assignment.Course != nil {
		res.Owner = s.Assignment.Course.TeacherID
	}
	return res
}

// AnalyticsResource 某学生的成绩统计
func AnalyticsResource(studentID string) Resource {
	return Resource{Kind: KindAnalytics, Member: studentID}
}
