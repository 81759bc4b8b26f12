package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"innoteach/backend/internal/authz"
	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/model"
	"innoteach/backend/internal/service"
	apperrors "innoteach/backend/pkg/errors"
	"innoteach/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	result *dto.AuthResult
	err    error
	me     *dto.UserResponse
}

func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.AuthResult, error) {
	return m.result, m.err
}
func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.AuthResult, error) {
	return m.result, m.err
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.me, m.err
}

// ── Mock SubmissionService ──

type mockSubmissionService struct {
	submitResult *dto.SubmitResult
	err          error
	gotReq       *dto.SubmitRequest
	gotUpload    *service.Upload
	gotBody      string
	gotGrade     *dto.GradeRequest
}

func (m *mockSubmissionService) Submit(_ context.Context, _ authz.Subject, req *dto.SubmitRequest, file *service.Upload) (*dto.SubmitResult, error) {
	m.gotReq, m.gotUpload = req, file
	if file != nil {
		b, _ := io.ReadAll(file.Reader)
		m.gotBody = string(b)
	}
	return m.submitResult, m.err
}
func (m *mockSubmissionService) ListMine(_ context.Context, _ authz.Subject) ([]model.Submission, error) {
	return []model.Submission{}, m.err
}
func (m *mockSubmissionService) ListForTeacher(_ context.Context, _ authz.Subject) ([]model.Submission, error) {
	return []model.Submission{}, m.err
}
func (m *mockSubmissionService) ListByAssignment(_ context.Context, _ authz.Subject, _ string) ([]model.Submission, error) {
	return []model.Submission{}, m.err
}
func (m *mockSubmissionService) Count(_ context.Context, _ authz.Subject, _ string) (int64, error) {
	return 3, m.err
}
func (m *mockSubmissionService) Grade(_ context.Context, _ authz.Subject, id string, req *dto.GradeRequest) (*model.Submission, error) {
	m.gotGrade = req
	if m.err != nil {
		return nil, m.err
	}
	return &model.Submission{ID: id, Score: req.Score, Feedback: req.Feedback}, nil
}

// ── Mock ExportService ──

type mockExportService struct {
	file *dto.FileResult
	err  error
}

func (m *mockExportService) ExportGradebook(_ context.Context, _ authz.Subject, _ string) (*dto.FileResult, error) {
	return m.file, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", "test-user-id")
		c.Set("role", role)
		c.Next()
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法 JSON: %v\n%s", err, w.Body.String())
	}
	return resp
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var testCookie = CookieOptions{TTL: time.Hour, Secure: true, SameSite: "lax"}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_SetsCookie(t *testing.T) {
	mock := &mockAuthService{result: &dto.AuthResult{
		User:  dto.UserResponse{ID: "u1", Email: "a@example.com", Role: model.RoleStudent},
		Token: "signed-token",
	}}
	h := NewAuthHandler(mock, testCookie)

	r := gin.New()
	r.POST("/auth/login", h.Login)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{Email: "a@example.com", Password: "secret123"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "signed-token") {
		t.Error("token 不应出现在响应体中")
	}

	c := findCookie(w, "token")
	if c == nil {
		t.Fatal("expected token cookie to be set")
	}
	if c.Value != "signed-token" || !c.HttpOnly || !c.Secure || c.Path != "/" || c.MaxAge != 3600 {
		t.Errorf("cookie 属性不符: %+v", c)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite=Lax, got %v", c.SameSite)
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"非法 JSON", "invalid json", nil, http.StatusBadRequest},
		{"缺少字段", `{"email":"a@example.com"}`, nil, http.StatusBadRequest},
		{"密码错误", `{"email":"a@example.com","password":"x"}`, service.ErrInvalidCredentials, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{err: tt.err}, testCookie)
			r := gin.New()
			r.POST("/auth/login", h.Login)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if findCookie(w, "token") != nil {
				t.Error("失败时不应设置 cookie")
			}
		})
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testCookie)
	r := gin.New()
	r.POST("/auth/logout", h.Logout)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	c := findCookie(w, "token")
	if c == nil || c.Value != "" || c.MaxAge >= 0 || !c.HttpOnly || c.Path != "/" {
		t.Errorf("cookie 未被正确清除: %+v", c)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testCookie)
	r := gin.New()
	r.GET("/auth/me", h.Me)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// respondError Tests
// ═══════════════════════════════════════════════════════════

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
		wantMsg    string
	}{
		{"validation", service.ErrCourseTitleRequired, 400, response.CodeValidation, "Title is required"},
		{"unauthenticated", service.ErrInvalidCredentials, 401, response.CodeUnauthenticated, "Invalid credentials"},
		{"forbidden", service.ErrGradeForbidden, 403, response.CodeForbidden, "Not authorized to grade this submission"},
		{"not found", service.ErrCourseNotFound, 404, response.CodeNotFound, "Course not found"},
		{"conflict", service.ErrEmailTaken, 409, response.CodeConflict, "Email already in use"},
		{"internal", errors.New("pq: connection reset"), 500, response.CodeInternal, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) { respondError(c, tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(t, w)
			if resp.Code != tt.wantCode || resp.Message != tt.wantMsg {
				t.Errorf("响应不符: code=%d message=%q", resp.Code, resp.Message)
			}
		})
	}
}

func TestRespondError_UpstreamCarriesStatus(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		respondError(c, apperrors.Upstream(429, errors.New("rate limited")))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var body struct {
		Code    int `json:"code"`
		Details struct {
			UpstreamStatus int `json:"upstream_status"`
		} `json:"details"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Code != response.CodeUpstream || body.Details.UpstreamStatus != 429 {
		t.Errorf("上游状态未透出: %s", w.Body.String())
	}
}

// ═══════════════════════════════════════════════════════════
// SubmissionHandler Tests
// ═══════════════════════════════════════════════════════════

func multipartBody(t *testing.T, fields map[string]string, fileName, fileBody string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("构造 multipart 失败: %v", err)
		}
		_, _ = fw.Write([]byte(fileBody))
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestSubmissionHandler_Submit(t *testing.T) {
	tests := []struct {
		name       string
		created    bool
		fileName   string
		maxUpload  int64
		wantStatus int
	}{
		{"新建返回 201", true, "", 1024, http.StatusCreated},
		{"更新返回 200", false, "", 1024, http.StatusOK},
		{"带附件", true, "a.txt", 1024, http.StatusCreated},
		{"附件超限", true, "big.txt", 4, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockSubmissionService{submitResult: &dto.SubmitResult{
				Submission: &model.Submission{ID: "s1"},
				Created:    tt.created,
			}}
			h := NewSubmissionHandler(mock, tt.maxUpload)
			r := gin.New()
			r.POST("/submissions", setAuth(model.RoleStudent), h.Submit)

			body, ct := multipartBody(t, map[string]string{"assignment": "a1", "content": "answer"}, tt.fileName, "hello world")
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/submissions", body)
			req.Header.Set("Content-Type", ct)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus >= 400 {
				if mock.gotReq != nil {
					t.Error("超限时不应调用 Service")
				}
				return
			}
			if mock.gotReq.Assignment != "a1" || mock.gotReq.Content != "answer" {
				t.Errorf("表单字段未正确绑定: %+v", mock.gotReq)
			}
			if tt.fileName == "" && mock.gotUpload != nil {
				t.Error("无附件时 Upload 应为 nil")
			}
			if tt.fileName != "" && (mock.gotUpload == nil || mock.gotUpload.Name != tt.fileName || mock.gotBody != "hello world") {
				t.Errorf("附件未正确传递: %+v %q", mock.gotUpload, mock.gotBody)
			}
		})
	}
}

func TestSubmissionHandler_Submit_JSON(t *testing.T) {
	mock := &mockSubmissionService{submitResult: &dto.SubmitResult{
		Submission: &model.Submission{ID: "s1"},
		Created:    true,
	}}
	h := NewSubmissionHandler(mock, 1024)
	r := gin.New()
	r.POST("/submissions", setAuth(model.RoleStudent), h.Submit)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submissions", jsonBody(map[string]string{"assignment": "a1", "content": "answer"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mock.gotReq == nil || mock.gotReq.Assignment != "a1" || mock.gotReq.Content != "answer" {
		t.Errorf("JSON 字段未正确绑定: %+v", mock.gotReq)
	}
	if mock.gotUpload != nil {
		t.Error("JSON 提交不应带附件")
	}
}

func TestSubmissionHandler_Grade_FeedbackOnly(t *testing.T) {
	mock := &mockSubmissionService{}
	h := NewSubmissionHandler(mock, 0)
	r := gin.New()
	r.PATCH("/submissions/:id/grade", setAuth(model.RoleTeacher), h.Grade)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/submissions/s1/grade", strings.NewReader(`{"feedback":"needs work"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if mock.gotGrade == nil || mock.gotGrade.Score != nil || mock.gotGrade.Feedback != "needs work" {
		t.Errorf("评分请求绑定不符: %+v", mock.gotGrade)
	}
}

func TestSubmissionHandler_Submit_MissingAssignment(t *testing.T) {
	mock := &mockSubmissionService{}
	h := NewSubmissionHandler(mock, 1024)
	r := gin.New()
	r.POST("/submissions", setAuth(model.RoleStudent), h.Submit)

	body, ct := multipartBody(t, map[string]string{"content": "answer"}, "", "")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submissions", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSubmissionHandler_Grade_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"合法", `{"score":90,"feedback":"good"}`, http.StatusOK},
		{"零分合法", `{"score":0}`, http.StatusOK},
		{"仅评语", `{"feedback":"needs work"}`, http.StatusOK},
		{"超过 100", `{"score":101}`, http.StatusBadRequest},
		{"负分", `{"score":-1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockSubmissionService{}
			h := NewSubmissionHandler(mock, 0)
			r := gin.New()
			r.PATCH("/submissions/:id/grade", setAuth(model.RoleTeacher), h.Grade)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPatch, "/submissions/s1/grade", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestSubmissionHandler_Grade_Forbidden(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{err: service.ErrGradeForbidden}, 0)
	r := gin.New()
	r.PATCH("/submissions/:id/grade", setAuth(model.RoleTeacher), h.Grade)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/submissions/s1/grade", strings.NewReader(`{"score":50}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Gradebook(t *testing.T) {
	mock := &mockExportService{file: &dto.FileResult{
		Filename:    "gradebook_Week_1.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        []byte("xlsx-bytes"),
	}}
	h := NewExportHandler(mock)
	r := gin.New()
	r.GET("/export/:assignmentId", setAuth(model.RoleTeacher), h.Gradebook)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export/a1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != mock.file.ContentType {
		t.Errorf("Content-Type 不符: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "gradebook_Week_1.xlsx") {
		t.Errorf("Content-Disposition 不符: %s", cd)
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Errorf("响应体不符: %q", w.Body.String())
	}
}

func TestExportHandler_NotFound(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrAssignmentNotFound})
	r := gin.New()
	r.GET("/export/:assignmentId", setAuth(model.RoleTeacher), h.Gradebook)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export/a1", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
