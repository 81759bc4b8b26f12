package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"innoteach/backend/internal/authz"
	"innoteach/backend/internal/dto"
	"innoteach/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportService 导出业务接口
//
// 设计说明：
//   - 按作业导出成绩册 (.xlsx)，权限同查看作业提交
//   - 以字节返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportGradebook 导出某作业全部提交
	ExportGradebook(ctx context.Context, actor authz.Subject, assignmentID string) (*dto.FileResult, error)
}

type exportService struct {
	repo   *repository.Repository
	authz  *authz.Authorizer
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, az *authz.Authorizer, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, authz: az, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportGradebook 导出成绩册
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：课程 / 作业标题（合并单元格）
//   - 第 2 行：表头
//   - 之后每行一个提交，未评分的分数列留空

var gradebookHeader = []string{"Student", "Email", "Submitted At", "Score", "Feedback", "AI Feedback", "Files"}

func (s *exportService) ExportGradebook(ctx context.Context, actor authz.Subject, assignmentID string) (*dto.FileResult, error) {
	// 1. 作业归属校验
	a, err := loadManagedAssignment(ctx, s.repo, s.authz, s.logger, actor, assignmentID)
	if err != nil {
		return nil, err
	}

	// 2. 查询提交
	subs, err := s.repo.Submission.ListByAssignment(ctx, a.ID)
	if err != nil {
		s.logger.Error("查询作业提交失败", zap.String("assignment_id", a.ID), zap.Error(err))
		return nil, err
	}

	courseTitle := ""
	if a.Course != nil {
		courseTitle = a.Course.Title
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Gradebook"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "B", 24)
	f.SetColWidth(sheetName, "C", "C", 20)
	f.SetColWidth(sheetName, "D", "D", 8)
	f.SetColWidth(sheetName, "E", "G", 40)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	title := a.Title
	if courseTitle != "" {
		title = courseTitle + " / " + a.Title
	}
	lastCol := colName(len(gradebookHeader) - 1)
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range gradebookHeader {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(lastCol, 2), headerStyle)

	// 数据行
	row := 3
	for _, sub := range subs {
		name, email := sub.StudentID, ""
		if sub.Student != nil {
			name, email = sub.Student.Name, sub.Student.Email
		}
		files := make([]string, 0, len(sub.Files))
		for _, fr := range sub.Files {
			files = append(files, fr.URL)
		}

		f.SetCellValue(sheetName, cell("A", row), name)
		f.SetCellValue(sheetName, cell("B", row), email)
		f.SetCellValue(sheetName, cell("C", row), sub.UpdatedAt.UTC().Format("2006-01-02 15:04"))
		if sub.Score != nil {
			f.SetCellValue(sheetName, cell("D", row), *sub.Score)
		}
		f.SetCellValue(sheetName, cell("E", row), sub.Feedback)
		f.SetCellValue(sheetName, cell("F", row), sub.AIFeedback)
		f.SetCellValue(sheetName, cell("G", row), strings.Join(files, "\n"))
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}

	return &dto.FileResult{
		Filename:    fmt.Sprintf("gradebook_%s.xlsx", safeFilename(a.Title)),
		ContentType: xlsxContentType,
		Data:        buf.Bytes(),
	}, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// safeFilename 仅保留字母数字与 - _，用于 Content-Disposition
func safeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "assignment"
	}
	return b.String()
}
