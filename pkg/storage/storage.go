package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"innoteach/backend/config"
)

// Object 已保存文件的描述，与 Submission.files 中的 {name, url} 对应
type Object struct {
	Name string
	URL  string
	Key  string
}

// Storage 提交附件存储
type Storage interface {
	// Save 保存上传内容，name 为原始文件名，返回生成的唯一 key 与对外 URL
	Save(ctx context.Context, name string, r io.Reader) (*Object, error)
	// Delete 按 Save 返回的 URL 删除文件；不属于本存储的 URL 与已不存在的文件忽略
	Delete(ctx context.Context, url string) error
}

// New 按 upload.driver 创建存储实现
func New(ctx context.Context, cfg *config.UploadConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.Dir, cfg.URLPrefix)
	case "b2":
		return NewB2(ctx, &cfg.B2, logger)
	default:
		return nil, fmt.Errorf("不支持的存储驱动: %s", cfg.Driver)
	}
}

// NewKey 生成 "<毫秒时间戳>-<uuid><扩展名>" 形式的唯一文件名
// 扩展名取自原文件名并转为小写，不含路径成分
func NewKey(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) > 16 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}
