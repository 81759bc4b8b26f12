package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/kurin/blazer/b2"
	"go.uber.org/zap"

	"innoteach/backend/config"
)

// B2 Backblaze B2 对象存储
type B2 struct {
	client  *b2.Client
	bucket  *b2.Bucket
	baseURL string
	logger  *zap.Logger
}

// NewB2 连接 B2 并定位 bucket
func NewB2(ctx context.Context, cfg *config.B2Config, logger *zap.Logger) (*B2, error) {
	client, err := b2.NewClient(ctx, cfg.KeyID, cfg.AppKey)
	if err != nil {
		return nil, fmt.Errorf("创建 B2 客户端失败: %w", err)
	}

	bucket, err := client.Bucket(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("获取 B2 bucket 失败: %w", err)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s/file/%s", bucket.BaseURL(), bucket.Name())
	}

	logger.Info("B2 存储已就绪", zap.String("bucket", cfg.Bucket))

	return &B2{client: client, bucket: bucket, baseURL: baseURL, logger: logger}, nil
}

func (s *B2) Save(ctx context.Context, name string, r io.Reader) (*Object, error) {
	key := path.Join(submissionsDir, NewKey(name))

	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("写入 B2 对象失败: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("提交 B2 对象失败: %w", err)
	}

	s.logger.Debug("附件已上传", zap.String("key", key))

	return &Object{
		Name: filepath.Base(name),
		URL:  s.baseURL + "/" + key,
		Key:  key,
	}, nil
}

func (s *B2) Delete(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, s.baseURL+"/")
	if key == url || !strings.HasPrefix(key, submissionsDir+"/") {
		return nil
	}
	if err := s.bucket.Object(key).Delete(ctx); err != nil && !b2.IsNotExist(err) {
		return fmt.Errorf("删除 B2 对象失败: %w", err)
	}
	s.logger.Debug("附件已删除", zap.String("key", key))
	return nil
}
