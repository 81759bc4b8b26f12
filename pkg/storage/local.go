package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// submissionsDir 上传子目录，对外 URL 为 <prefix>/submissions/<key>
const submissionsDir = "submissions"

// Local 本地文件系统存储，文件经 /uploads 静态路由对外提供
type Local struct {
	root      string
	urlPrefix string
}

// NewLocal 创建本地存储并确保目录存在
func NewLocal(root, urlPrefix string) (*Local, error) {
	if root == "" {
		root = "uploads"
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	if err := os.MkdirAll(filepath.Join(root, submissionsDir), 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &Local{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Root 本地根目录，供静态路由挂载
func (l *Local) Root() string { return l.root }

// URLPrefix 对外 URL 前缀
func (l *Local) URLPrefix() string { return l.urlPrefix }

func (l *Local) Save(ctx context.Context, name string, r io.Reader) (*Object, error) {
	key := NewKey(name)
	dst := filepath.Join(l.root, submissionsDir, key)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("创建文件失败: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return nil, fmt.Errorf("写入文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("关闭文件失败: %w", err)
	}

	if err := ctx.Err(); err != nil {
		_ = os.Remove(dst)
		return nil, err
	}

	return &Object{
		Name: filepath.Base(name),
		URL:  l.urlPrefix + "/" + path.Join(submissionsDir, key),
		Key:  key,
	}, nil
}

func (l *Local) Delete(_ context.Context, url string) error {
	prefix := l.urlPrefix + "/" + submissionsDir + "/"
	key := strings.TrimPrefix(url, prefix)
	if key == url || key == "" || strings.ContainsAny(key, `/\`) {
		return nil
	}
	if err := os.Remove(filepath.Join(l.root, submissionsDir, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}
