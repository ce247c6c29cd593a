// Package media stores post image files on the local disk or in an
// S3-compatible bucket.
package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newshub/internal/config"
)

// ErrInvalidPath is returned for empty, absolute or escaping paths.
var ErrInvalidPath = errors.New("invalid media path")

// Store 是媒体文件存储的抽象。
// Save 返回实际写入的路径（目标已存在时会追加短后缀）；
// Delete 对不存在的文件不报错。
type Store interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	URL(name string) string
}

// ImagePath 生成配图的存储路径：post_images/<year>/<原文件名>.jpg。
func ImagePath(created time.Time, originalName string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(originalName), "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', ' ', '?', '#', '%', '&':
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." || base == ".." {
		base = "image"
	}
	return fmt.Sprintf("post_images/%d/%s.jpg", created.Year(), base)
}

// cleanName normalises a store-relative path and rejects anything outside the root.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "/") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// withSuffix inserts a short random suffix before the extension.
func withSuffix(name string) string {
	ext := path.Ext(name)
	return fmt.Sprintf("%s_%s%s", strings.TrimSuffix(name, ext), uuid.NewString()[:8], ext)
}

// errNameTaken 由各后端的 create 回调返回，表示目标已存在需要换名重试。
var errNameTaken = errors.New("media name taken")

// saveUnique 先尝试原名，被占用时改用带随机后缀的名字。
// create 必须原子地“仅在不存在时写入”，否则并发保存可能共享同一文件。
func saveUnique(ctx context.Context, name string, create func(candidate string) error) (string, error) {
	candidate := name
	for i := 0; i < 5; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := create(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, errNameTaken) {
			return "", err
		}
		candidate = withSuffix(name)
	}
	return "", fmt.Errorf("no free name for %s", name)
}

// Open 根据配置选择存储：配置了 S3 时使用对象存储，否则写入本地目录。
func Open(cfg config.AppConfig) (Store, error) {
	if cfg.S3Enabled() {
		s3Store, err := NewS3Store(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			return nil, err
		}
		if s3Store != nil {
			return s3Store, nil
		}
	}
	return NewLocalStore(cfg.MediaRoot, cfg.MediaURLPath)
}
