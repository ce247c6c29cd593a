package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore 将文件写入本地目录，并通过 urlPrefix 对外提供访问。
type LocalStore struct {
	root      string
	urlPrefix string
}

// NewLocalStore creates the root directory when needed.
func NewLocalStore(root, urlPrefix string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("media root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &LocalStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Root returns the directory files are written under.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return saveUnique(ctx, cleaned, func(candidate string) error {
		return s.create(candidate, data)
	})
}

// create 以 O_EXCL 写入，目标已存在时返回 errNameTaken。
func (s *LocalStore) create(name string, data []byte) error {
	full := s.fullPath(name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errNameTaken
		}
		return fmt.Errorf("open media %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return fmt.Errorf("write media %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return fmt.Errorf("close media %s: %w", name, err)
	}
	return nil
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	cleaned, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(s.fullPath(cleaned)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete media %s: %w", cleaned, err)
	}
	return nil
}

func (s *LocalStore) Exists(_ context.Context, name string) (bool, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(s.fullPath(cleaned))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *LocalStore) URL(name string) string {
	return s.urlPrefix + "/" + strings.TrimLeft(name, "/")
}

func (s *LocalStore) fullPath(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}
