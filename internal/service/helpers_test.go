package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/newshub/internal/db"
	"github.com/newshub/internal/media"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.OpenSQLite(dsn, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, username string) db.User {
	t.Helper()
	hashed, err := db.HashPassword("secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := db.User{Username: username, Password: hashed}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, gdb *gorm.DB, author db.User, title string, status db.PostStatus, publish time.Time) db.Post {
	t.Helper()
	post := db.Post{
		AuthorID:    author.ID,
		Title:       title,
		Description: "hello world",
		Status:      status,
		Publish:     publish,
	}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return post
}

func createTestImage(t *testing.T, gdb *gorm.DB, post db.Post, file, title string) db.Image {
	t.Helper()
	img := db.Image{PostID: post.ID, File: file, Title: title}
	if err := gdb.Create(&img).Error; err != nil {
		t.Fatalf("create image: %v", err)
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newLocalStore(t *testing.T) *media.LocalStore {
	t.Helper()
	store, err := media.NewLocalStore(filepath.Join(t.TempDir(), "media"), "/media")
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	return store
}

// recordingStore 记录每一次删除尝试。
type recordingStore struct {
	media.Store
	mu        sync.Mutex
	deleted   []string
	deleteErr error
}

func (r *recordingStore) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	r.deleted = append(r.deleted, name)
	r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.Store.Delete(ctx, name)
}

func (r *recordingStore) deletedFiles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deleted...)
}

var errStoreDown = errors.New("store unavailable")

func countRows(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
