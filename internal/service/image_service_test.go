package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newshub/internal/db"
	"go.uber.org/zap"
)

func TestImageService_DeleteRemovesFile(t *testing.T) {
	gdb := setupServiceTestDB(t)
	local := newLocalStore(t)
	store := &recordingStore{Store: local}
	svc := NewImageService(gdb, store, zap.NewNop())
	author := createTestUser(t, gdb, "owner")
	ctx := context.Background()

	name, err := local.Save(ctx, "post_images/2026/photo.jpg", []byte("jpeg"))
	if err != nil {
		t.Fatalf("save file: %v", err)
	}
	post := createTestPost(t, gdb, author, "with image", db.StatusPublished, time.Now())
	img := createTestImage(t, gdb, post, name, "photo")

	if err := svc.Delete(ctx, img.ID, author.ID); err != nil {
		t.Fatalf("delete image: %v", err)
	}
	if n := countRows(t, gdb, &db.Image{}); n != 0 {
		t.Fatalf("expected image row removed, got %d", n)
	}
	if ok, _ := local.Exists(ctx, name); ok {
		t.Fatalf("expected file %s removed", name)
	}
	if n := countRows(t, gdb, &db.Post{}); n != 1 {
		t.Fatalf("post must survive image deletion, got %d", n)
	}
}

func TestImageService_DeleteWithMissingFileSucceeds(t *testing.T) {
	gdb := setupServiceTestDB(t)
	store := &recordingStore{Store: newLocalStore(t)}
	svc := NewImageService(gdb, store, zap.NewNop())
	author := createTestUser(t, gdb, "owner")
	ctx := context.Background()

	post := createTestPost(t, gdb, author, "with image", db.StatusPublished, time.Now())
	img := createTestImage(t, gdb, post, "post_images/2026/never-written.jpg", "")

	if err := svc.Delete(ctx, img.ID, author.ID); err != nil {
		t.Fatalf("delete image with missing file: %v", err)
	}
	if deleted := store.deletedFiles(); len(deleted) != 1 || deleted[0] != img.File {
		t.Fatalf("expected one removal attempt, got %v", deleted)
	}
	if ok, _ := store.Exists(ctx, img.File); ok {
		t.Fatal("file must be absent afterwards")
	}
}

func TestImageService_DeleteForbiddenAndMissing(t *testing.T) {
	gdb := setupServiceTestDB(t)
	store := &recordingStore{Store: newLocalStore(t)}
	svc := NewImageService(gdb, store, zap.NewNop())
	owner := createTestUser(t, gdb, "owner")
	other := createTestUser(t, gdb, "other")
	ctx := context.Background()

	post := createTestPost(t, gdb, owner, "with image", db.StatusPublished, time.Now())
	img := createTestImage(t, gdb, post, "post_images/2026/a.jpg", "")

	if err := svc.Delete(ctx, img.ID, other.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if n := countRows(t, gdb, &db.Image{}); n != 1 {
		t.Fatalf("expected image to survive, got %d", n)
	}
	if err := svc.Delete(ctx, 9999, owner.ID); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got %v", err)
	}
	if deleted := store.deletedFiles(); len(deleted) != 0 {
		t.Fatalf("expected no removal attempts, got %v", deleted)
	}
}
