package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/newshub/internal/db"
	"go.uber.org/zap"
)

func TestPostService_StatusViewsAreDisjoint(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb, newLocalStore(t), nil, zap.NewNop())
	author := createTestUser(t, gdb, "status-tester")
	ctx := context.Background()

	now := time.Now()
	createTestPost(t, gdb, author, "published old", db.StatusPublished, now.Add(-2*time.Hour))
	createTestPost(t, gdb, author, "published new", db.StatusPublished, now.Add(-time.Hour))
	createTestPost(t, gdb, author, "draft", db.StatusDraft, now)
	createTestPost(t, gdb, author, "rejected", db.StatusRejected, now)

	published, err := svc.Published(ctx)
	if err != nil {
		t.Fatalf("published: %v", err)
	}
	if len(published) != 2 {
		t.Fatalf("expected 2 published posts, got %d", len(published))
	}
	if published[0].Title != "published new" {
		t.Fatalf("expected newest first, got %q", published[0].Title)
	}
	for _, p := range published {
		if p.Status != db.StatusPublished {
			t.Fatalf("published view returned %q post", p.Status)
		}
		if p.Author == nil || p.Author.ID != author.ID {
			t.Fatalf("expected author to be preloaded")
		}
	}

	drafts, err := svc.Drafts(ctx)
	if err != nil || len(drafts) != 1 || drafts[0].Status != db.StatusDraft {
		t.Fatalf("unexpected drafts %v %v", drafts, err)
	}
	rejected, err := svc.Rejected(ctx)
	if err != nil || len(rejected) != 1 || rejected[0].Status != db.StatusRejected {
		t.Fatalf("unexpected rejected %v %v", rejected, err)
	}

	if _, err := svc.ByStatus(ctx, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestPostService_ListPublishedPaginates(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb, newLocalStore(t), nil, zap.NewNop())
	author := createTestUser(t, gdb, "list-tester")
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	titles := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"}
	for i, title := range titles {
		createTestPost(t, gdb, author, title, db.StatusPublished, base.Add(-time.Duration(i)*time.Hour))
	}
	createTestPost(t, gdb, author, "hidden draft", db.StatusDraft, base.Add(time.Hour))

	page, err := svc.ListPublished(ctx, "2")
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if page.Total != 7 || page.TotalPages != 3 {
		t.Fatalf("unexpected totals %+v", page)
	}
	got := []string{page.Items[0].Title, page.Items[1].Title, page.Items[2].Title}
	if got[0] != "p4" || got[1] != "p5" || got[2] != "p6" {
		t.Fatalf("expected p4..p6, got %v", got)
	}

	first, err := svc.ListPublished(ctx, "abc")
	if err != nil || first.Number != 1 || first.Items[0].Title != "p1" {
		t.Fatalf("expected first page for invalid token, got %+v %v", first, err)
	}
	last, err := svc.ListPublished(ctx, "9999")
	if err != nil || last.Number != 3 || len(last.Items) != 1 || last.Items[0].Title != "p7" {
		t.Fatalf("expected last page for large token, got %+v %v", last, err)
	}
}

func TestPostService_GetPublishedHidesOtherStates(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb, newLocalStore(t), nil, zap.NewNop())
	author := createTestUser(t, gdb, "detail-tester")
	ctx := context.Background()

	published := createTestPost(t, gdb, author, "visible", db.StatusPublished, time.Now())
	draft := createTestPost(t, gdb, author, "invisible", db.StatusDraft, time.Now())

	if _, err := svc.GetPublished(ctx, published.ID); err != nil {
		t.Fatalf("get published: %v", err)
	}
	if _, err := svc.GetPublished(ctx, draft.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for draft, got %v", err)
	}
	if _, err := svc.GetPublished(ctx, 9999); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for missing post, got %v", err)
	}
}

func TestPostService_CreateStoresPostAndTwoImages(t *testing.T) {
	gdb := setupServiceTestDB(t)
	store := newLocalStore(t)
	svc := NewPostService(gdb, store, nil, zap.NewNop())
	author := createTestUser(t, gdb, "creator")
	ctx := context.Background()

	post, err := svc.Create(ctx, PostInput{
		Title:       "Garden Tips",
		Description: "how to grow tomatoes",
		AuthorID:    author.ID,
		Images: []ImageUpload{
			{Filename: "front.png", Data: pngBytes(t, 800, 600)},
			{Filename: "front.png", Data: pngBytes(t, 300, 900), Title: "side"},
		},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if post.Status != db.StatusDraft {
		t.Fatalf("expected draft by default, got %q", post.Status)
	}
	if post.Slug != "garden-tips" || post.ReadingTime != 1 {
		t.Fatalf("expected derived slug and reading time, got %q %d", post.Slug, post.ReadingTime)
	}
	if len(post.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(post.Images))
	}
	if post.Images[0].File == post.Images[1].File {
		t.Fatalf("expected distinct files for identical names, got %q", post.Images[0].File)
	}
	for _, img := range post.Images {
		ok, err := store.Exists(ctx, img.File)
		if err != nil || !ok {
			t.Fatalf("expected %s to exist: %v", img.File, err)
		}
	}
	if got := countRows(t, gdb, &db.Image{}); got != 2 {
		t.Fatalf("expected 2 image rows, got %d", got)
	}
}

func TestPostService_CreateRequiresExactlyTwoImages(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb, newLocalStore(t), nil, zap.NewNop())
	author := createTestUser(t, gdb, "one-image")

	_, err := svc.Create(context.Background(), PostInput{
		Title:       "t",
		Description: "d",
		AuthorID:    author.ID,
		Images:      []ImageUpload{{Filename: "a.png", Data: pngBytes(t, 10, 10)}},
	})
	if !errors.Is(err, ErrImageCountInvalid) {
		t.Fatalf("expected ErrImageCountInvalid, got %v", err)
	}
	if got := countRows(t, gdb, &db.Post{}); got != 0 {
		t.Fatalf("expected nothing persisted, got %d posts", got)
	}
}

func TestPostService_CreateValidation(t *testing.T) {
	gdb := setupServiceTestDB(t)
	store := &recordingStore{Store: newLocalStore(t)}
	svc := NewPostService(gdb, store, nil, zap.NewNop())
	author := createTestUser(t, gdb, "validator")
	ctx := context.Background()

	_, err := svc.Create(ctx, PostInput{Description: "d", AuthorID: author.ID})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Fields["title"] == "" {
		t.Fatalf("expected title validation error, got %v", err)
	}

	_, err = svc.Create(ctx, PostInput{
		Title:       "t",
		Description: "d",
		Slug:        "a b/../c?x=<script>",
		AuthorID:    author.ID,
		Images: []ImageUpload{
			{Filename: "a.png", Data: pngBytes(t, 10, 10)},
			{Filename: "b.png", Data: pngBytes(t, 10, 10)},
		},
	})
	if !errors.As(err, &vErr) || vErr.Fields["slug"] == "" {
		t.Fatalf("expected slug validation error, got %v", err)
	}
	if deleted := store.deletedFiles(); len(deleted) != 0 {
		t.Fatalf("expected no files written for rejected input, got deletes %v", deleted)
	}

	_, err = svc.Create(ctx, PostInput{
		Title:       "t",
		Description: "d",
		AuthorID:    author.ID,
		Images: []ImageUpload{
			{Filename: "a.png", Data: pngBytes(t, 10, 10)},
			{Filename: "b.png", Data: []byte("not an image")},
		},
	})
	if !errors.As(err, &vErr) || vErr.Fields["image2"] == "" {
		t.Fatalf("expected image2 validation error, got %v", err)
	}
	if got := countRows(t, gdb, &db.Post{}); got != 0 {
		t.Fatalf("expected nothing persisted, got %d posts", got)
	}
	// 第一张图已写入，校验失败后应被清理
	if deleted := store.deletedFiles(); len(deleted) != 1 {
		t.Fatalf("expected the saved first image to be removed, got %v", deleted)
	}
}

func TestPostService_DeleteCascadesAndRemovesFiles(t *testing.T) {
	gdb := setupServiceTestDB(t)
	store := &recordingStore{Store: newLocalStore(t)}
	svc := NewPostService(gdb, store, nil, zap.NewNop())
	author := createTestUser(t, gdb, "deleter")
	ctx := context.Background()

	post, err := svc.Create(ctx, PostInput{
		Title:       "to delete",
		Description: "soon gone",
		AuthorID:    author.ID,
		Images: []ImageUpload{
			{Filename: "a.png", Data: pngBytes(t, 20, 20)},
			{Filename: "b.png", Data: pngBytes(t, 20, 20)},
		},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if err := gdb.Create(&db.Comment{PostID: post.ID, Name: "reader", Body: "nice"}).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}

	// 删除前手动移除一个文件，删除流程仍应成功
	if err := store.Store.Delete(ctx, post.Images[0].File); err != nil {
		t.Fatalf("pre-remove file: %v", err)
	}

	if err := svc.Delete(ctx, post.ID, author.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	if n := countRows(t, gdb, &db.Post{}); n != 0 {
		t.Fatalf("expected post removed, got %d", n)
	}
	if n := countRows(t, gdb, &db.Comment{}); n != 0 {
		t.Fatalf("expected comments removed, got %d", n)
	}
	if n := countRows(t, gdb, &db.Image{}); n != 0 {
		t.Fatalf("expected images removed, got %d", n)
	}

	deleted := store.deletedFiles()
	if len(deleted) != 2 {
		t.Fatalf("expected a removal attempt per image, got %v", deleted)
	}
	for _, img := range post.Images {
		if ok, _ := store.Exists(ctx, img.File); ok {
			t.Fatalf("expected %s to be gone", img.File)
		}
	}
}

func TestPostService_DeleteByNonOwnerIsForbidden(t *testing.T) {
	gdb := setupServiceTestDB(t)
	store := &recordingStore{Store: newLocalStore(t)}
	svc := NewPostService(gdb, store, nil, zap.NewNop())
	owner := createTestUser(t, gdb, "owner")
	other := createTestUser(t, gdb, "intruder")
	ctx := context.Background()

	post := createTestPost(t, gdb, owner, "mine", db.StatusPublished, time.Now())
	createTestImage(t, gdb, post, "post_images/2026/mine.jpg", "")

	if err := svc.Delete(ctx, post.ID, other.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if n := countRows(t, gdb, &db.Post{}); n != 1 {
		t.Fatalf("expected post to survive, got %d", n)
	}
	if n := countRows(t, gdb, &db.Image{}); n != 1 {
		t.Fatalf("expected image to survive, got %d", n)
	}
	if deleted := store.deletedFiles(); len(deleted) != 0 {
		t.Fatalf("expected no file removal, got %v", deleted)
	}

	if err := svc.Delete(ctx, 9999, owner.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostService_DeleteIgnoresStoreFailure(t *testing.T) {
	gdb := setupServiceTestDB(t)
	store := &recordingStore{Store: newLocalStore(t), deleteErr: errStoreDown}
	svc := NewPostService(gdb, store, nil, zap.NewNop())
	author := createTestUser(t, gdb, "unlucky")

	post := createTestPost(t, gdb, author, "post", db.StatusDraft, time.Now())
	createTestImage(t, gdb, post, "post_images/2026/x.jpg", "")

	if err := svc.Delete(context.Background(), post.ID, author.ID); err != nil {
		t.Fatalf("delete must not fail on store errors: %v", err)
	}
	if n := countRows(t, gdb, &db.Post{}); n != 0 {
		t.Fatalf("expected post removed, got %d", n)
	}
}

func TestPostService_SetStatus(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb, newLocalStore(t), nil, zap.NewNop())
	author := createTestUser(t, gdb, "moderated")
	ctx := context.Background()

	post := createTestPost(t, gdb, author, "pending", db.StatusDraft, time.Now())

	updated, err := svc.SetStatus(ctx, post.ID, "Published")
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != db.StatusPublished {
		t.Fatalf("expected published, got %q", updated.Status)
	}
	if _, err := svc.GetPublished(ctx, post.ID); err != nil {
		t.Fatalf("expected post to be public now: %v", err)
	}

	if _, err := svc.SetStatus(ctx, post.ID, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := svc.SetStatus(ctx, 9999, "draft"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostService_ListByAuthor(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb, newLocalStore(t), nil, zap.NewNop())
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")

	createTestPost(t, gdb, alice, "alice published", db.StatusPublished, time.Now())
	createTestPost(t, gdb, alice, "alice draft", db.StatusDraft, time.Now())
	createTestPost(t, gdb, bob, "bob published", db.StatusPublished, time.Now())

	page, err := svc.ListByAuthor(context.Background(), alice.ID, "")
	if err != nil {
		t.Fatalf("list by author: %v", err)
	}
	if page.Total != 1 || page.Items[0].Title != "alice published" {
		t.Fatalf("expected only alice's published post, got %+v", page.Items)
	}
}

func TestPostService_Stats(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb, newLocalStore(t), nil, zap.NewNop())
	author := createTestUser(t, gdb, "stats")
	ctx := context.Background()

	empty, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats on empty db: %v", err)
	}
	if empty.TotalPosts != 0 || empty.LastPublished != nil || len(empty.LatestPosts) != 0 {
		t.Fatalf("unexpected empty stats %+v", empty)
	}

	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	var newest db.Post
	for i := 0; i < 5; i++ {
		newest = createTestPost(t, gdb, author, "post", db.StatusPublished, base.Add(time.Duration(i)*time.Hour))
	}
	createTestPost(t, gdb, author, "draft", db.StatusDraft, base.Add(48*time.Hour))
	if err := gdb.Create(&db.Comment{PostID: newest.ID, Name: "one", Body: "x", Active: true}).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if err := gdb.Create(&db.Comment{PostID: newest.ID, Name: "two", Body: "y"}).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalPosts != 5 {
		t.Fatalf("expected 5 published posts, got %d", stats.TotalPosts)
	}
	if stats.TotalComments != 1 {
		t.Fatalf("expected 1 active comment, got %d", stats.TotalComments)
	}
	if stats.LastPublished == nil || !stats.LastPublished.Equal(newest.Publish) {
		t.Fatalf("expected last published %v, got %v", newest.Publish, stats.LastPublished)
	}
	if len(stats.LatestPosts) != 4 || stats.LatestPosts[0].ID != newest.ID {
		t.Fatalf("expected 4 latest posts starting with newest, got %+v", stats.LatestPosts)
	}
}

func TestStatsCacheKeyCoveredByInvalidation(t *testing.T) {
	if !strings.HasPrefix(statsCacheKey, statsCachePrefix) {
		t.Fatalf("stats key %q is outside invalidation prefix %q", statsCacheKey, statsCachePrefix)
	}
	// 未配置 redis 时失效操作是空操作
	invalidateStats(context.Background(), nil)
}
