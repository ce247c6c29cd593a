package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newshub/internal/db"
	"go.uber.org/zap"
)

func TestCommentService_NewCommentsWaitForModeration(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewCommentService(gdb, nil, zap.NewNop())
	author := createTestUser(t, gdb, "author")
	post := createTestPost(t, gdb, author, "commented", db.StatusPublished, time.Now())
	ctx := context.Background()

	comment, err := svc.Create(ctx, post.ID, CommentInput{Name: "reader", Body: "great post"})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if comment.Active {
		t.Fatal("expected new comment to be inactive")
	}

	approved, err := svc.Approved(ctx, post.ID)
	if err != nil {
		t.Fatalf("approved: %v", err)
	}
	if len(approved) != 0 {
		t.Fatalf("expected no approved comments before moderation, got %d", len(approved))
	}

	pending, err := svc.ListPending(ctx, "")
	if err != nil || pending.Total != 1 {
		t.Fatalf("expected one pending comment, got %+v %v", pending, err)
	}

	if _, err := svc.SetActive(ctx, comment.ID, true); err != nil {
		t.Fatalf("activate: %v", err)
	}
	approved, err = svc.Approved(ctx, post.ID)
	if err != nil {
		t.Fatalf("approved: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != comment.ID {
		t.Fatalf("expected activated comment, got %+v", approved)
	}

	if _, err := svc.SetActive(ctx, 9999, true); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
}

func TestCommentService_ShortNameRejected(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewCommentService(gdb, nil, zap.NewNop())
	author := createTestUser(t, gdb, "author")
	post := createTestPost(t, gdb, author, "commented", db.StatusPublished, time.Now())

	for _, name := range []string{"", "ab", "  ab  ", "<b>ab</b>"} {
		_, err := svc.Create(context.Background(), post.ID, CommentInput{Name: name, Body: "body"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Fields["name"] == "" {
			t.Fatalf("name %q: expected name validation error, got %v", name, err)
		}
	}
	if n := countRows(t, gdb, &db.Comment{}); n != 0 {
		t.Fatalf("expected nothing persisted, got %d", n)
	}

	// 三个字符（含非拉丁字符）即可通过
	if _, err := svc.Create(context.Background(), post.ID, CommentInput{Name: "علی", Body: "سلام"}); err != nil {
		t.Fatalf("expected 3-rune name to pass: %v", err)
	}
}

func TestCommentService_RequiresPublishedPost(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewCommentService(gdb, nil, zap.NewNop())
	author := createTestUser(t, gdb, "author")
	draft := createTestPost(t, gdb, author, "draft", db.StatusDraft, time.Now())

	_, err := svc.Create(context.Background(), draft.ID, CommentInput{Name: "reader", Body: "hi"})
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	_, err = svc.Create(context.Background(), 9999, CommentInput{Name: "reader", Body: "hi"})
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestCommentService_StripsMarkup(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewCommentService(gdb, nil, zap.NewNop())
	author := createTestUser(t, gdb, "author")
	post := createTestPost(t, gdb, author, "commented", db.StatusPublished, time.Now())

	comment, err := svc.Create(context.Background(), post.ID, CommentInput{
		Name: "reader",
		Body: `hello <script>alert(1)</script><b>world</b>`,
	})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if comment.Body != "hello world" {
		t.Fatalf("expected markup stripped, got %q", comment.Body)
	}
}
