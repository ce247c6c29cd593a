package service

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/newshub/internal/cache"
	"github.com/newshub/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var commentPolicy = bluemonday.StrictPolicy()

// CommentService 处理评论的提交与审核。
type CommentService struct {
	db        *gorm.DB
	cache     *cache.Cache
	logger    *zap.Logger
	paginator Paginator
}

// CommentInput 是访客提交的评论表单。
type CommentInput struct {
	Name string `json:"name" form:"name" validate:"required,min=3,max=250"`
	Body string `json:"body" form:"body" validate:"required"`
}

func NewCommentService(gdb *gorm.DB, c *cache.Cache, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{db: gdb, cache: c, logger: logger, paginator: Paginator{PerPage: 20}}
}

// Create 为已发布文章保存一条待审核评论（active=false）。
// 文章不存在或未发布时返回 ErrPostNotFound，校验失败返回 *ValidationError，均不写入数据。
func (s *CommentService) Create(ctx context.Context, postID uint, input CommentInput) (*db.Comment, error) {
	var post db.Post
	err := s.db.WithContext(ctx).
		Select("id").
		Where("status = ?", db.StatusPublished).
		First(&post, postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	input.Name = stripMarkup(input.Name)
	input.Body = stripMarkup(input.Body)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	comment := db.Comment{
		PostID: post.ID,
		Name:   input.Name,
		Body:   input.Body,
		Active: false,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, err
	}

	s.logger.Info("comment submitted", zap.Uint("comment_id", comment.ID), zap.Uint("post_id", post.ID))
	return &comment, nil
}

// Approved returns the active comments of a post in creation order.
func (s *CommentService) Approved(ctx context.Context, postID uint) ([]db.Comment, error) {
	var comments []db.Comment
	if err := s.db.WithContext(ctx).
		Where("post_id = ? AND active = ?", postID, true).
		Order("created_at asc").
		Order("id asc").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// ListPending 分页列出待审核评论，最早提交的在前。
func (s *CommentService) ListPending(ctx context.Context, page string) (Page[db.Comment], error) {
	query := s.db.Model(&db.Comment{}).
		Where("active = ?", false).
		Order("created_at asc").
		Order("id asc")
	return Paginate[db.Comment](ctx, query, s.paginator, page)
}

// SetActive 修改评论的审核标记。
func (s *CommentService) SetActive(ctx context.Context, id uint, active bool) (*db.Comment, error) {
	var comment db.Comment
	if err := s.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&comment).Update("active", active).Error; err != nil {
		return nil, err
	}
	comment.Active = active
	invalidateStats(ctx, s.cache)

	s.logger.Info("comment moderated", zap.Uint("comment_id", comment.ID), zap.Bool("active", active))
	return &comment, nil
}

// stripMarkup 去掉所有 HTML 标签，保留纯文本。
func stripMarkup(s string) string {
	return strings.TrimSpace(html.UnescapeString(commentPolicy.Sanitize(s)))
}
