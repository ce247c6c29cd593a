package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newshub/internal/cache"
	"github.com/newshub/internal/db"
	"github.com/newshub/internal/media"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// 侧边栏统计相关的缓存都放在该前缀下，写操作后按前缀整体失效
	statsCachePrefix = "newshub:stats:"
	statsCacheKey    = statsCachePrefix + "sidebar"
	statsCacheTTL    = 5 * time.Minute
	latestPostsN     = 4
)

// PostService wraps post related database operations.
type PostService struct {
	db        *gorm.DB
	media     media.Store
	cache     *cache.Cache
	logger    *zap.Logger
	paginator Paginator
}

// PostInput represents fields accepted when creating a post.
type PostInput struct {
	Title       string        `json:"title" validate:"required,max=250"`
	Description string        `json:"description" validate:"required"`
	Slug        string        `json:"slug" validate:"omitempty,max=250,slug"`
	ReadingTime int           `json:"reading_time" validate:"min=0"`
	AuthorID    uint          `json:"-" validate:"required"`
	Images      []ImageUpload `json:"-"`
}

// ImageUpload 是随文章一起上传的原始图片。Field 用于校验错误的字段名。
type ImageUpload struct {
	Field       string
	Filename    string
	Data        []byte
	Title       string
	Description string
}

// PostSummary 是侧边栏“最新文章”的精简信息。
type PostSummary struct {
	ID      uint      `json:"id"`
	Title   string    `json:"title"`
	Slug    string    `json:"slug"`
	Publish time.Time `json:"publish"`
}

// Stats 汇总侧边栏统计数据。
type Stats struct {
	TotalPosts    int64         `json:"total_posts"`
	TotalComments int64         `json:"total_comments"`
	LastPublished *time.Time    `json:"last_published"`
	LatestPosts   []PostSummary `json:"latest_posts"`
}

// NewPostService creates a PostService instance. cache may be nil.
func NewPostService(gdb *gorm.DB, store media.Store, c *cache.Cache, logger *zap.Logger) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{
		db:        gdb,
		media:     store,
		cache:     c,
		logger:    logger,
		paginator: Paginator{PerPage: DefaultPerPage},
	}
}

// WithPerPage overrides the page size used by the paginated listings.
func (s *PostService) WithPerPage(n int) *PostService {
	if n > 0 {
		s.paginator = Paginator{PerPage: n}
	}
	return s
}

// StatusScope 把查询限制在指定状态，并使用默认的 publish 倒序。
func StatusScope(status db.PostStatus) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("posts.status = ?", status).Order("posts.publish desc").Order("posts.id desc")
	}
}

func withAuthorAndImages(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Author").Preload("Images", func(q *gorm.DB) *gorm.DB {
		return q.Order("images.id asc")
	})
}

// ByStatus returns every post in the given lifecycle state, newest first.
func (s *PostService) ByStatus(ctx context.Context, status db.PostStatus) ([]db.Post, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	var posts []db.Post
	if err := s.db.WithContext(ctx).
		Scopes(StatusScope(status), withAuthorAndImages).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) Published(ctx context.Context) ([]db.Post, error) {
	return s.ByStatus(ctx, db.StatusPublished)
}

func (s *PostService) Drafts(ctx context.Context) ([]db.Post, error) {
	return s.ByStatus(ctx, db.StatusDraft)
}

func (s *PostService) Rejected(ctx context.Context) ([]db.Post, error) {
	return s.ByStatus(ctx, db.StatusRejected)
}

// ListPublished 分页返回已发布文章，page 为原始页码文本。
func (s *PostService) ListPublished(ctx context.Context, page string) (Page[db.Post], error) {
	query := s.db.Model(&db.Post{}).Scopes(StatusScope(db.StatusPublished))
	return Paginate[db.Post](ctx, query, s.paginator, page, withAuthorAndImages)
}

// ListByAuthor 分页返回某作者自己的已发布文章。
func (s *PostService) ListByAuthor(ctx context.Context, authorID uint, page string) (Page[db.Post], error) {
	query := s.db.Model(&db.Post{}).
		Where("posts.author_id = ?", authorID).
		Scopes(StatusScope(db.StatusPublished))
	return Paginate[db.Post](ctx, query, s.paginator, page, withAuthorAndImages)
}

// GetPublished fetches a published post by id. Posts in any other state are
// reported as ErrPostNotFound.
func (s *PostService) GetPublished(ctx context.Context, id uint) (*db.Post, error) {
	var post db.Post
	err := s.db.WithContext(ctx).
		Scopes(withAuthorAndImages).
		Where("posts.status = ?", db.StatusPublished).
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Get fetches a post in any state.
func (s *PostService) Get(ctx context.Context, id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.WithContext(ctx).Scopes(withAuthorAndImages).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create 校验输入，处理并保存两张配图，再在事务中写入文章与图片记录。
// 事务失败时会删除已写入的图片文件。
func (s *PostService) Create(ctx context.Context, input PostInput) (*db.Post, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Slug = strings.TrimSpace(input.Slug)

	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if len(input.Images) != 2 {
		return nil, ErrImageCountInvalid
	}

	now := time.Now()
	saved := make([]string, 0, len(input.Images))
	images := make([]db.Image, 0, len(input.Images))
	for i, upload := range input.Images {
		field := upload.Field
		if field == "" {
			field = fmt.Sprintf("image%d", i+1)
		}

		processed, err := media.Process(bytes.NewReader(upload.Data))
		if err != nil {
			s.removeFiles(ctx, saved...)
			if errors.Is(err, media.ErrUnsupportedImage) {
				return nil, newValidationError(field, "upload a valid image")
			}
			return nil, err
		}

		name, err := s.media.Save(ctx, media.ImagePath(now, upload.Filename), processed)
		if err != nil {
			s.removeFiles(ctx, saved...)
			return nil, fmt.Errorf("save image: %w", err)
		}
		saved = append(saved, name)
		images = append(images, db.Image{
			File:        name,
			Title:       strings.TrimSpace(upload.Title),
			Description: strings.TrimSpace(upload.Description),
		})
	}

	post := db.Post{
		AuthorID:    input.AuthorID,
		Title:       input.Title,
		Description: input.Description,
		Slug:        input.Slug,
		ReadingTime: input.ReadingTime,
		Status:      db.StatusDraft,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&post).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].PostID = post.ID
		}
		return tx.Create(&images).Error
	})
	if err != nil {
		s.removeFiles(ctx, saved...)
		return nil, err
	}

	post.Images = images
	s.invalidateStats(ctx)
	s.logger.Info("post created",
		zap.Uint("post_id", post.ID),
		zap.Uint("author_id", post.AuthorID),
		zap.Strings("images", saved))
	return &post, nil
}

// Delete 删除作者本人的文章：事务内删除评论、图片与文章记录，提交后逐个删除图片文件。
// 非作者调用返回 ErrForbidden 且不做任何修改。
func (s *PostService) Delete(ctx context.Context, postID, userID uint) error {
	var post db.Post
	if err := s.db.WithContext(ctx).Preload("Images").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	if post.AuthorID != userID {
		return ErrForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&db.Image{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db.Post{}, post.ID).Error
	})
	if err != nil {
		return err
	}

	files := make([]string, 0, len(post.Images))
	for _, img := range post.Images {
		files = append(files, img.File)
	}
	s.removeFiles(ctx, files...)
	s.invalidateStats(ctx)

	s.logger.Info("post deleted", zap.Uint("post_id", post.ID), zap.Uint("user_id", userID))
	return nil
}

// SetStatus 由审核员修改文章状态。
func (s *PostService) SetStatus(ctx context.Context, id uint, raw string) (*db.Post, error) {
	status, err := db.ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	var post db.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	post.Status = status
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(&post).Error; err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return &post, nil
}

// Stats 返回侧边栏统计，配置了 redis 时缓存 5 分钟。
func (s *PostService) Stats(ctx context.Context) (*Stats, error) {
	var cached Stats
	if s.cache.GetJSON(ctx, statsCacheKey, &cached) {
		return &cached, nil
	}

	stats := Stats{LatestPosts: []PostSummary{}}
	tx := s.db.WithContext(ctx)

	if err := tx.Model(&db.Post{}).Where("status = ?", db.StatusPublished).Count(&stats.TotalPosts).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&db.Comment{}).Where("active = ?", true).Count(&stats.TotalComments).Error; err != nil {
		return nil, err
	}

	var latest []db.Post
	if err := tx.Scopes(StatusScope(db.StatusPublished)).Limit(latestPostsN).Find(&latest).Error; err != nil {
		return nil, err
	}
	for _, p := range latest {
		stats.LatestPosts = append(stats.LatestPosts, PostSummary{ID: p.ID, Title: p.Title, Slug: p.Slug, Publish: p.Publish})
	}
	if len(latest) > 0 {
		last := latest[0].Publish
		stats.LastPublished = &last
	}

	s.cache.SetJSON(ctx, statsCacheKey, stats, statsCacheTTL)
	return &stats, nil
}

func (s *PostService) invalidateStats(ctx context.Context) {
	invalidateStats(ctx, s.cache)
}

func invalidateStats(ctx context.Context, c *cache.Cache) {
	c.InvalidatePrefix(ctx, statsCachePrefix)
}

func (s *PostService) removeFiles(ctx context.Context, files ...string) {
	removeMediaFiles(ctx, s.media, s.logger, files...)
}
