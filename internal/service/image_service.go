package service

import (
	"context"
	"errors"

	"github.com/newshub/internal/db"
	"github.com/newshub/internal/media"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImageService 管理文章配图记录及其文件。
type ImageService struct {
	db     *gorm.DB
	media  media.Store
	logger *zap.Logger
}

func NewImageService(gdb *gorm.DB, store media.Store, logger *zap.Logger) *ImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageService{db: gdb, media: store, logger: logger}
}

// Get returns an image by id.
func (s *ImageService) Get(ctx context.Context, id uint) (*db.Image, error) {
	var img db.Image
	if err := s.db.WithContext(ctx).First(&img, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &img, nil
}

// Delete 删除图片记录后同步删除文件。只有所属文章的作者可以删除。
// 文件缺失或删除失败只记录日志，不影响记录删除的结果。
func (s *ImageService) Delete(ctx context.Context, imageID, userID uint) error {
	img, err := s.Get(ctx, imageID)
	if err != nil {
		return err
	}

	var post db.Post
	if err := s.db.WithContext(ctx).Select("id", "author_id").First(&post, img.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrImageNotFound
		}
		return err
	}
	if post.AuthorID != userID {
		return ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(&db.Image{}, img.ID).Error; err != nil {
		return err
	}
	removeMediaFiles(ctx, s.media, s.logger, img.File)
	return nil
}

// removeMediaFiles 逐个删除媒体文件，错误只记录不返回。
func removeMediaFiles(ctx context.Context, store media.Store, logger *zap.Logger, files ...string) {
	if store == nil {
		return
	}
	for _, name := range files {
		if name == "" {
			continue
		}
		if err := store.Delete(ctx, name); err != nil {
			logger.Warn("media delete failed", zap.String("file", name), zap.Error(err))
			continue
		}
		logger.Debug("media deleted", zap.String("file", name))
	}
}
