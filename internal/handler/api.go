package handler

import (
	"github.com/newshub/internal/cache"
	"github.com/newshub/internal/media"
	"github.com/newshub/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 单个上传文件的大小上限
const maxUploadBytes = 10 << 20

// API bundles shared dependencies for HTTP handlers.
type API struct {
	posts    *service.PostService
	comments *service.CommentService
	images   *service.ImageService
	tickets  *service.TicketService
	search   *service.SearchService
	users    *service.UserService
	media    media.Store
	logger   *zap.Logger
}

// NewAPI constructs a handler set with shared services. c may be nil.
func NewAPI(gdb *gorm.DB, store media.Store, c *cache.Cache, logger *zap.Logger, perPage int) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		posts:    service.NewPostService(gdb, store, c, logger).WithPerPage(perPage),
		comments: service.NewCommentService(gdb, c, logger),
		images:   service.NewImageService(gdb, store, logger),
		tickets:  service.NewTicketService(gdb, logger),
		search:   service.NewSearchService(gdb, logger),
		users:    service.NewUserService(gdb),
		media:    store,
		logger:   logger,
	}
}
