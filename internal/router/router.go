package router

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/newshub/internal/cache"
	"github.com/newshub/internal/config"
	"github.com/newshub/internal/handler"
	"github.com/newshub/internal/media"
	"github.com/newshub/internal/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionName = "newshub_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig, gdb *gorm.DB, store media.Store, c *cache.Cache, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))

	// 配置会话中间件
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(sessionName, sessionStore))

	// 本地存储时直接提供媒体文件
	if local, ok := store.(*media.LocalStore); ok {
		r.Static(mediaPrefix(cfg.MediaURLPath), local.Root())
	}

	api := handler.NewAPI(gdb, store, c, logger, cfg.PostsPerPage)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	r.GET("/healthz", api.Healthz)
	r.GET("/stats", api.Stats)

	r.GET("/posts/", api.ListPosts)
	r.GET("/posts/:id", api.ShowPost)
	r.POST("/posts/:id/comment", limiter.Middleware(), api.PostComment)

	r.GET("/ticket", api.ShowTicketForm)
	r.POST("/ticket", limiter.Middleware(), api.SubmitTicket)

	r.GET("/search/", api.Search)

	r.GET("/login", api.ShowLoginPage)
	r.POST("/login", limiter.Middleware(), api.Login)
	r.GET("/logout", api.Logout)

	// 需要登录的作者路由
	profile := r.Group("/profile")
	profile.Use(api.AuthRequired())
	{
		profile.GET("/", api.Profile)
		profile.GET("/create_post/", api.ShowCreatePostForm)
		profile.POST("/create_post/", api.CreatePost)
		profile.GET("/delete_post/:post_id/", api.ShowDeletePost)
		profile.POST("/delete_post/:post_id/", api.DeletePost)
		profile.POST("/images/:image_id/delete/", api.DeleteImage)
	}

	// 审核员路由
	moderation := r.Group("/moderation")
	moderation.Use(api.AuthRequired(), api.StaffRequired())
	{
		moderation.GET("/comments", api.ListPendingComments)
		moderation.POST("/comments/:id/active", api.SetCommentActive)
		moderation.POST("/posts/:id/status", api.SetPostStatus)
	}

	return r
}

func mediaPrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return "/media"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}
