package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newshub/internal/cache"
	"github.com/newshub/internal/config"
	"github.com/newshub/internal/db"
	"github.com/newshub/internal/logging"
	"github.com/newshub/internal/media"
	"github.com/newshub/internal/router"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	gdb, err := db.Init(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	if cfg.SuperRootUserName != "" && cfg.SuperRootPassword != "" {
		if err := db.EnsureUser(gdb, cfg.SuperRootUserName, cfg.SuperRootPassword, true); err != nil {
			logger.Fatal("failed to ensure root user", zap.Error(err))
		}
	}

	store, err := media.Open(cfg)
	if err != nil {
		logger.Fatal("failed to initialize media store", zap.Error(err))
	}

	// REDIS_ADDR 为空时 c 为 nil，统计数据直接查库
	c := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	defer func() { _ = c.Close() }()

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router.SetupRouter(cfg, gdb, store, c, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to run server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
