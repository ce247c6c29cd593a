package main

import (
	"context"
	"flag"
	"log"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/newshub/internal/config"
	"github.com/newshub/internal/db"
	"github.com/newshub/internal/logging"
	"github.com/newshub/internal/media"
	"go.uber.org/zap"
)

// 测试数据生成器
func main() {
	opts := defaultOptions()
	flag.IntVar(&opts.Authors, "authors", opts.Authors, "number of authors")
	flag.IntVar(&opts.Posts, "posts", opts.Posts, "number of posts")
	flag.IntVar(&opts.CommentsPerPost, "comments", opts.CommentsPerPost, "comments per published post")
	flag.IntVar(&opts.Tickets, "tickets", opts.Tickets, "number of tickets")
	flag.StringVar(&opts.Password, "password", opts.Password, "password for generated authors")
	seed := flag.Int64("seed", 0, "random seed, 0 picks one")
	flag.Parse()

	cfg := config.Load()
	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gdb, err := db.Init(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	store, err := media.Open(cfg)
	if err != nil {
		logger.Fatal("failed to initialize media store", zap.Error(err))
	}

	s := newSeeder(gdb, store, logger, gofakeit.New(*seed))
	summary, err := s.Run(context.Background(), opts)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("seed finished",
		zap.Int("authors", summary.Authors),
		zap.Int("published", summary.Published),
		zap.Int("drafts", summary.Drafts),
		zap.Int("rejected", summary.Rejected),
		zap.Int("comments", summary.Comments),
		zap.Int("tickets", summary.Tickets))
}
