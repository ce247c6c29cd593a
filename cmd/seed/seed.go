package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/newshub/internal/db"
	"github.com/newshub/internal/media"
	"github.com/newshub/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type options struct {
	Authors         int
	Posts           int
	CommentsPerPost int
	Tickets         int
	Password        string
}

func defaultOptions() options {
	return options{Authors: 3, Posts: 12, CommentsPerPost: 3, Tickets: 5, Password: "password123"}
}

type summary struct {
	Authors   int
	Published int
	Drafts    int
	Rejected  int
	Comments  int
	Tickets   int
}

// seeder 通过服务层写入数据，图片同样走裁剪和存储流程。
type seeder struct {
	gdb      *gorm.DB
	posts    *service.PostService
	comments *service.CommentService
	tickets  *service.TicketService
	faker    *gofakeit.Faker
	logger   *zap.Logger
}

func newSeeder(gdb *gorm.DB, store media.Store, logger *zap.Logger, faker *gofakeit.Faker) *seeder {
	return &seeder{
		gdb:      gdb,
		posts:    service.NewPostService(gdb, store, nil, logger),
		comments: service.NewCommentService(gdb, nil, logger),
		tickets:  service.NewTicketService(gdb, logger),
		faker:    faker,
		logger:   logger,
	}
}

func (s *seeder) Run(ctx context.Context, opts options) (summary, error) {
	var sum summary

	authors := make([]db.User, 0, opts.Authors)
	for i := 1; i <= opts.Authors; i++ {
		username := fmt.Sprintf("author%d", i)
		if err := db.EnsureUser(s.gdb, username, opts.Password, false); err != nil {
			return sum, fmt.Errorf("create %s: %w", username, err)
		}
		var user db.User
		if err := s.gdb.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
			return sum, err
		}
		authors = append(authors, user)
	}
	sum.Authors = len(authors)
	if len(authors) == 0 {
		return sum, nil
	}

	// 一半发布，其余在草稿与驳回之间轮换
	statuses := []db.PostStatus{db.StatusPublished, db.StatusDraft, db.StatusPublished, db.StatusRejected}
	for i := 0; i < opts.Posts; i++ {
		post, err := s.createPost(ctx, authors[i%len(authors)].ID)
		if err != nil {
			return sum, fmt.Errorf("create post %d: %w", i+1, err)
		}

		status := statuses[i%len(statuses)]
		if status != db.StatusDraft {
			if _, err := s.posts.SetStatus(ctx, post.ID, string(status)); err != nil {
				return sum, err
			}
		}
		switch status {
		case db.StatusPublished:
			sum.Published++
			n, err := s.createComments(ctx, post.ID, opts.CommentsPerPost)
			if err != nil {
				return sum, err
			}
			sum.Comments += n
		case db.StatusDraft:
			sum.Drafts++
		case db.StatusRejected:
			sum.Rejected++
		}
	}

	for i := 0; i < opts.Tickets; i++ {
		if err := s.createTicket(ctx); err != nil {
			return sum, fmt.Errorf("create ticket %d: %w", i+1, err)
		}
		sum.Tickets++
	}
	return sum, nil
}

func (s *seeder) createPost(ctx context.Context, authorID uint) (*db.Post, error) {
	uploads := make([]service.ImageUpload, 0, 2)
	for _, field := range []string{"image1", "image2"} {
		data, err := s.fakeImage()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.ImageUpload{
			Field:       field,
			Filename:    s.faker.Word() + ".png",
			Data:        data,
			Title:       s.faker.Sentence(3),
			Description: s.faker.Sentence(8),
		})
	}

	return s.posts.Create(ctx, service.PostInput{
		Title:       s.faker.Sentence(s.faker.Number(3, 8)),
		Description: s.faker.Paragraph(3, 4, 14, "\n\n"),
		AuthorID:    authorID,
		Images:      uploads,
	})
}

func (s *seeder) createComments(ctx context.Context, postID uint, n int) (int, error) {
	created := 0
	for i := 0; i < n; i++ {
		comment, err := s.comments.Create(ctx, postID, service.CommentInput{
			Name: s.faker.Username(),
			Body: s.faker.Sentence(s.faker.Number(6, 20)),
		})
		if err != nil {
			return created, err
		}
		created++
		// 第一条保留待审核，方便演示审核流程
		if i > 0 {
			if _, err := s.comments.SetActive(ctx, comment.ID, true); err != nil {
				return created, err
			}
		}
	}
	return created, nil
}

func (s *seeder) createTicket(ctx context.Context) error {
	_, err := s.tickets.Create(ctx, service.TicketInput{
		Message: s.faker.Paragraph(1, 3, 12, " "),
		Name:    s.faker.Name(),
		Email:   s.faker.Email(),
		Phone:   s.faker.Numerify("09#########"),
		Subject: string(s.faker.RandomString([]string{
			string(db.SubjectSuggestion),
			string(db.SubjectCriticism),
			string(db.SubjectReport),
		})),
	})
	return err
}

// fakeImage 生成一张随机双色渐变 PNG，尺寸不固定以覆盖裁剪逻辑。
func (s *seeder) fakeImage() ([]byte, error) {
	w, h := s.faker.Number(320, 900), s.faker.Number(320, 900)
	from := color.RGBA{R: s.faker.Uint8(), G: s.faker.Uint8(), B: s.faker.Uint8(), A: 255}
	to := color.RGBA{R: s.faker.Uint8(), G: s.faker.Uint8(), B: s.faker.Uint8(), A: 255}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		t := float64(y) / float64(h)
		row := color.RGBA{
			R: mix(from.R, to.R, t),
			G: mix(from.G, to.G, t),
			B: mix(from.B, to.B, t),
			A: 255,
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, row)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mix(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
