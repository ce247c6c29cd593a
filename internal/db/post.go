package db

import (
	"errors"
	"strings"
	"time"

	"github.com/newshub/internal/slug"
	"gorm.io/gorm"
)

// PostStatus 表示文章的生命周期阶段。
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
	StatusRejected  PostStatus = "rejected"
)

// ErrInvalidStatus is returned when a post carries a status outside the three known values.
var ErrInvalidStatus = errors.New("invalid post status")

// ErrInvalidSlug 表示手动填写的 slug 含有 URL 不安全的字符。
var ErrInvalidSlug = errors.New("invalid post slug")

// Valid reports whether s is one of draft, published or rejected.
func (s PostStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusRejected:
		return true
	default:
		return false
	}
}

// ParseStatus 解析外部输入的状态值，大小写与首尾空白不敏感。
func ParseStatus(raw string) (PostStatus, error) {
	status := PostStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Post 定义了文章模型
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AuthorID    uint       `gorm:"index;not null" json:"author_id"`
	Author      *User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author,omitempty"`
	Title       string     `gorm:"size:250;not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Slug        string     `gorm:"size:250;index" json:"slug"`
	Publish     time.Time  `gorm:"not null;index:idx_posts_publish,sort:desc" json:"publish"`
	CreatedAt   time.Time  `gorm:"<-:create" json:"created"`
	UpdatedAt   time.Time  `json:"updated"`
	Status      PostStatus `gorm:"size:16;not null;default:draft;index" json:"status"`
	ReadingTime int        `gorm:"not null;default:1" json:"reading_time"`
	Comments    []Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
	Images      []Image    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
}

// BeforeSave 在每次写入前补齐默认值并拒绝非法状态。
func (p *Post) BeforeSave(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.Publish.IsZero() {
		p.Publish = time.Now()
	}
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = slug.Generate(p.Title)
	} else if !slug.Valid(p.Slug) {
		return ErrInvalidSlug
	}
	if p.ReadingTime <= 0 {
		p.ReadingTime = EstimateReadingTime(p.Description)
	}
	return nil
}

// EstimateReadingTime 按每分钟 400 字估算阅读时长，至少 1 分钟。
func EstimateReadingTime(content string) int {
	runes := []rune(strings.TrimSpace(content))
	minutes := len(runes) / 400
	if len(runes)%400 != 0 {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
