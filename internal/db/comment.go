package db

import "time"

// Comment 是读者对文章的评论，Active 为 true 前不会公开展示。
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index:idx_comments_post_active,priority:1;not null" json:"post_id"`
	Name      string    `gorm:"size:250;not null" json:"name"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"<-:create;index" json:"created"`
	UpdatedAt time.Time `json:"updated"`
	Active    bool      `gorm:"not null;default:false;index:idx_comments_post_active,priority:2" json:"active"`
}
