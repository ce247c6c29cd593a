package db

import "time"

// Image 是文章的配图，File 为媒体存储中的相对路径。
type Image struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      uint      `gorm:"index;not null" json:"post_id"`
	File        string    `gorm:"size:255;not null" json:"file"`
	Title       string    `gorm:"size:250;not null;default:''" json:"title"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	CreatedAt   time.Time `gorm:"<-:create" json:"created"`
}
