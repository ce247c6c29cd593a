package db

import "time"

// TicketSubject 工单主题的可选值。
type TicketSubject string

const (
	SubjectSuggestion TicketSubject = "suggestion"
	SubjectCriticism  TicketSubject = "criticism"
	SubjectReport     TicketSubject = "report"
)

// Ticket 是访客提交的反馈工单，与文章无关联。
type Ticket struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Message   string        `gorm:"type:text;not null" json:"message"`
	Name      string        `gorm:"size:250;not null" json:"name"`
	Email     string        `gorm:"size:254;not null" json:"email"`
	Phone     string        `gorm:"size:11;not null" json:"phone"`
	Subject   TicketSubject `gorm:"size:32;not null" json:"subject"`
	CreatedAt time.Time     `gorm:"<-:create" json:"created"`
}
