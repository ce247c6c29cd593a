package service

import (
	"context"
	"strings"

	"github.com/newshub/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TicketSubjects 是工单主题的可选值，顺序与表单一致。
var TicketSubjects = []db.TicketSubject{db.SubjectSuggestion, db.SubjectCriticism, db.SubjectReport}

// TicketService stores visitor feedback.
type TicketService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// TicketInput 是工单表单，phone 只允许数字且不超过 11 位。
type TicketInput struct {
	Message string `json:"message" form:"message" validate:"required"`
	Name    string `json:"name" form:"name" validate:"required,max=250"`
	Email   string `json:"email" form:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone" form:"phone" validate:"required,max=11,digits"`
	Subject string `json:"subject" form:"subject" validate:"required,oneof=suggestion criticism report"`
}

func NewTicketService(gdb *gorm.DB, logger *zap.Logger) *TicketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{db: gdb, logger: logger}
}

// Create validates the form and persists a ticket; nothing is written on validation failure.
func (s *TicketService) Create(ctx context.Context, input TicketInput) (*db.Ticket, error) {
	input.Message = strings.TrimSpace(input.Message)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Subject = strings.ToLower(strings.TrimSpace(input.Subject))

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	ticket := db.Ticket{
		Message: input.Message,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Subject: db.TicketSubject(input.Subject),
	}
	if err := s.db.WithContext(ctx).Create(&ticket).Error; err != nil {
		return nil, err
	}
	s.logger.Info("ticket submitted", zap.Uint("ticket_id", ticket.ID), zap.String("subject", input.Subject))
	return &ticket, nil
}
