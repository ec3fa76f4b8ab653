package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/pkg/email"
	"gorm.io/gorm"
)

// SubmitRequest is the contact form
type SubmitRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required,max=255"`
	Body    string `json:"body" binding:"required,max=5000"`
}

// Service stores contact messages
type Service struct {
	db           *gorm.DB
	emailService *email.EmailService
	logger       *logrus.Logger
}

// NewService creates a message service
func NewService(db *gorm.DB, emailService *email.EmailService, logger *logrus.Logger) *Service {
	return &Service{db: db, emailService: emailService, logger: logger}
}

// Submit stores a message and acknowledges it by email. userID is nil for
// anonymous visitors.
func (s *Service) Submit(ctx context.Context, userID *uint, req *SubmitRequest) (*Message, error) {
	msg := Message{
		UserID:  userID,
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Subject: strings.TrimSpace(req.Subject),
		Body:    strings.TrimSpace(req.Body),
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	if s.emailService != nil {
		err := s.emailService.SendMessageAcknowledgement(ctx, email.MessageData{
			EmailTemplateData: email.EmailTemplateData{UserName: msg.Name, UserEmail: msg.Email},
			Subject:           msg.Subject,
			Body:              msg.Body,
		})
		if err != nil {
			s.logger.WithError(err).WithField("message_id", msg.ID).Warn("Failed to send message acknowledgement")
		}
	}
	return &msg, nil
}

// CountUnread returns the number of unread messages
func (s *Service) CountUnread(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Message{}).Where("is_read = ?", false).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}
