package message

import (
	"time"

	"gorm.io/gorm"
)

// Message is a contact form submission
type Message struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    *uint          `gorm:"index" json:"user_id,omitempty"`
	Name      string         `gorm:"not null;size:200" json:"name"`
	Email     string         `gorm:"not null;size:255" json:"email"`
	Subject   string         `gorm:"not null;size:255" json:"subject"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	IsRead    bool           `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Message) TableName() string {
	return "messages"
}

// RecordID identifies the row in the admin messages table
func (m Message) RecordID() uint {
	return m.ID
}

// Fields returns the columns an administrator may edit
func (m Message) Fields() map[string]any {
	return map[string]any{"is_read": m.IsRead}
}

// Patched returns a copy with changes applied
func (m Message) Patched(changes map[string]any) Message {
	if v, ok := changes["is_read"].(bool); ok {
		m.IsRead = v
	}
	return m
}
