// internal/pkg/email/types.go
package email

import (
	"context"
	"time"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeWelcome             EmailType = "welcome"
	EmailTypeOrderConfirmation   EmailType = "order_confirmation"
	EmailTypeOrderStatusUpdate   EmailType = "order_status_update"
	EmailTypeMessageReceived     EmailType = "message_received"
	EmailTypeMessageNotification EmailType = "message_notification"
)

// Email represents an email message
type Email struct {
	To          []string               `json:"to"`
	ReplyTo     string                 `json:"reply_to,omitempty"`
	Subject     string                 `json:"subject"`
	HTMLContent string                 `json:"html_content"`
	TextContent string                 `json:"text_content,omitempty"`
	Type        EmailType              `json:"type"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Sender delivers a rendered email through one provider
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// EmailTemplateData contains common data for all email templates
type EmailTemplateData struct {
	SiteName  string `json:"site_name"`
	SiteURL   string `json:"site_url"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Year      int    `json:"year"`
}

// OrderConfirmationData contains data for order confirmation email
type OrderConfirmationData struct {
	EmailTemplateData
	OrderNumber     string      `json:"order_number"`
	OrderDate       string      `json:"order_date"`
	OrderTotal      string      `json:"order_total"`
	OrderURL        string      `json:"order_url"`
	PaymentMethod   string      `json:"payment_method"`
	Items           []OrderItem `json:"items"`
	ShippingAddress string      `json:"shipping_address"`
}

// OrderItem represents an item in the order
type OrderItem struct {
	Name     string `json:"name"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
}

// OrderStatusUpdateData contains data for order status updates
type OrderStatusUpdateData struct {
	EmailTemplateData
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	OrderURL    string `json:"order_url"`
}

// MessageData describes a contact message for acknowledgement and notification emails
type MessageData struct {
	EmailTemplateData
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// GetBaseTemplateData returns common template data
func GetBaseTemplateData(siteName, siteURL, userName, userEmail string) EmailTemplateData {
	return EmailTemplateData{
		SiteName:  siteName,
		SiteURL:   siteURL,
		UserName:  userName,
		UserEmail: userEmail,
		Year:      time.Now().Year(),
	}
}
