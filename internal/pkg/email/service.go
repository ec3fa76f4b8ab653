// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/config"
)

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
<div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
<h1 style="color: #333;">{{.SiteName}}</h1>
{{template "content" .}}
<hr>
<p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}. All rights reserved.</p>
</div>
</body>
</html>`

var contents = map[EmailType]string{
	EmailTypeWelcome: `{{define "content"}}<p>Hello {{.UserName}},</p>
<p>Welcome to {{.SiteName}}. Your account is ready and your cart will follow you on every device.</p>
<p><a href="{{.SiteURL}}">Start shopping</a></p>{{end}}`,
	EmailTypeOrderConfirmation: `{{define "content"}}<p>Hello {{.UserName}},</p>
<p>Thank you for your order <strong>{{.OrderNumber}}</strong> placed on {{.OrderDate}}.</p>
<table style="width: 100%;">{{range .Items}}<tr><td>{{.Name}}{{if .Size}} ({{.Size}}){{end}}</td><td>x{{.Quantity}}</td><td>{{.Total}}</td></tr>{{end}}</table>
<p>Total: <strong>{{.OrderTotal}}</strong><br>Payment: {{.PaymentMethod}}</p>
<p>Shipping to: {{.ShippingAddress}}</p>
<p><a href="{{.OrderURL}}">View your order</a></p>{{end}}`,
	EmailTypeOrderStatusUpdate: `{{define "content"}}<p>Hello {{.UserName}},</p>
<p>Your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
<p><a href="{{.OrderURL}}">View your order</a></p>{{end}}`,
	EmailTypeMessageReceived: `{{define "content"}}<p>Hello {{.UserName}},</p>
<p>We received your message "{{.Subject}}" and will get back to you shortly.</p>{{end}}`,
	EmailTypeMessageNotification: `{{define "content"}}<p>New contact message from {{.UserName}} &lt;{{.UserEmail}}&gt;</p>
<p><strong>{{.Subject}}</strong></p><p>{{.Body}}</p>{{end}}`,
}

// EmailService renders templates and hands messages to the configured sender
type EmailService struct {
	config    *config.Config
	sender    Sender
	templates map[EmailType]*template.Template
}

// NewEmailService creates a new email service. Unknown or misconfigured
// providers fall back to logging the message.
func NewEmailService(cfg *config.Config, logger *logrus.Logger) *EmailService {
	var (
		sender Sender
		err    error
	)
	switch cfg.External.Email.Provider {
	case "smtp":
		sender, err = newSMTPSender(cfg.External.Email)
	case "sendgrid":
		sender, err = newSendGridSender(cfg.External.Email)
	}
	if sender == nil || err != nil {
		if err != nil {
			logger.WithError(err).Warn("Email provider unavailable, logging emails instead")
		}
		sender = NewLogSender(logger)
	}
	return NewEmailServiceWithSender(cfg, sender)
}

// NewEmailServiceWithSender creates a service around an explicit sender
func NewEmailServiceWithSender(cfg *config.Config, sender Sender) *EmailService {
	templates := make(map[EmailType]*template.Template, len(contents))
	for kind, body := range contents {
		templates[kind] = template.Must(template.Must(template.New(string(kind)).Parse(layout)).Parse(body))
	}
	return &EmailService{config: cfg, sender: sender, templates: templates}
}

// SendEmail sends an already rendered email
func (s *EmailService) SendEmail(ctx context.Context, email *Email) error {
	return s.sender.Send(ctx, email)
}

// SendWelcomeEmail sends a welcome email to new users
func (s *EmailService) SendWelcomeEmail(ctx context.Context, userEmail, userName string) error {
	data := s.base(userName, userEmail)
	return s.send(ctx, EmailTypeWelcome, []string{userEmail}, fmt.Sprintf("Welcome to %s!", data.SiteName), data, nil)
}

// SendOrderConfirmationEmail sends order confirmation email
func (s *EmailService) SendOrderConfirmationEmail(ctx context.Context, data OrderConfirmationData) error {
	data.EmailTemplateData = s.base(data.UserName, data.UserEmail)
	return s.send(ctx, EmailTypeOrderConfirmation, []string{data.UserEmail},
		fmt.Sprintf("Order Confirmation - %s", data.OrderNumber), data,
		map[string]interface{}{"order_number": data.OrderNumber, "order_total": data.OrderTotal})
}

// SendOrderStatusUpdateEmail tells a customer their order moved on
func (s *EmailService) SendOrderStatusUpdateEmail(ctx context.Context, data OrderStatusUpdateData) error {
	data.EmailTemplateData = s.base(data.UserName, data.UserEmail)
	return s.send(ctx, EmailTypeOrderStatusUpdate, []string{data.UserEmail},
		fmt.Sprintf("Order %s is %s", data.OrderNumber, data.Status), data,
		map[string]interface{}{"order_number": data.OrderNumber, "status": data.Status})
}

// SendMessageAcknowledgement confirms receipt of a contact message and
// notifies the shop inbox when one is configured.
func (s *EmailService) SendMessageAcknowledgement(ctx context.Context, data MessageData) error {
	data.EmailTemplateData = s.base(data.UserName, data.UserEmail)
	if err := s.send(ctx, EmailTypeMessageReceived, []string{data.UserEmail},
		"We received your message", data, nil); err != nil {
		return err
	}

	admin := s.config.External.Email.AdminEmail
	if admin == "" {
		return nil
	}
	email, err := s.render(EmailTypeMessageNotification, []string{admin}, "New contact message: "+data.Subject, data, nil)
	if err != nil {
		return err
	}
	email.ReplyTo = data.UserEmail
	return s.sender.Send(ctx, email)
}

func (s *EmailService) base(userName, userEmail string) EmailTemplateData {
	return GetBaseTemplateData(s.config.App.Name, s.config.App.BaseURL, userName, userEmail)
}

func (s *EmailService) send(ctx context.Context, kind EmailType, to []string, subject string, data interface{}, meta map[string]interface{}) error {
	email, err := s.render(kind, to, subject, data, meta)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, email)
}

func (s *EmailService) render(kind EmailType, to []string, subject string, data interface{}, meta map[string]interface{}) (*Email, error) {
	tmpl, exists := s.templates[kind]
	if !exists {
		return nil, fmt.Errorf("template %s not found", kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", kind, err)
	}

	return &Email{
		To:          to,
		Subject:     subject,
		HTMLContent: buf.String(),
		Type:        kind,
		Data:        meta,
	}, nil
}

// LogSender writes emails to the log instead of delivering them
type LogSender struct {
	logger *logrus.Logger
}

// NewLogSender creates a sender for development environments
func NewLogSender(logger *logrus.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements Sender
func (l *LogSender) Send(_ context.Context, email *Email) error {
	l.logger.WithFields(logrus.Fields{
		"to":      email.To,
		"subject": email.Subject,
		"type":    email.Type,
	}).Info("Email not delivered, no provider configured")
	return nil
}
