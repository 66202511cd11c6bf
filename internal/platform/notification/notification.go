// Package notification provides Email/SMS delivery with template rendering,
// used for one-time login codes and patient-facing messages.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NotificationType represents the channel used to deliver a notification.
type NotificationType string

const (
	TypeEmail NotificationType = "email"
	TypeSMS   NotificationType = "sms"
)

// Notification represents a single outbound notification.
type Notification struct {
	ID           string            `json:"id"`
	Type         NotificationType  `json:"type"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender is the interface for sending SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Subject string           `json:"subject"`
	Body    string           `json:"body"`
	Type    NotificationType `json:"type"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "otp-email",
			Name:    "Login Verification Code (Email)",
			Subject: "CLICARE - Your Verification Code",
			Body:    "Hello {{patient_name}}, your verification code is {{code}}. This code will expire in 5 minutes. If you didn't request this code, please ignore this email.",
			Type:    TypeEmail,
		},
		{
			ID:      "otp-sms",
			Name:    "Login Verification Code (SMS)",
			Subject: "",
			Body:    "CLICARE: Your verification code is {{code}}. Valid for 5 minutes. Do not share this code.",
			Type:    TypeSMS,
		},
		{
			ID:      "lab-result-ready",
			Name:    "Lab Result Ready",
			Subject: "Your Lab Results Are Ready",
			Body:    "Dear {{patient_name}}, your {{test_type}} results are now available. Please log in to view them.",
			Type:    TypeEmail,
		},
		{
			ID:      "visit-summary",
			Name:    "Visit Summary",
			Subject: "Visit Summary for {{patient_name}}",
			Body:    "Dear {{patient_name}}, here is a summary of your visit on {{visit_date}}: {{summary}}",
			Type:    TypeEmail,
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// templateType returns the channel a template delivers on.
func (e *TemplateEngine) templateType(templateID string) (NotificationType, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.templates[templateID]
	if !ok {
		return "", false
	}
	return t.Type, true
}

// Notifier orchestrates sending and in-memory recording of notifications.
type Notifier struct {
	emailSender   EmailSender
	smsSender     SMSSender
	templates     *TemplateEngine
	mu            sync.RWMutex
	notifications map[string]*Notification
}

// NewNotifier constructs a Notifier.
func NewNotifier(email EmailSender, sms SMSSender, tpl *TemplateEngine) *Notifier {
	return &Notifier{
		emailSender:   email,
		smsSender:     sms,
		templates:     tpl,
		notifications: make(map[string]*Notification),
	}
}

// Send dispatches a notification through the appropriate channel, assigns an ID
// and timestamps, and records the result in-memory.
func (n *Notifier) Send(ctx context.Context, msg *Notification) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now().UTC()
	msg.Status = "pending"

	var sendErr error
	switch msg.Type {
	case TypeEmail:
		if n.emailSender == nil {
			sendErr = errors.New("email sender not configured")
		} else {
			sendErr = n.emailSender.SendEmail(ctx, msg.Recipient, msg.Subject, msg.Body)
		}
	case TypeSMS:
		if n.smsSender == nil {
			sendErr = errors.New("sms sender not configured")
		} else {
			sendErr = n.smsSender.SendSMS(ctx, msg.Recipient, msg.Body)
		}
	default:
		sendErr = fmt.Errorf("unsupported notification type: %s", msg.Type)
	}

	if sendErr != nil {
		msg.Status = "failed"
		msg.Error = sendErr.Error()
	} else {
		msg.Status = "sent"
		sentAt := time.Now().UTC()
		msg.SentAt = &sentAt
	}

	n.mu.Lock()
	n.notifications[msg.ID] = msg
	n.mu.Unlock()

	return sendErr
}

// SendFromTemplate renders a template and sends the resulting notification.
func (n *Notifier) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	subject, body, err := n.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	nType, _ := n.templates.templateType(templateID)

	msg := &Notification{
		Type:         nType,
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
	}

	if err := n.Send(ctx, msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// Get retrieves a recorded notification by ID.
func (n *Notifier) Get(id string) (*Notification, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	msg, ok := n.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification %q not found", id)
	}
	return msg, nil
}

// Stats returns counts of recorded notifications grouped by status.
func (n *Notifier) Stats() map[string]int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	stats := make(map[string]int)
	for _, msg := range n.notifications {
		stats[msg.Status]++
	}
	return stats
}
