package notifications

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"ticketpoint/internal/shared/config"
	"ticketpoint/pkg/logger"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Mailer sends one message
type Mailer interface {
	Send(ctx context.Context, msg *MailMessage) (*SendResult, error)
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// NewSMTPConfig reads the SMTP settings from the email section
func NewSMTPConfig(cfg config.EmailConfig) SMTPConfig {
	return SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
	}
}

// Validate validates SMTP configuration
func (c SMTPConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

// SMTPMailer delivers mail through an SMTP relay
type SMTPMailer struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}
	return &SMTPMailer{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg *MailMessage) (*SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), m.config.Host)
	gm := buildMessage(m.config, msg, messageID)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return nil, fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	return &SendResult{MessageID: messageID, SentAt: time.Now().UTC()}, nil
}

func buildMessage(cfg SMTPConfig, msg *MailMessage, messageID string) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("Message-ID", messageID)
	gm.SetAddressHeader("From", cfg.FromEmail, cfg.FromName)
	if msg.ToName != "" {
		gm.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		gm.SetHeader("To", msg.To)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)

	for _, a := range msg.Attachments {
		data := a.Data
		gm.Attach(a.FileName,
			gomail.Rename(a.FileName),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}
	return gm
}

// MockMailer records messages instead of sending them. Err, when set, is
// returned for every send.
type MockMailer struct {
	mu   sync.Mutex
	log  *logger.Logger
	sent []MailMessage
	Err  error
}

func NewMockMailer(log *logger.Logger) *MockMailer {
	return &MockMailer{log: log}
}

func (m *MockMailer) Send(ctx context.Context, msg *MailMessage) (*SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	m.sent = append(m.sent, *msg)

	if m.log != nil {
		m.log.InfoWithContext(ctx, "Mock email sent", map[string]interface{}{
			"to":          msg.To,
			"subject":     msg.Subject,
			"attachments": len(msg.Attachments),
		})
	}
	return &SendResult{MessageID: uuid.NewString(), SentAt: time.Now().UTC()}, nil
}

// Sent returns a copy of every recorded message
func (m *MockMailer) Sent() []MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MailMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
