package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/newsboard/newsboard/internal/config"
	"github.com/resend/resend-go/v2"
)

// Message is a plain text email.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
}

// Sender delivers a message to a single address.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender picks the transport configured by EMAIL_PROVIDER.
func NewSender(cfg *config.Config) (Sender, error) {
	switch cfg.EmailProvider {
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
		}
		return &ResendSender{client: resend.NewClient(cfg.ResendAPIKey)}, nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("email service not configured (missing SMTP_HOST)")
		}
		return &SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}, nil
	case "", "log":
		return LogSender{}, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
	}
}

type ResendSender struct {
	client *resend.Client
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	return err
}

type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	var auth smtp.Auth
	if s.Username != "" && s.Password != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	addr := s.Host + ":" + strconv.Itoa(s.Port)
	body := []byte(
		"From: " + msg.From + "\r\n" +
			"To: " + msg.To + "\r\n" +
			"Subject: " + mimeHeader(msg.Subject) + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			msg.Text,
	)

	// net/smtp has no context support; run it aside and stop waiting on cancel
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, msg.From, []string{msg.To}, body)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender prints messages instead of delivering them (development).
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	slog.Info("email sent (dev mode)", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}

// mimeHeader encodes non-ASCII header text as RFC 2047 base64.
func mimeHeader(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

type EmailService struct {
	sender    Sender
	fromEmail string
	appName   string
	timeout   time.Duration
}

func NewEmailService(sender Sender, fromEmail, appName string) *EmailService {
	return &EmailService{
		sender:    sender,
		fromEmail: fromEmail,
		appName:   appName,
		timeout:   30 * time.Second,
	}
}

// SendOTP mails the one-time code to the administrator.
func (s *EmailService) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	subject, body := otpEmailTemplate(code, ttl, s.appName)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.sender.Send(ctx, Message{
		From:    s.fromEmail,
		To:      to,
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	slog.Info("email sent", "type", "otp", "to", maskEmail(to))
	return nil
}

// maskEmail keeps the first character of the local part for logs.
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
