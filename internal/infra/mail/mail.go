// Package mail delivers transactional email through Resend, SMTP or the log.
package mail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/resend/resend-go/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

func New(cfg *config.Config, log *zap.Logger) (Mailer, error) {
	switch cfg.Mail.Provider {
	case "resend":
		httpClient := &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
		client := resend.NewCustomClient(httpClient, cfg.Mail.ResendAPIKey)
		return &resendMailer{emails: client.Emails, from: cfg.Mail.From}, nil
	case "smtp":
		d := gomail.NewDialer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUser, cfg.Mail.SMTPPassword)
		return &smtpMailer{dialer: d, from: cfg.Mail.From}, nil
	case "log", "":
		return &logMailer{log: log}, nil
	default:
		return nil, fmt.Errorf("mail: unknown provider %q", cfg.Mail.Provider)
	}
}

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type resendMailer struct {
	emails emailSender
	from   string
}

func (m *resendMailer) Send(ctx context.Context, msg Message) error {
	_, err := m.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend to %s: %w", msg.To, err)
	}
	return nil
}

type smtpSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpMailer struct {
	dialer smtpSender
	from   string
}

// Send ignores ctx cancellation once the SMTP dial has started.
func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp to %s: %w", msg.To, err)
	}
	return nil
}

type logMailer struct {
	log *zap.Logger
}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("mail (log provider)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)))
	return nil
}
