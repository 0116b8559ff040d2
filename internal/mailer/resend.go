package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type emailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender delivers through the Resend API.
type ResendSender struct {
	emails emailsAPI
	from   string
	logger *slog.Logger
}

func NewResendSender(apiKey, from string, logger *slog.Logger) *ResendSender {
	return &ResendSender{emails: resend.NewClient(apiKey).Emails, from: from, logger: logger}
}

func (s *ResendSender) Send(ctx context.Context, m Mail) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      m.To,
		Bcc:     m.Bcc,
		Subject: m.Subject,
		Html:    m.HTML,
		Text:    m.Text,
	}
	sent, err := s.emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	s.logger.Debug("email accepted by resend", "id", sent.Id, "to", len(m.To), "bcc", len(m.Bcc))
	return nil
}

// LogSender only logs what would be sent. Used when no API key is set.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, m Mail) error {
	s.logger.Info("email not sent, no provider configured",
		"subject", m.Subject,
		"to", m.To,
		"bcc", len(m.Bcc),
	)
	return nil
}
