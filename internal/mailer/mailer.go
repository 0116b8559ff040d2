// Package mailer turns queued admin messages into outgoing mail.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bighelpmob/missionhub/internal/email"
)

// DefaultBatchSize is the number of BCC addresses per bulk send.
const DefaultBatchSize = 50

// Mail is a single outgoing message.
type Mail struct {
	To      []string
	Bcc     []string
	Subject string
	HTML    string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, m Mail) error
}

type Mailer struct {
	sender    Sender
	from      string
	batchSize int
	logger    *slog.Logger
}

func New(sender Sender, from string, logger *slog.Logger) *Mailer {
	return &Mailer{sender: sender, from: from, batchSize: DefaultBatchSize, logger: logger}
}

// DeliverBulk sends one copy of msg to every address, hidden in BCC
// batches addressed to the sender. Addresses in failed batches come back
// in an *email.UndeliveredError.
func (m *Mailer) DeliverBulk(ctx context.Context, msg email.BulkMessage) error {
	var (
		failed []string
		errs   []error
	)
	for start := 0; start < len(msg.Emails); start += m.batchSize {
		end := min(start+m.batchSize, len(msg.Emails))
		err := m.sender.Send(ctx, Mail{
			To:      []string{m.from},
			Bcc:     msg.Emails[start:end],
			Subject: msg.Subject,
			HTML:    msg.HTMLContent,
			Text:    msg.TextContent,
		})
		if err != nil {
			failed = append(failed, msg.Emails[start:end]...)
			errs = append(errs, fmt.Errorf("sending batch %d-%d: %w", start, end, err))
		}
	}
	m.logger.Info("bulk email sent", "subject", msg.Subject, "recipients", len(msg.Emails), "failed", len(failed))
	if len(errs) > 0 {
		return &email.UndeliveredError{Emails: failed, Err: errors.Join(errs...)}
	}
	return nil
}

// DeliverTemplated renders msg for each recipient and sends it. A
// recipient whose template fails to render is skipped. Recipients whose
// send failed come back in an *email.UndeliveredError.
func (m *Mailer) DeliverTemplated(ctx context.Context, msg email.TemplatedMessage) error {
	tpl, err := email.ParseTemplates(msg.Subject, msg.TextContent, msg.HTMLContent)
	if err != nil {
		return err
	}

	var (
		failed []email.Recipient
		errs   []error
	)
	sent := 0
	for _, r := range msg.Recipients {
		if r.User.Email == "" {
			continue
		}
		out, err := tpl.Render(r)
		if err != nil {
			m.logger.Warn("skipping recipient", "user_id", r.User.ID, "error", err)
			continue
		}
		err = m.sender.Send(ctx, Mail{
			To:      []string{r.User.Email},
			Subject: out.Subject,
			HTML:    out.HTML,
			Text:    out.Text,
		})
		if err != nil {
			failed = append(failed, r)
			errs = append(errs, fmt.Errorf("sending to user %d: %w", r.User.ID, err))
			continue
		}
		sent++
	}
	m.logger.Info("templated email sent", "subject", msg.Subject, "sent", sent, "failed", len(failed), "recipients", len(msg.Recipients))
	if len(errs) > 0 {
		return &email.UndeliveredError{Recipients: failed, Err: errors.Join(errs...)}
	}
	return nil
}
