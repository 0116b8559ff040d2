package email

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/bighelpmob/missionhub/internal/i18n"
	"github.com/bighelpmob/missionhub/internal/missions"
	"github.com/bighelpmob/missionhub/internal/validation"
)

// Recipient is one addressee with the context a template may render.
type Recipient struct {
	User          missions.User           `json:"user"`
	Participation *missions.Participation `json:"participation,omitempty"`
}

// BulkMessage goes out once to every address.
type BulkMessage struct {
	Subject     string   `json:"subject"`
	HTMLContent string   `json:"html_content"`
	TextContent string   `json:"text_content"`
	Emails      []string `json:"emails"`
}

// TemplatedMessage is rendered separately for each recipient.
type TemplatedMessage struct {
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"html_content"`
	TextContent string      `json:"text_content"`
	Recipients  []Recipient `json:"recipients"`
}

// Audience resolves the users a scope selects. ParticipationFor returns
// nil without error when the user has no participation in the mission.
type Audience interface {
	Users(ctx context.Context, scope ScopeType, f missions.Filter) ([]missions.User, error)
	ParticipationFor(ctx context.Context, userID, missionID int64) (*missions.Participation, error)
}

// Delivery hands messages off; it does not wait for them to be sent.
type Delivery interface {
	QueueBulk(ctx context.Context, msg BulkMessage) error
	QueueTemplated(ctx context.Context, msg TemplatedMessage) error
}

type Composer struct {
	audience Audience
	delivery Delivery
	roles    missions.RoleList
	tr       *i18n.Translator
	logger   *slog.Logger
}

func NewComposer(audience Audience, delivery Delivery, roles missions.RoleList, tr *i18n.Translator, logger *slog.Logger) *Composer {
	if len(roles) == 0 {
		roles = missions.DefaultRoles
	}
	return &Composer{audience: audience, delivery: delivery, roles: roles, tr: tr, logger: logger}
}

// Users returns the audience of m. Any scope other than filtered
// participations selects every user.
func (c *Composer) Users(ctx context.Context, m *Message) ([]missions.User, error) {
	scope := m.ScopeType
	if scope != ScopeFilteredParticipations {
		scope = ScopeAllUsers
	}
	users, err := c.audience.Users(ctx, scope, m.Filter.Normalize(c.roles))
	if err != nil {
		return nil, fmt.Errorf("resolving audience: %w", err)
	}
	return users, nil
}

func (c *Composer) UserCount(ctx context.Context, m *Message) (int, error) {
	users, err := c.Users(ctx, m)
	return len(users), err
}

// Emails returns the unique addresses of the audience in audience order.
func (c *Composer) Emails(ctx context.Context, m *Message) ([]string, error) {
	users, err := c.Users(ctx, m)
	if err != nil {
		return nil, err
	}
	var emails []string
	for _, u := range users {
		addr := strings.TrimSpace(u.Email)
		if addr != "" && !slices.Contains(emails, addr) {
			emails = append(emails, addr)
		}
	}
	return emails, nil
}

// EachUserWithScope calls fn with every audience member and its template
// context. For participation scopes with a mission, the context includes
// that user's participation in the mission.
func (c *Composer) EachUserWithScope(ctx context.Context, m *Message, fn func(Recipient) error) error {
	users, err := c.Users(ctx, m)
	if err != nil {
		return err
	}
	for _, u := range users {
		r := Recipient{User: u}
		if m.ScopeType == ScopeFilteredParticipations && m.Filter.MissionID != 0 {
			p, err := c.audience.ParticipationFor(ctx, u.ID, m.Filter.MissionID)
			if err != nil {
				return fmt.Errorf("loading participation for user %d: %w", u.ID, err)
			}
			r.Participation = p
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Validate runs every rule. The error return is for audience lookup
// failures only.
func (c *Composer) Validate(ctx context.Context, m *Message) (validation.Errors, error) {
	var errs validation.Errors

	if strings.TrimSpace(m.Subject) == "" {
		errs.Add("subject", validation.CodeBlank, c.tr.T(i18n.KeyBlank, "can't be blank"))
	}
	if !m.ScopeType.Valid() {
		errs.Add("scope_type", validation.CodeInclusion, c.tr.T(i18n.KeyInclusion, "is not included in the list"))
	}
	if strings.TrimSpace(m.HTMLContent) == "" && strings.TrimSpace(m.TextContent) == "" {
		msg := c.tr.T(i18n.KeyEmailContent, "at least one content section must be filled in")
		errs.Add("html_content", validation.CodeBlank, msg)
		errs.Add("text_content", validation.CodeBlank, msg)
	}
	if m.Templated() {
		for _, te := range templateErrors(m) {
			errs.Add(te.Field, validation.CodeInvalid, c.tr.T(i18n.KeyEmailTemplate, "has placeholders that can't be filled in: %v", te.Err))
		}
	}
	count, err := c.UserCount(ctx, m)
	if err != nil {
		return nil, err
	}
	if count < 1 {
		errs.AddBase(c.tr.T(i18n.KeyEmailNoUsers, "There must be at least one user"))
	}
	if !m.IsConfirmed() {
		errs.Add("confirmed", validation.CodeAccepted, c.tr.T(i18n.KeyEmailConfirmed, "please confirm the email choice to continue"))
	}
	return errs, nil
}

// ValidOtherThanConfirmed reports whether confirmation is the only thing
// standing between errs and a valid message.
func ValidOtherThanConfirmed(errs validation.Errors) bool {
	fields := errs.Fields()
	return len(fields) == 1 && fields[0] == "confirmed"
}

// Save validates m and, when valid, hands it to a delivery path. It
// reports whether the message was dispatched.
func (c *Composer) Save(ctx context.Context, m *Message) (bool, validation.Errors, error) {
	errs, err := c.Validate(ctx, m)
	if err != nil {
		return false, nil, err
	}
	if !errs.Empty() {
		return false, errs, nil
	}
	if err := c.dispatch(ctx, m); err != nil {
		return false, nil, err
	}
	return true, nil, nil
}

func (c *Composer) dispatch(ctx context.Context, m *Message) error {
	if m.Templated() {
		msg := TemplatedMessage{Subject: m.Subject, HTMLContent: m.HTMLContent, TextContent: m.TextContent}
		err := c.EachUserWithScope(ctx, m, func(r Recipient) error {
			msg.Recipients = append(msg.Recipients, r)
			return nil
		})
		if err != nil {
			return err
		}
		c.logger.Debug("queueing templated email", "subject", m.Subject, "scope", m.ScopeType, "recipients", len(msg.Recipients))
		if err := c.delivery.QueueTemplated(ctx, msg); err != nil {
			return fmt.Errorf("queueing templated email: %w", err)
		}
		return nil
	}

	emails, err := c.Emails(ctx, m)
	if err != nil {
		return err
	}
	c.logger.Debug("queueing bulk email", "subject", m.Subject, "scope", m.ScopeType, "recipients", len(emails))
	if err := c.delivery.QueueBulk(ctx, BulkMessage{
		Subject:     m.Subject,
		HTMLContent: m.HTMLContent,
		TextContent: m.TextContent,
		Emails:      emails,
	}); err != nil {
		return fmt.Errorf("queueing bulk email: %w", err)
	}
	return nil
}
