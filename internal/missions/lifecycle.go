package missions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bighelpmob/missionhub/internal/i18n"
	"github.com/bighelpmob/missionhub/internal/validation"
)

type NotificationKind string

const (
	NotifyJoinedMission       NotificationKind = "joined_mission"
	NotifyMissionRoleApproved NotificationKind = "mission_role_approved"
)

// Notifier delivers user-directed lifecycle notifications.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, p *Participation) error
}

// Repository persists a participation together with its user changes.
type Repository interface {
	SaveParticipation(ctx context.Context, p *Participation) error
	PickupByID(ctx context.Context, missionID, pickupID int64) (*Pickup, error)
}

// Lifecycle validates, saves, and advances participations.
type Lifecycle struct {
	repo     Repository
	notifier Notifier
	roles    RoleList
	tr       *i18n.Translator
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Lifecycle)

// WithClock overrides the time source used for age checks.
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) { l.now = now }
}

func NewLifecycle(repo Repository, notifier Notifier, roles RoleList, tr *i18n.Translator, logger *slog.Logger, opts ...Option) *Lifecycle {
	if len(roles) == 0 {
		roles = DefaultRoles
	}
	l := &Lifecycle{
		repo:     repo,
		notifier: notifier,
		roles:    roles,
		tr:       tr,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lifecycle) Roles() RoleList { return l.roles }

// Validate runs the before-validation hook and the validation pipeline.
// On update, a clean participation still awaiting approval is approved.
// The returned transitions still need their side effects dispatched.
func (l *Lifecycle) Validate(p *Participation) (validation.Errors, []Transition) {
	onUpdate := !p.NewRecord()
	p.recentlyJoined = false
	p.prepare()

	errs := validator{tr: l.tr, now: l.now()}.run(p)

	var pending []Transition
	if onUpdate && errs.Empty() && (p.State == StateCreated || p.State == StateAwaitingApproval) {
		t, err := p.Fire(EventApprove)
		if err == nil {
			pending = append(pending, t)
			p.recentlyJoined = true
		}
	}
	return errs, pending
}

// Create validates and saves a new participation. It never auto-approves.
func (l *Lifecycle) Create(ctx context.Context, p *Participation) (validation.Errors, error) {
	if p.State == "" {
		p.State = StateCreated
	}
	return l.save(ctx, p)
}

// Save validates and persists p, auto-approving on update.
func (l *Lifecycle) Save(ctx context.Context, p *Participation) (validation.Errors, error) {
	return l.save(ctx, p)
}

func (l *Lifecycle) save(ctx context.Context, p *Participation) (validation.Errors, error) {
	errs, pending := l.Validate(p)
	if !errs.Empty() {
		return errs, nil
	}
	if err := l.repo.SaveParticipation(ctx, p); err != nil {
		for i := len(pending) - 1; i >= 0; i-- {
			p.State = pending[i].From
		}
		p.recentlyJoined = false
		return nil, fmt.Errorf("saving participation: %w", err)
	}
	l.dispatch(ctx, p, pending)
	return nil, nil
}

// UserAttributes are the nested user fields accepted on update.
type UserAttributes struct {
	Name        *string    `json:"name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

// UpdateAttributes are the assignable participation fields.
type UpdateAttributes struct {
	PickupID             *int64          `json:"pickupId,omitempty"`
	Answers              map[string]any  `json:"answers,omitempty"`
	User                 *UserAttributes `json:"user,omitempty"`
	Comment              *string         `json:"comment,omitempty"`
	PartakingWithFriends *bool           `json:"partakingWithFriends,omitempty"`
}

// Assign applies attrs without saving.
func (l *Lifecycle) Assign(ctx context.Context, p *Participation, attrs UpdateAttributes) error {
	if attrs.PickupID != nil {
		if *attrs.PickupID == 0 {
			p.SetPickup(nil)
		} else {
			pk, err := l.repo.PickupByID(ctx, p.MissionID, *attrs.PickupID)
			if err != nil {
				return fmt.Errorf("loading pickup %d: %w", *attrs.PickupID, err)
			}
			p.SetPickup(pk)
		}
	}
	if attrs.Answers != nil {
		p.SetAnswers(attrs.Answers)
	}
	if attrs.Comment != nil {
		p.Comment = strings.TrimSpace(*attrs.Comment)
	}
	if attrs.PartakingWithFriends != nil {
		p.PartakingWithFriends = *attrs.PartakingWithFriends
	}
	if u := attrs.User; u != nil && p.User != nil {
		if u.Name != nil {
			p.User.Name = strings.TrimSpace(*u.Name)
		}
		if u.Email != nil {
			p.User.Email = strings.TrimSpace(*u.Email)
		}
		if u.Phone != nil {
			p.User.Phone = strings.TrimSpace(*u.Phone)
		}
		if u.DateOfBirth != nil {
			dob := *u.DateOfBirth
			p.User.DateOfBirth = &dob
		}
	}
	return nil
}

// Update assigns attrs and, when performSave is set, validates and saves.
// Without performSave the returned errors are always empty.
func (l *Lifecycle) Update(ctx context.Context, p *Participation, attrs UpdateAttributes, performSave bool) (validation.Errors, error) {
	if err := l.Assign(ctx, p, attrs); err != nil {
		return nil, err
	}
	if !performSave {
		return nil, nil
	}
	return l.save(ctx, p)
}

// Fire applies an explicit admin transition, saves, and dispatches its
// side effects. Extra validation is skipped so that administrators can
// move incomplete participations.
func (l *Lifecycle) Fire(ctx context.Context, p *Participation, ev Event) error {
	t, err := p.Fire(ev)
	if err != nil {
		return err
	}
	if err := l.repo.SaveParticipation(ctx, p); err != nil {
		p.State = t.From
		return fmt.Errorf("saving participation: %w", err)
	}
	l.dispatch(ctx, p, []Transition{t})
	return nil
}

// dispatch sends the notifications attached to each transition. Failures
// are logged; the transition itself already succeeded.
func (l *Lifecycle) dispatch(ctx context.Context, p *Participation, ts []Transition) {
	for _, t := range ts {
		kind, ok := notificationFor(t)
		if !ok {
			continue
		}
		if l.notifier == nil || p.User == nil {
			continue
		}
		if err := l.notifier.Notify(ctx, kind, p); err != nil {
			l.logger.Error("notification failed",
				"kind", kind,
				"participation_id", p.ID,
				"error", err,
			)
		}
	}
}

func notificationFor(t Transition) (NotificationKind, bool) {
	switch {
	case t.From == StateCreated && t.To == StateAwaitingApproval:
		return NotifyJoinedMission, true
	case (t.From == StateCreated || t.From == StateAwaitingApproval) && t.To == StateApproved:
		return NotifyMissionRoleApproved, true
	}
	return "", false
}

// EventOption is a labelled lifecycle event for select inputs.
type EventOption struct {
	Label string `json:"label"`
	Event Event  `json:"event"`
}

const participationModel = "mission_participation"

// StateEventsForSelect returns localized labels for the events allowed
// from p's current state.
func (l *Lifecycle) StateEventsForSelect(p *Participation) []EventOption {
	events := p.AvailableEvents()
	opts := make([]EventOption, 0, len(events))
	for _, ev := range events {
		opts = append(opts, EventOption{
			Label: l.tr.T(i18n.StateEventKey(participationModel, string(ev)), i18n.Humanize(string(ev))),
			Event: ev,
		})
	}
	return opts
}

// HumanStateName is the display form of p's state.
func (l *Lifecycle) HumanStateName(p *Participation) string {
	return l.tr.T(i18n.StateKey(participationModel, string(p.State)), i18n.Humanize(string(p.State)))
}

// HumanizedPickup describes the pickup assignment for display.
func (l *Lifecycle) HumanizedPickup(p *Participation) string {
	if !p.Sidekick() {
		return l.tr.T(i18n.KeyPickupNotApplies, "Not applicable")
	}
	if p.Pickup == nil {
		return l.tr.T(i18n.KeyPickupNotYetSet, "Not yet set")
	}
	return p.Pickup.Name
}
