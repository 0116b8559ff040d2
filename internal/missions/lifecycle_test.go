package missions

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bighelpmob/missionhub/internal/i18n"
	"github.com/bighelpmob/missionhub/internal/validation"
)

type fakeRepo struct {
	nextID  int64
	saves   int
	failing bool
	pickups map[int64]*Pickup
}

func (r *fakeRepo) SaveParticipation(_ context.Context, p *Participation) error {
	if r.failing {
		return errors.New("disk full")
	}
	r.saves++
	if p.ID == 0 {
		r.nextID++
		p.ID = r.nextID
	}
	return nil
}

func (r *fakeRepo) PickupByID(_ context.Context, _ int64, id int64) (*Pickup, error) {
	pk, ok := r.pickups[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return pk, nil
}

type sentNotification struct {
	kind            NotificationKind
	participationID int64
}

type fakeNotifier struct{ sent []sentNotification }

func (n *fakeNotifier) Notify(_ context.Context, kind NotificationKind, p *Participation) error {
	n.sent = append(n.sent, sentNotification{kind, p.ID})
	return nil
}

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestLifecycle() (*Lifecycle, *fakeRepo, *fakeNotifier) {
	repo := &fakeRepo{pickups: map[int64]*Pickup{7: {ID: 7, MissionID: 1, Name: "Central Station"}}}
	notifier := &fakeNotifier{}
	l := NewLifecycle(repo, notifier, DefaultRoles, i18n.New("en"), slog.Default(), WithClock(func() time.Time { return fixedNow }))
	return l, repo, notifier
}

func born(years int) *time.Time {
	t := fixedNow.AddDate(-years, 0, -1)
	return &t
}

func intPtr(n int) *int { return &n }

func validUser() *User {
	return &User{ID: 42, Name: "Ana", Email: "ana@example.com", DateOfBirth: born(20)}
}

func TestCreateNeverAutoApproves(t *testing.T) {
	l, repo, notifier := newTestLifecycle()

	for _, state := range []State{StateCreated, StateAwaitingApproval} {
		p := NewParticipation(validUser(), &Mission{ID: 1})
		p.State = state

		errs, err := l.Create(context.Background(), p)
		if err != nil || !errs.Empty() {
			t.Fatalf("create: errs=%v err=%v", errs, err)
		}
		if p.State != state {
			t.Errorf("create moved %s to %s", state, p.State)
		}
		if p.RecentlyJoined() {
			t.Error("create must not flag recently joined")
		}
	}
	if repo.saves != 2 {
		t.Errorf("expected 2 saves, got %d", repo.saves)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("expected no notifications, got %v", notifier.sent)
	}
}

func TestUpdateAutoApproves(t *testing.T) {
	for _, state := range []State{StateCreated, StateAwaitingApproval} {
		t.Run(string(state), func(t *testing.T) {
			l, _, notifier := newTestLifecycle()
			p := NewParticipation(validUser(), &Mission{ID: 1})
			p.ID = 5
			p.State = state

			errs, err := l.Update(context.Background(), p, UpdateAttributes{}, true)
			if err != nil || !errs.Empty() {
				t.Fatalf("update: errs=%v err=%v", errs, err)
			}
			if p.State != StateApproved {
				t.Errorf("state = %q, want approved", p.State)
			}
			if !p.RecentlyJoined() {
				t.Error("expected recently joined flag")
			}
			if len(notifier.sent) != 1 || notifier.sent[0].kind != NotifyMissionRoleApproved {
				t.Errorf("expected role approved notification, got %v", notifier.sent)
			}
		})
	}
}

func TestUpdateWithErrorsDoesNotApprove(t *testing.T) {
	l, repo, notifier := newTestLifecycle()
	p := NewParticipation(validUser(), &Mission{ID: 1})
	p.ID = 5
	p.SetRoleName(DefaultRoles, RoleSidekick)

	errs, err := l.Save(context.Background(), p)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !errs.Has("pickup", validation.CodeBlank) {
		t.Errorf("expected pickup blank error, got %v", errs)
	}
	if p.State != StateCreated || p.RecentlyJoined() {
		t.Errorf("state = %q recently=%v, want untouched", p.State, p.RecentlyJoined())
	}
	if repo.saves != 0 || len(notifier.sent) != 0 {
		t.Error("invalid participation must not be saved or notified")
	}
}

func TestUpdateLeavesApprovedAlone(t *testing.T) {
	l, _, notifier := newTestLifecycle()
	p := NewParticipation(validUser(), &Mission{ID: 1})
	p.ID = 5
	p.State = StateCompleted

	if errs, err := l.Save(context.Background(), p); err != nil || !errs.Empty() {
		t.Fatalf("save: errs=%v err=%v", errs, err)
	}
	if p.State != StateCompleted || p.RecentlyJoined() {
		t.Errorf("completed participation changed: %q", p.State)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("unexpected notifications: %v", notifier.sent)
	}
}

func TestSaveFailureRevertsAutoApprove(t *testing.T) {
	l, repo, notifier := newTestLifecycle()
	repo.failing = true
	p := NewParticipation(validUser(), &Mission{ID: 1})
	p.ID = 5

	if _, err := l.Save(context.Background(), p); err == nil {
		t.Fatal("expected save error")
	}
	if p.State != StateCreated || p.RecentlyJoined() {
		t.Errorf("state = %q, want reverted to created", p.State)
	}
	if len(notifier.sent) != 0 {
		t.Error("failed save must not notify")
	}
}

func TestUpdateWithoutSave(t *testing.T) {
	l, repo, _ := newTestLifecycle()
	p := NewParticipation(validUser(), &Mission{ID: 1})
	p.ID = 5
	pickup := int64(7)
	comment := "  bringing snacks "

	errs, err := l.Update(context.Background(), p, UpdateAttributes{PickupID: &pickup, Comment: &comment}, false)
	if err != nil || !errs.Empty() {
		t.Fatalf("update: errs=%v err=%v", errs, err)
	}
	if repo.saves != 0 {
		t.Error("performSave=false must not save")
	}
	if p.Pickup == nil || p.Pickup.Name != "Central Station" {
		t.Errorf("pickup not assigned: %+v", p.Pickup)
	}
	if p.Comment != "bringing snacks" {
		t.Errorf("comment = %q", p.Comment)
	}
	if p.State != StateCreated {
		t.Error("assign must not transition")
	}
}

func TestNestedUserAttributes(t *testing.T) {
	l, _, _ := newTestLifecycle()
	p := NewParticipation(validUser(), &Mission{ID: 1})
	p.ID = 5
	blank := ""

	errs, err := l.Update(context.Background(), p, UpdateAttributes{User: &UserAttributes{Email: &blank}}, true)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !errs.Has("user", validation.CodeInvalid) || !errs.Has("user.email", validation.CodeBlank) {
		t.Errorf("expected nested user errors, got %v", errs)
	}
}

func TestPresenceValidation(t *testing.T) {
	l, _, _ := newTestLifecycle()
	errs, _ := l.Validate(&Participation{State: StateCreated})
	if !errs.Has("user", validation.CodeBlank) || !errs.Has("mission", validation.CodeBlank) {
		t.Errorf("expected user and mission blank, got %v", errs)
	}
}

func TestSkipExtraValidation(t *testing.T) {
	l, _, _ := newTestLifecycle()
	m := &Mission{ID: 1, Questions: []Question{{ID: 3, Kind: QuestionString, Required: true}}}
	p := NewParticipation(validUser(), m)
	p.SetRoleName(DefaultRoles, RoleSidekick)

	errs, _ := l.Validate(p)
	if !errs.Has("pickup", validation.CodeBlank) || !errs.Has("answers.question_3", validation.CodeBlank) {
		t.Fatalf("expected pickup and answer errors, got %v", errs)
	}

	p.SkipExtraValidation = true
	if errs, _ := l.Validate(p); !errs.Empty() {
		t.Errorf("skip extra validation should clear pickup and answers, got %v", errs)
	}
}

func TestAgeValidation(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		age     *time.Time
		limits  AgeRange
		wantMsg string
	}{
		{"captain too old for range", RoleCaptain, born(30), AgeRange{Min: intPtr(18), Max: intPtr(25)}, "Captains must be 18-25 years old."},
		{"captain within range", RoleCaptain, born(20), AgeRange{Min: intPtr(18), Max: intPtr(25)}, ""},
		{"sidekick too young", RoleSidekick, born(12), AgeRange{Min: intPtr(16)}, "Sidekicks must be older than 16."},
		{"sidekick too old for max only", RoleSidekick, born(70), AgeRange{Max: intPtr(65)}, "Sidekicks must be younger than 65."},
		{"unknown age counts as zero", RoleCaptain, nil, AgeRange{Min: intPtr(18)}, "Captains must be older than 18."},
		{"no limits", RoleCaptain, born(3), AgeRange{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, _ := newTestLifecycle()
			user := validUser()
			user.DateOfBirth = tt.age
			m := &Mission{ID: 1, AgeLimits: map[string]AgeRange{tt.role: tt.limits}}
			p := NewParticipation(user, m)
			p.SetRoleName(DefaultRoles, tt.role)
			p.SkipExtraValidation = true

			errs, _ := l.Validate(p)
			base := errs.On(validation.Base)
			if tt.wantMsg == "" {
				if len(base) != 0 {
					t.Errorf("expected no age error, got %v", base)
				}
				return
			}
			if len(base) != 1 || base[0].Message != tt.wantMsg {
				t.Errorf("age errors = %v, want %q", base, tt.wantMsg)
			}
		})
	}
}

func TestAgeValidationIgnoresOtherRoles(t *testing.T) {
	roles := RoleList{{ID: 1, Name: RoleSidekick}, {ID: 2, Name: RoleCaptain}, {ID: 3, Name: "driver"}}
	limits := AgeRange{Min: intPtr(30), Max: intPtr(31)}

	for _, role := range []string{"driver", ""} {
		for _, years := range []int{1, 30, 99} {
			l, _, _ := newTestLifecycle()
			user := validUser()
			user.DateOfBirth = born(years)
			m := &Mission{ID: 1, AgeLimits: map[string]AgeRange{"driver": limits, RoleCaptain: limits}}
			p := NewParticipation(user, m)
			p.SetRoleName(roles, role)

			errs, _ := l.Validate(p)
			if len(errs.On(validation.Base)) != 0 {
				t.Errorf("role %q age %d produced age error: %v", role, years, errs)
			}
		}
	}
}

func TestCaptainGetsApplication(t *testing.T) {
	l, _, _ := newTestLifecycle()
	user := validUser()
	p := NewParticipation(user, &Mission{ID: 1})
	p.SetRoleName(DefaultRoles, RoleCaptain)

	l.Validate(p)
	if user.CaptainApplication == nil {
		t.Fatal("captain should get an empty application")
	}
	if user.CurrentParticipation != p {
		t.Error("participation should be the user's current one")
	}

	existing := user.CaptainApplication
	existing.Body = "I have led three cleanups."
	l.Validate(p)
	if user.CaptainApplication != existing {
		t.Error("existing application must be kept")
	}
}

func TestFireNotifications(t *testing.T) {
	l, repo, notifier := newTestLifecycle()
	p := NewParticipation(validUser(), &Mission{ID: 1})
	p.ID = 9

	if err := l.Fire(context.Background(), p, EventAwaitApproval); err != nil {
		t.Fatalf("await approval: %v", err)
	}
	if err := l.Fire(context.Background(), p, EventApprove); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := l.Fire(context.Background(), p, EventComplete); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := l.Fire(context.Background(), p, EventApprove); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approve from completed: expected ErrInvalidTransition, got %v", err)
	}

	want := []NotificationKind{NotifyJoinedMission, NotifyMissionRoleApproved}
	if len(notifier.sent) != len(want) {
		t.Fatalf("notifications = %v, want %v", notifier.sent, want)
	}
	for i, k := range want {
		if notifier.sent[i].kind != k || notifier.sent[i].participationID != 9 {
			t.Errorf("notification %d = %+v, want %s", i, notifier.sent[i], k)
		}
	}
	if repo.saves != 3 {
		t.Errorf("saves = %d, want 3", repo.saves)
	}
}

func TestStateEventsForSelect(t *testing.T) {
	l, _, _ := newTestLifecycle()
	p := &Participation{State: StateApproved}

	opts := l.StateEventsForSelect(p)
	if len(opts) != 2 {
		t.Fatalf("expected cancel and complete, got %v", opts)
	}
	if opts[1].Event != EventComplete || opts[1].Label != "Mark as completed" {
		t.Errorf("unexpected option: %+v", opts[1])
	}
	if got := l.HumanStateName(&Participation{State: StateAwaitingApproval}); got != "Awaiting approval" {
		t.Errorf("HumanStateName = %q", got)
	}
}

func TestHumanizedPickup(t *testing.T) {
	l, _, _ := newTestLifecycle()
	p := &Participation{}
	if got := l.HumanizedPickup(p); got != "Not applicable" {
		t.Errorf("no role = %q", got)
	}
	p.SetRoleName(DefaultRoles, RoleSidekick)
	if got := l.HumanizedPickup(p); got != "Not yet set" {
		t.Errorf("sidekick without pickup = %q", got)
	}
	p.SetPickup(&Pickup{ID: 2, Name: "Harbour"})
	if got := l.HumanizedPickup(p); !strings.EqualFold(got, "harbour") {
		t.Errorf("sidekick with pickup = %q", got)
	}
}
