package server

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/bighelpmob/missionhub/internal/email"
	"github.com/bighelpmob/missionhub/internal/missions"
)

func userEmails(users []missions.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Email
	}
	return out
}

func TestUsersByScope(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		scope  email.ScopeType
		filter missions.Filter
		want   []string
	}{
		{
			name:  "all users ignores filter",
			scope: email.ScopeAllUsers,
			filter: missions.Filter{
				States: []string{"cancelled"},
			},
			want: []string{"ada@example.org", "ben@example.org", "cleo@example.org", "dan@example.org"},
		},
		{
			name:   "approved sidekicks only",
			scope:  email.ScopeFilteredParticipations,
			filter: missions.Filter{Role: missions.RoleSidekick, States: []string{"approved"}},
			want:   []string{"ben@example.org"},
		},
		{
			name:   "states are ORed",
			scope:  email.ScopeFilteredParticipations,
			filter: missions.Filter{States: []string{"approved", "created"}},
			want:   []string{"ada@example.org", "ben@example.org", "dan@example.org"},
		},
		{
			name:   "mission and pickup",
			scope:  email.ScopeFilteredParticipations,
			filter: missions.Filter{MissionID: 1, Pickups: []int64{2}},
			want:   []string{"cleo@example.org", "dan@example.org"},
		},
		{
			name:   "blank filter selects every participant",
			scope:  email.ScopeFilteredParticipations,
			filter: missions.Filter{},
			want:   []string{"ada@example.org", "ben@example.org", "cleo@example.org", "dan@example.org"},
		},
		{
			name:   "no match",
			scope:  email.ScopeFilteredParticipations,
			filter: missions.Filter{MissionID: 7},
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := store.Users(ctx, tt.scope, tt.filter)
			if err != nil {
				t.Fatalf("Users: %v", err)
			}
			if got := userEmails(users); !slices.Equal(got, tt.want) {
				t.Errorf("users = %v, want %v", got, tt.want)
			}
		})
	}
}

// The filtered audience is exactly the set of users owning a matching
// participation, whatever the combination of dimensions.
func TestUsersMatchesParticipationFilter(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	all, err := store.ListParticipations(ctx, missions.ViewableBy(&missions.Viewer{Admin: true}), missions.Filter{})
	if err != nil {
		t.Fatal(err)
	}

	roles := []string{"", missions.RoleSidekick, missions.RoleCaptain}
	states := [][]string{nil, {"approved"}, {"created", "awaiting_approval"}}
	pickups := [][]int64{nil, {1}, {1, 2}}
	for _, role := range roles {
		for _, st := range states {
			for _, pk := range pickups {
				f := missions.Filter{Role: role, States: st, Pickups: pk}

				var want []int64
				for _, p := range all {
					if f.Matches(p) && !slices.Contains(want, p.UserID) {
						want = append(want, p.UserID)
					}
				}
				slices.Sort(want)

				users, err := store.Users(ctx, email.ScopeFilteredParticipations, f)
				if err != nil {
					t.Fatal(err)
				}
				var got []int64
				for _, u := range users {
					got = append(got, u.ID)
				}
				if !slices.Equal(got, want) {
					t.Errorf("filter %+v: users %v, want %v", f, got, want)
				}
			}
		}
	}
}

func TestParticipationFor(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	p, err := store.ParticipationFor(ctx, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.ID != 2 || p.RoleName() != missions.RoleSidekick || p.Pickup == nil || p.Pickup.Name != "Central station" {
		t.Fatalf("participation = %+v", p)
	}

	p, err = store.ParticipationFor(ctx, 2, 99)
	if err != nil || p != nil {
		t.Errorf("missing participation = %v, %v; want nil, nil", p, err)
	}
}

func TestSaveParticipationRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	p, err := store.Participation(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.User.CaptainApplication == nil || p.User.CaptainApplication.Body == "" {
		t.Fatalf("captain application not loaded: %+v", p.User)
	}
	if len(p.Mission.Questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(p.Mission.Questions))
	}

	dob := time.Date(1986, 5, 6, 0, 0, 0, 0, time.UTC)
	p.User.Name = "Ada B. Brook"
	p.User.DateOfBirth = &dob
	p.User.CaptainApplication.Body = "Updated motivation"
	p.Comment = "team lead"
	p.SetAnswers(map[string]any{"question_3": "vegetarian"})
	before := p.UpdatedAt

	if err := store.SaveParticipation(ctx, p); err != nil {
		t.Fatalf("SaveParticipation: %v", err)
	}
	if p.UpdatedAt.Before(before) {
		t.Errorf("updated_at went backwards")
	}

	got, err := store.Participation(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.User.Name != "Ada B. Brook" || !got.User.DateOfBirth.Equal(dob) {
		t.Errorf("user = %+v", got.User)
	}
	if got.User.CaptainApplication.Body != "Updated motivation" {
		t.Errorf("captain application = %+v", got.User.CaptainApplication)
	}
	if got.Comment != "team lead" || got.Answers().Raw()["question_3"] != "vegetarian" {
		t.Errorf("participation = %+v", got)
	}
}

func TestSaveParticipationMissing(t *testing.T) {
	store := setupStore(t)

	p := &missions.Participation{ID: 404, State: missions.StateCreated}
	if err := store.SaveParticipation(context.Background(), p); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPickupByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	pk, err := store.PickupByID(ctx, 1, 2)
	if err != nil || pk.Name != "Harbour gate" {
		t.Fatalf("pickup = %+v, %v", pk, err)
	}
	if _, err := store.PickupByID(ctx, 2, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("pickup of other mission err = %v, want ErrNotFound", err)
	}
}

func TestSeedDemoIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := SeedDemo(ctx, discardLogger(), store); err != nil {
		t.Fatal(err)
	}
	list, err := store.ListMissions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("missions = %d after second seed, want 1", len(list))
	}
}

func TestAdminSessions(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created, err := store.EnsureAdmin(ctx, "second@example.org", "pw")
	if err != nil || created {
		t.Fatalf("EnsureAdmin with existing admin = %v, %v; want false, nil", created, err)
	}

	acct, err := store.Authenticate(ctx, " ADMIN@example.org ", testAdminPassword)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Authenticate(ctx, testAdminEmail, "wrong"); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong password err = %v, want ErrNotFound", err)
	}
	if _, err := store.Authenticate(ctx, "nobody@example.org", "pw"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown admin err = %v, want ErrNotFound", err)
	}

	opened, err := store.CreateAdminSession(ctx, acct.AdminID)
	if err != nil {
		t.Fatal(err)
	}
	if d := time.Until(opened.ExpiresAt); d < adminSessionTTL-time.Minute || d > adminSessionTTL {
		t.Errorf("session expires in %v, want about %v", d, adminSessionTTL)
	}
	sess, err := store.AdminFromSession(ctx, opened.ID)
	if err != nil || sess.AdminID != acct.AdminID || sess.Email != testAdminEmail {
		t.Fatalf("session = %+v, %v", sess, err)
	}
	if err := store.DeleteAdminSession(ctx, opened.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AdminFromSession(ctx, opened.ID); !errors.Is(err, errNoAdminSession) {
		t.Errorf("deleted session err = %v, want errNoAdminSession", err)
	}
}

func TestAdminSessionExpired(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	acct, err := store.Authenticate(ctx, testAdminEmail, testAdminPassword)
	if err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour).UTC().Format(sessionTimeLayout)
	if _, err := store.db.ExecContext(ctx,
		`INSERT INTO admin_sessions (id, admin_id, expires_at) VALUES ('stale', ?, ?)`, acct.AdminID, past,
	); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AdminFromSession(ctx, "stale"); !errors.Is(err, errNoAdminSession) {
		t.Fatalf("expired session err = %v, want errNoAdminSession", err)
	}

	if _, err := store.CreateAdminSession(ctx, acct.AdminID); err != nil {
		t.Fatal(err)
	}
	var n int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_sessions WHERE id = 'stale'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("stale session survived purge")
	}
}
