// Package missions defines the volunteer mission domain: users, missions,
// roles, pickups, and the participation lifecycle that ties them together.
// It has no storage or transport dependencies.
package missions

import (
	"strings"
	"time"
)

type User struct {
	ID          int64
	Name        string
	Email       string
	Phone       string
	DateOfBirth *time.Time
	Admin       bool

	CaptainApplication *CaptainApplication

	// CurrentParticipation is the in-progress participation being saved
	// alongside this user. Not persisted.
	CurrentParticipation *Participation `json:"-"`
}

// Age returns whole years at now, or 0 when the date of birth is unknown.
func (u *User) Age(now time.Time) int {
	if u == nil || u.DateOfBirth == nil {
		return 0
	}
	dob := u.DateOfBirth.UTC()
	now = now.UTC()
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

type CaptainApplication struct {
	ID        int64
	UserID    int64
	Body      string
	CreatedAt time.Time
}

type Mission struct {
	ID        int64
	Name      string
	Questions []Question
	AgeLimits map[string]AgeRange
}

// AgeRange bounds are inclusive; nil means unbounded.
type AgeRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// AgeLimitsFor returns the bounds configured for role.
func (m *Mission) AgeLimitsFor(role string) AgeRange {
	if m == nil || m.AgeLimits == nil {
		return AgeRange{}
	}
	return m.AgeLimits[role]
}

type QuestionKind string

const (
	QuestionString         QuestionKind = "string"
	QuestionBoolean        QuestionKind = "boolean"
	QuestionMultipleChoice QuestionKind = "multiple_choice"
)

type Question struct {
	ID        int64
	MissionID int64
	Text      string
	Kind      QuestionKind
	Required  bool
	Choices   []string
	Position  int
}

func (q Question) Boolean() bool        { return q.Kind == QuestionBoolean }
func (q Question) MultipleChoice() bool { return q.Kind == QuestionMultipleChoice }

type Pickup struct {
	ID        int64
	MissionID int64
	Name      string
	Address   string
}

type Role struct {
	ID   int64
	Name string
}

// Role names with lifecycle rules attached.
const (
	RoleCaptain  = "captain"
	RoleSidekick = "sidekick"
)

// RoleList is the ordered list of publicly assignable roles.
type RoleList []Role

// DefaultRoles is the public role order used when none is configured.
var DefaultRoles = RoleList{
	{ID: 1, Name: RoleSidekick},
	{ID: 2, Name: RoleCaptain},
}

// Lookup returns the role with name, if public.
func (rl RoleList) Lookup(name string) (Role, bool) {
	name = strings.TrimSpace(name)
	for _, r := range rl {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}

func (rl RoleList) index(name string) int {
	for i, r := range rl {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Alternate returns the role after name in the public order, wrapping
// around. An unknown name is treated as the first role.
func (rl RoleList) Alternate(name string) Role {
	if len(rl) == 0 {
		return Role{}
	}
	i := rl.index(name)
	if i < 0 {
		i = 0
	}
	return rl[(i+1)%len(rl)]
}

type Participation struct {
	ID        int64
	UserID    int64
	MissionID int64
	RoleID    *int64
	PickupID  *int64
	State     State
	Comment   string

	PartakingWithFriends bool

	// RawAnswers is the serialized answer blob; see Answers.
	RawAnswers any

	CreatedAt time.Time
	UpdatedAt time.Time

	User    *User
	Mission *Mission
	Role    *Role
	Pickup  *Pickup

	SkipExtraValidation bool

	recentlyJoined bool
	answers        *AnswerStore
}

// NewParticipation returns an unsaved participation in the initial state.
func NewParticipation(user *User, mission *Mission) *Participation {
	p := &Participation{State: StateCreated}
	if user != nil {
		p.User, p.UserID = user, user.ID
	}
	if mission != nil {
		p.Mission, p.MissionID = mission, mission.ID
	}
	return p
}

func (p *Participation) NewRecord() bool { return p.ID == 0 }

// RecentlyJoined reports whether the last save auto-approved this record.
func (p *Participation) RecentlyJoined() bool { return p.recentlyJoined }

func (p *Participation) RoleName() string {
	if p.Role == nil {
		return ""
	}
	return p.Role.Name
}

func (p *Participation) Captain() bool  { return p.RoleName() == RoleCaptain }
func (p *Participation) Sidekick() bool { return p.RoleName() == RoleSidekick }

// SetRoleName assigns a public role by name; any other name clears it.
func (p *Participation) SetRoleName(roles RoleList, name string) {
	r, ok := roles.Lookup(name)
	if !ok {
		p.Role, p.RoleID = nil, nil
		return
	}
	p.Role = &r
	p.RoleID = &r.ID
}

// AlternateRole is the next public role after this participation's role.
func (p *Participation) AlternateRole(roles RoleList) Role {
	return roles.Alternate(p.RoleName())
}

func (p *Participation) SetPickup(pk *Pickup) {
	p.Pickup = pk
	if pk == nil {
		p.PickupID = nil
		return
	}
	id := pk.ID
	p.PickupID = &id
}

// StillPreparing reports whether the participation has not been approved
// yet, or optionally counts approved as still preparing.
func (p *Participation) StillPreparing(includeApproved bool) bool {
	switch p.State {
	case StateCreated, StateAwaitingApproval:
		return true
	case StateApproved:
		return includeApproved
	}
	return false
}
