package missions

import (
	"slices"
	"strings"
)

// Viewer is the caller a participation listing is scoped to. A nil
// Viewer is anonymous.
type Viewer struct {
	UserID int64
	Admin  bool
}

// Visibility describes which participations a viewer may see.
type Visibility struct {
	All         bool
	States      []State
	OwnerUserID int64 // 0 when the viewer owns nothing
}

// ViewableBy returns the visibility rule for v: admins see everything,
// everyone else sees public states, and signed-in users also see their own.
func ViewableBy(v *Viewer) Visibility {
	switch {
	case v == nil:
		return Visibility{States: PublicStates}
	case v.Admin:
		return Visibility{All: true}
	default:
		return Visibility{States: PublicStates, OwnerUserID: v.UserID}
	}
}

// Allows reports whether p is visible under the rule.
func (vis Visibility) Allows(p *Participation) bool {
	if vis.All {
		return true
	}
	if vis.OwnerUserID != 0 && p.UserID == vis.OwnerUserID {
		return true
	}
	return slices.Contains(vis.States, p.State)
}

// Filter narrows participations for audience building. Every dimension is
// optional; present dimensions are ANDed, values within one are ORed.
type Filter struct {
	MissionID int64    `json:"mission_id,omitempty"`
	Role      string   `json:"role,omitempty"`
	States    []string `json:"states,omitempty"`
	Pickups   []int64  `json:"pickups,omitempty"`
}

// OnlyRole restricts to participations with the named public role. A blank
// or unknown name leaves the filter unrestricted.
func (f Filter) OnlyRole(roles RoleList, name string) (Filter, *Role) {
	name = strings.TrimSpace(name)
	if name == "" {
		return f, nil
	}
	r, ok := roles.Lookup(name)
	if !ok {
		return f, nil
	}
	f.Role = r.Name
	return f, &r
}

// WithStates restricts to any of states, ignoring blank entries.
func (f Filter) WithStates(states []string) Filter {
	f.States = compactStrings(states)
	return f
}

// FromPickups restricts to any of the pickup ids, ignoring zero ids.
func (f Filter) FromPickups(ids []int64) Filter {
	var kept []int64
	for _, id := range ids {
		if id != 0 {
			kept = append(kept, id)
		}
	}
	f.Pickups = kept
	return f
}

// Normalize drops blank values so that each dimension is either absent or
// carries at least one usable value.
func (f Filter) Normalize(roles RoleList) Filter {
	out := Filter{MissionID: f.MissionID}
	out, _ = out.OnlyRole(roles, f.Role)
	out = out.WithStates(f.States)
	return out.FromPickups(f.Pickups)
}

// Blank reports whether the filter restricts nothing.
func (f Filter) Blank() bool {
	return f.MissionID == 0 && f.Role == "" && len(f.States) == 0 && len(f.Pickups) == 0
}

// Matches reports whether p passes every present dimension.
func (f Filter) Matches(p *Participation) bool {
	if f.MissionID != 0 && p.MissionID != f.MissionID {
		return false
	}
	if f.Role != "" && p.RoleName() != f.Role {
		return false
	}
	if len(f.States) > 0 && !slices.Contains(f.States, string(p.State)) {
		return false
	}
	if len(f.Pickups) > 0 && (p.PickupID == nil || !slices.Contains(f.Pickups, *p.PickupID)) {
		return false
	}
	return true
}

func compactStrings(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
