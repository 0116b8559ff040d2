// Package email composes administrator messages, validates them against
// their computed audience, and hands them to a delivery path.
package email

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bighelpmob/missionhub/internal/missions"
	"github.com/bighelpmob/missionhub/internal/validation"
)

type ScopeType string

const (
	ScopeAllUsers               ScopeType = "all_users"
	ScopeFilteredParticipations ScopeType = "filtered_participations"
)

// ScopeTypes are the selectable audience scopes with their labels.
var ScopeTypes = []struct {
	Label string    `json:"label"`
	Value ScopeType `json:"value"`
}{
	{"All Users", ScopeAllUsers},
	{"Filtered Participations", ScopeFilteredParticipations},
}

// ParseScopeType accepts the wire values and the legacy short names
// "users" and "participations". Anything else is returned unchanged and
// fails validation.
func ParseScopeType(s string) ScopeType {
	switch strings.TrimSpace(s) {
	case "users":
		return ScopeAllUsers
	case "participations":
		return ScopeFilteredParticipations
	}
	return ScopeType(strings.TrimSpace(s))
}

func (s ScopeType) Valid() bool {
	return s == ScopeAllUsers || s == ScopeFilteredParticipations
}

// TemplateMarker flags content that needs per-recipient rendering.
const TemplateMarker = "{{"

// Message is a transient admin email. It is never persisted.
type Message struct {
	Subject     string          `json:"subject"`
	HTMLContent string          `json:"html_content"`
	TextContent string          `json:"text_content"`
	ScopeType   ScopeType       `json:"scope_type"`
	Filter      missions.Filter `json:"filter"`
	Confirmed   *bool           `json:"confirmed,omitempty"`
}

// NewMessage builds a message from loose form attributes.
func NewMessage(attrs any) *Message {
	m := &Message{}
	m.Assign(attrs)
	return m
}

func (m *Message) Persisted() bool { return false }

func (m *Message) IsConfirmed() bool { return m.Confirmed != nil && *m.Confirmed }

// Templated reports whether any content part carries a template marker.
func (m *Message) Templated() bool {
	for _, part := range []string{m.Subject, m.HTMLContent, m.TextContent} {
		if strings.Contains(part, TemplateMarker) {
			return true
		}
	}
	return false
}

// Assign copies recognised attributes from a loose map. Non-map input and
// unknown keys are ignored.
func (m *Message) Assign(attrs any) {
	in, ok := attrs.(map[string]any)
	if !ok {
		return
	}
	for k, v := range in {
		switch k {
		case "subject":
			m.Subject = stringValue(v)
		case "html_content":
			m.HTMLContent = stringValue(v)
		case "text_content":
			m.TextContent = stringValue(v)
		case "scope_type":
			m.ScopeType = ParseScopeType(stringValue(v))
		case "filter":
			m.Filter = filterFrom(v)
		case "confirmed":
			m.Confirmed = confirmedFrom(v)
		}
	}
}

func confirmedFrom(v any) *bool {
	b, ok := validation.ToBoolean(v)
	if !ok {
		return nil
	}
	return &b
}

// filterFrom reads a filter map, unwrapping a lone "table" key.
func filterFrom(v any) missions.Filter {
	in, ok := v.(map[string]any)
	if !ok || len(in) == 0 {
		return missions.Filter{}
	}
	if table, ok := in["table"].(map[string]any); ok && len(in) == 1 {
		in = table
	}

	var f missions.Filter
	if id, ok := intValue(in["mission_id"]); ok {
		f.MissionID = id
	}
	f.Role = stringValue(in["role"])
	for _, s := range listValue(in["states"]) {
		f.States = append(f.States, stringValue(s))
	}
	for _, s := range listValue(in["pickups"]) {
		if id, ok := intValue(s); ok {
			f.Pickups = append(f.Pickups, id)
		}
	}
	return f
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func intValue(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int:
		return int64(x), true
	case int64:
		return x, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func listValue(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case string:
		if x == "" {
			return nil
		}
		return []any{x}
	}
	return nil
}
