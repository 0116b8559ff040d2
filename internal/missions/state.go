package missions

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidTransition = errors.New("invalid state transition")

type State string

const (
	StateCreated          State = "created"
	StateAwaitingApproval State = "awaiting_approval"
	StateApproved         State = "approved"
	StateCompleted        State = "completed"
	StateCancelled        State = "cancelled"
)

// States lists every lifecycle state in workflow order.
var States = []State{StateCreated, StateAwaitingApproval, StateApproved, StateCompleted, StateCancelled}

// PublicStates are visible to callers who are neither admins nor owners.
var PublicStates = []State{StateApproved, StateCompleted}

func (s State) Valid() bool { return slices.Contains(States, s) }

func (s State) Terminal() bool { return s == StateCompleted || s == StateCancelled }

type Event string

const (
	EventAwaitApproval Event = "await_approval"
	EventApprove       Event = "approve"
	EventCancel        Event = "cancel"
	EventComplete      Event = "complete"
)

// Events lists every lifecycle event in declaration order.
var Events = []Event{EventAwaitApproval, EventApprove, EventCancel, EventComplete}

type transitionRule struct {
	from []State // nil matches any state
	to   State
}

var transitions = map[Event]transitionRule{
	EventAwaitApproval: {from: []State{StateCreated}, to: StateAwaitingApproval},
	EventApprove:       {from: []State{StateCreated, StateAwaitingApproval}, to: StateApproved},
	EventCancel:        {from: nil, to: StateCancelled},
	EventComplete:      {from: []State{StateApproved}, to: StateCompleted},
}

// Transition records a state change applied to a participation.
type Transition struct {
	Event Event
	From  State
	To    State
}

// CanFire reports whether ev is allowed from the participation's state.
func (p *Participation) CanFire(ev Event) bool {
	rule, ok := transitions[ev]
	if !ok {
		return false
	}
	return rule.from == nil || slices.Contains(rule.from, p.State)
}

// Fire applies ev in memory. Side effects are the caller's concern.
func (p *Participation) Fire(ev Event) (Transition, error) {
	if !p.CanFire(ev) {
		return Transition{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, p.State)
	}
	t := Transition{Event: ev, From: p.State, To: transitions[ev].to}
	p.State = t.To
	return t, nil
}

// AvailableEvents returns the events allowed from the current state.
func (p *Participation) AvailableEvents() []Event {
	var out []Event
	for _, ev := range Events {
		if p.CanFire(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// ParseEvent validates a wire event name.
func ParseEvent(s string) (Event, bool) {
	ev := Event(s)
	_, ok := transitions[ev]
	return ev, ok
}
