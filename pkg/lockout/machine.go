package lockout

import (
	"time"

	"github.com/securekey/authcore/pkg/account"
)

// State of an account with respect to lockout.
type State string

const (
	StateUnlocked State = "unlocked"
	StateLocked   State = "locked"
)

// Event drives a transition.
type Event string

const (
	EventFailure Event = "failure"
	EventSuccess Event = "success"
	EventExpire  Event = "expire"
	EventRedeem  Event = "redeem"
)

// StateOf derives the state from the stored flags.
func StateOf(acc account.Account) State {
	if acc.AccountLocked {
		return StateLocked
	}
	return StateUnlocked
}

// step carries one transition's input and accumulates its output.
type step struct {
	acc     account.Account
	now     time.Time
	token   string
	effects []Effect
}

func (s *step) emit(e Effect) {
	for _, have := range s.effects {
		if have == e {
			return
		}
	}
	s.effects = append(s.effects, e)
}

// guard must pass for a transition to be selected.
type guard func(s *step) bool

// action mutates the step's account; an error aborts the transition.
type action func(s *step) error

type transition struct {
	from    State
	to      State
	event   Event
	guards  []guard
	actions []action
}

type machine struct {
	transitions map[State]map[Event][]transition
}

func newMachine() *machine {
	return &machine{transitions: make(map[State]map[Event][]transition)}
}

func (m *machine) add(t transition) {
	if m.transitions[t.from] == nil {
		m.transitions[t.from] = make(map[Event][]transition)
	}
	m.transitions[t.from][t.event] = append(m.transitions[t.from][t.event], t)
}

// fire picks the first transition whose guards all pass and runs its actions on s.
func (m *machine) fire(event Event, s *step) (State, error) {
	from := StateOf(s.acc)

	for _, t := range m.transitions[from][event] {
		if !allowed(t.guards, s) {
			continue
		}
		for _, act := range t.actions {
			if err := act(s); err != nil {
				return from, err
			}
		}
		return t.to, nil
	}

	return from, &TransitionError{State: from, Event: event}
}

func allowed(guards []guard, s *step) bool {
	for _, g := range guards {
		if !g(s) {
			return false
		}
	}
	return true
}
