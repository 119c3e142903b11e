// Package flow implements the dialog state machine and the session
// orchestration that drives it, one turn per inbound USSD request.
//
// The engine is a pure function of (state name, accumulated fields, raw
// input): it holds no per-session context between calls, so it can be
// exercised in tests without any transport or storage harness.
package flow

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lafiya-uwa/ussdcare/internal/models"
)

// ErrUnknownState indicates a state name with no registry entry. This is a
// registry or transition-table bug, never a user input problem.
var ErrUnknownState = errors.New("unknown state")

// maxChainDepth bounds pass-through hops in a single turn so a mis-declared
// transition cycle cannot spin forever.
const maxChainDepth = 4

// ActionResult is what a state action produced for one invocation.
//
// A non-empty Prompt with no End flag continues the dialog. An empty Prompt
// passes the turn through to the state's transition target (used by states
// that only record an answer). End marks a session-ending message.
type ActionResult struct {
	Prompt  string
	Updates models.Fields
	End     bool
}

// ActionFunc renders a state's response to the input that led to it. Actions
// must be pure: identical (input, fields) always yields an identical result.
type ActionFunc func(input string, fields models.Fields) ActionResult

// State is one named node of the dialog. Transitions are evaluated in
// declaration order and the first matching pattern wins.
type State struct {
	Name        models.StateType
	Action      ActionFunc
	Transitions []Transition
	Terminal    bool
}

// Transition maps an input pattern to the state that consumes such input.
type Transition struct {
	Pattern Pattern
	To      models.StateType
}

// Result is the outcome of advancing the dialog by one turn.
type Result struct {
	Next     models.StateType
	Prompt   string
	Fields   models.Fields
	Terminal bool
}

// Machine is the static registry of dialog states.
type Machine struct {
	initial models.StateType
	states  map[models.StateType]State
}

// NewMachine creates an empty machine whose sessions begin at initial.
func NewMachine(initial models.StateType) *Machine {
	return &Machine{
		initial: initial,
		states:  make(map[models.StateType]State),
	}
}

// Register adds a state definition to the registry.
func (m *Machine) Register(s State) {
	if _, exists := m.states[s.Name]; exists {
		slog.Warn("Machine.Register: overwriting state definition", "state", s.Name)
	}
	m.states[s.Name] = s
}

// Initial returns the state new sessions start in.
func (m *Machine) Initial() models.StateType {
	return m.initial
}

// Advance runs one dialog turn. It resolves the current state's transition
// table against the raw input, executes the target state's action, and
// follows pass-through results until a prompt or terminal message appears.
//
// When no pattern matches, the current state is re-entered and its action is
// responsible for re-prompting. Field maps are cloned before actions run, so
// the caller's session view is never mutated.
func (m *Machine) Advance(current models.StateType, fields models.Fields, input string) (Result, error) {
	state, ok := m.states[current]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownState, current)
	}

	working := fields.Clone()
	target := m.resolve(state, input)

	for depth := 0; depth < maxChainDepth; depth++ {
		next, ok := m.states[target]
		if !ok {
			return Result{}, fmt.Errorf("%w: %q (transition from %q)", ErrUnknownState, target, state.Name)
		}

		res := next.Action(input, working)
		for k, v := range res.Updates {
			working[k] = v
		}

		terminal := res.End || next.Terminal
		if res.Prompt != "" || terminal {
			slog.Debug("Machine.Advance: turn resolved", "from", current, "to", target, "terminal", terminal)
			return Result{Next: target, Prompt: res.Prompt, Fields: working, Terminal: terminal}, nil
		}

		// Pass-through: the state recorded its answer without rendering;
		// follow its own transition for the same input.
		state = next
		target = m.resolve(next, input)
	}

	return Result{}, fmt.Errorf("transition chain from %q exceeded %d hops", current, maxChainDepth)
}

// resolve returns the first transition target whose pattern matches input,
// or the state itself when nothing matches (validation-retry path).
func (m *Machine) resolve(s State, input string) models.StateType {
	for _, t := range s.Transitions {
		if t.Pattern.Matches(input) {
			return t.To
		}
	}
	return s.Name
}
