package flow

import (
	"strconv"

	"github.com/lafiya-uwa/ussdcare/internal/models"
)

// NewMainMenu builds the complete dialog: the welcome menu, the registration
// flow, and the profile update sub-flow.
//
// Menu actions branch on the registered/userName/userWeek fields the
// orchestrator injects from the user record at session creation, keeping
// every action a pure function of (input, fields).
func NewMainMenu() *Machine {
	m := NewMachine(models.StateStart)
	registerMenuStates(m)
	registerRegistrationStates(m)
	registerUpdateStates(m)
	return m
}

func registerMenuStates(m *Machine) {
	m.Register(State{
		Name: models.StateStart,
		Action: func(input string, fields models.Fields) ActionResult {
			if fields.Bool(models.FieldRegistered) {
				return ActionResult{Prompt: promptWelcomeExisting(fields[models.FieldUserName])}
			}
			return ActionResult{Prompt: promptWelcomeNew}
		},
		Transitions: []Transition{
			{Literal("1"), models.StateMenuRegister},
			{Literal("2"), models.StateMenuAbout},
			{Literal("3"), models.StateMenuCallback},
			{Literal("4"), models.StateMenuEmergency},
			{Literal("5"), models.StateMenuProfile},
			{Literal("6"), models.StateMenuUpdate},
		},
	})

	// Option 1 doubles as the registration entry for new callers and the
	// danger-sign sheet for registered ones.
	m.Register(State{
		Name: models.StateMenuRegister,
		Action: func(input string, fields models.Fields) ActionResult {
			if fields.Bool(models.FieldRegistered) {
				return ActionResult{Prompt: promptDangerSigns, End: true}
			}
			return ActionResult{Prompt: promptEnterName}
		},
		Transitions: []Transition{
			{Wildcard(), models.StateCollectName},
		},
	})

	m.Register(State{
		Name: models.StateMenuAbout,
		Action: func(input string, fields models.Fields) ActionResult {
			if !fields.Bool(models.FieldRegistered) {
				return ActionResult{Prompt: promptAbout, End: true}
			}
			week, _ := strconv.Atoi(fields[models.FieldUserWeek])
			return ActionResult{Prompt: promptVaccination(week), End: true}
		},
	})

	m.Register(State{
		Name: models.StateMenuCallback,
		Action: func(input string, fields models.Fields) ActionResult {
			if !fields.Bool(models.FieldRegistered) {
				return ActionResult{Prompt: promptRegisterFirst, End: true}
			}
			return ActionResult{Prompt: promptCallbackAck(fields[models.FieldUserPhone]), End: true}
		},
	})

	m.Register(State{
		Name: models.StateMenuEmergency,
		Action: func(input string, fields models.Fields) ActionResult {
			return ActionResult{Prompt: promptEmergency, End: true}
		},
	})

	m.Register(State{
		Name: models.StateMenuProfile,
		Action: func(input string, fields models.Fields) ActionResult {
			if !fields.Bool(models.FieldRegistered) {
				return ActionResult{Prompt: promptRegisterFirst, End: true}
			}
			return ActionResult{Prompt: promptProfile(fields), End: true}
		},
	})

	m.Register(State{
		Name: models.StateMenuUpdate,
		Action: func(input string, fields models.Fields) ActionResult {
			if !fields.Bool(models.FieldRegistered) {
				return ActionResult{Prompt: promptRegisterFirst, End: true}
			}
			return ActionResult{Prompt: promptUpdateMenu}
		},
		Transitions: []Transition{
			{Literal("1"), models.StateUpdateName},
			{Literal("2"), models.StateUpdateLGA},
			{Literal("3"), models.StateUpdateWeek},
			{Literal("4"), models.StateStart},
		},
	})
}

func registerUpdateStates(m *Machine) {
	m.Register(State{
		Name: models.StateUpdateName,
		Action: func(input string, fields models.Fields) ActionResult {
			return ActionResult{Prompt: promptUpdateName}
		},
		Transitions: []Transition{
			{Wildcard(), models.StateUpdateNameApply},
		},
	})

	m.Register(State{
		Name: models.StateUpdateNameApply,
		Action: func(input string, fields models.Fields) ActionResult {
			return ActionResult{
				Prompt: "Suna an sabunta zuwa: " + input + "\n" +
					"Name updated. Danna *347*1# don komawa menu.",
				Updates: models.Fields{models.FieldUpdateName: input},
				End:     true,
			}
		},
	})

	m.Register(State{
		Name: models.StateUpdateLGA,
		Action: func(input string, fields models.Fields) ActionResult {
			return ActionResult{Prompt: promptUpdateLGA}
		},
		Transitions: []Transition{
			{Wildcard(), models.StateUpdateLGAApply},
		},
	})

	m.Register(State{
		Name: models.StateUpdateLGAApply,
		Action: func(input string, fields models.Fields) ActionResult {
			return ActionResult{
				Prompt: "LGA an sabunta zuwa: " + input + "\n" +
					"LGA updated. Danna *347*1# don komawa menu.",
				Updates: models.Fields{models.FieldUpdateLGA: input},
				End:     true,
			}
		},
	})

	m.Register(State{
		Name: models.StateUpdateWeek,
		Action: func(input string, fields models.Fields) ActionResult {
			return ActionResult{Prompt: promptUpdateWeek}
		},
		Transitions: []Transition{
			{Wildcard(), models.StateUpdateWeekApply},
		},
	})

	m.Register(State{
		Name: models.StateUpdateWeekApply,
		Action: func(input string, fields models.Fields) ActionResult {
			if _, err := strconv.Atoi(input); err != nil {
				return ActionResult{Prompt: promptUpdateWeekInvalid, End: true}
			}
			return ActionResult{
				Prompt: "Makon ciki an sabunta zuwa: " + input + "\n" +
					"Pregnancy week updated. Danna *347*1# don komawa menu.",
				Updates: models.Fields{models.FieldUpdateWeek: input},
				End:     true,
			}
		},
	})
}
