package flow

import (
	"strconv"
	"time"

	"github.com/lafiya-uwa/ussdcare/internal/models"
	"github.com/lafiya-uwa/ussdcare/internal/risk"
	"github.com/lafiya-uwa/ussdcare/internal/validate"
)

// registerRegistrationStates adds the turn-by-turn registration flow. Each
// state consumes the answer to the previous prompt, validates it (re-entering
// itself with a corrective prompt on rejection), stores the field, and asks
// the next question.
func registerRegistrationStates(m *Machine) {
	m.Register(State{
		Name:   models.StateCollectName,
		Action: collectName,
		Transitions: []Transition{
			{Digits(), models.StateCollectLGA},
		},
	})

	m.Register(State{
		Name:   models.StateCollectLGA,
		Action: collectLGA,
		Transitions: []Transition{
			{Digits(), models.StateCollectAge},
		},
	})

	m.Register(State{
		Name:   models.StateCollectAge,
		Action: collectAge,
		Transitions: []Transition{
			{Digits(), models.StateCollectAge},
			{DateShaped(), models.StateCollectEDD},
		},
	})

	m.Register(State{
		Name:   models.StateCollectEDD,
		Action: collectEDD,
		Transitions: []Transition{
			{DateShaped(), models.StateCollectEDD},
			{Literal("1"), models.StateCollectComplications},
			{Literal("2"), models.StateCollectComplications},
			{Literal("3"), models.StateCollectComplications},
		},
	})

	m.Register(State{
		Name:   models.StateCollectComplications,
		Action: collectComplications,
		Transitions: []Transition{
			{Literal("1"), models.StateCollectDiabetes},
			{Literal("2"), models.StateCollectDiabetes},
		},
	})

	m.Register(State{
		Name:   models.StateCollectDiabetes,
		Action: collectDiabetes,
		Transitions: []Transition{
			{Literal("1"), models.StateCollectMultiples},
			{Literal("2"), models.StateCollectMultiples},
			{Literal("3"), models.StateCollectMultiples},
		},
	})

	m.Register(State{
		Name:   models.StateCollectMultiples,
		Action: collectMultiples,
		Transitions: []Transition{
			{Literal("1"), models.StateFinalize},
			{Literal("2"), models.StateFinalize},
			{Literal("3"), models.StateFinalize},
		},
	})

	m.Register(State{
		Name:     models.StateFinalize,
		Action:   finalizeRegistration,
		Terminal: true,
	})
}

// collectName consumes the caller's name. A phone number with a completed
// profile short-circuits here with a terminal message before any field is
// stored; the orchestrator injects the registered flag from the user record.
//
// Once a name is recorded this state only re-runs when a later answer failed
// to match any pattern, so it re-renders the pending LGA menu instead of
// overwriting the name.
func collectName(input string, fields models.Fields) ActionResult {
	if fields.Bool(models.FieldRegistered) {
		return ActionResult{Prompt: promptAlreadyRegistered, End: true}
	}
	if name, ok := fields[models.FieldName]; ok {
		return ActionResult{Prompt: promptLGAMenu(name)}
	}
	if input == "" {
		return ActionResult{Prompt: promptEnterName}
	}
	return ActionResult{
		Prompt:  promptLGAMenu(input),
		Updates: models.Fields{models.FieldName: input},
	}
}

// collectLGA consumes the 1..N menu selection and maps it to an LGA name.
func collectLGA(input string, fields models.Fields) ActionResult {
	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > len(models.KanoLGAs) {
		if _, ok := fields[models.FieldLGA]; ok {
			return ActionResult{Prompt: promptAge}
		}
		return ActionResult{Prompt: promptLGAMenu(fields[models.FieldName])}
	}
	return ActionResult{
		Prompt:  promptAge,
		Updates: models.Fields{models.FieldLGA: models.LGAName(choice)},
	}
}

// collectAge consumes the age answer; out-of-range or non-numeric input
// re-enters this state with a corrective prompt. When a rejected menu
// selection left the LGA unset, the digit that arrives here is the caller's
// retry of that selection, not an age.
func collectAge(input string, fields models.Fields) ActionResult {
	if _, ok := fields[models.FieldLGA]; !ok {
		return collectLGA(input, fields)
	}
	age, err := validate.Age(input)
	if err != nil {
		return ActionResult{Prompt: promptAgeRetry}
	}
	return ActionResult{
		Prompt:  promptEDD,
		Updates: models.Fields{models.FieldAge: strconv.Itoa(age)},
	}
}

// collectEDD consumes the expected delivery date and derives the current
// pregnancy week from it.
func collectEDD(input string, fields models.Fields) ActionResult {
	edd, err := validate.EDD(input, time.Now())
	if err != nil {
		if _, ok := fields[models.FieldEDD]; ok {
			// A date is already on file; the unmatched input was a bad
			// answer to the pending complications question.
			return ActionResult{Prompt: promptComplications}
		}
		return ActionResult{Prompt: promptEDDRetry}
	}
	return ActionResult{
		Prompt: promptComplications,
		Updates: models.Fields{
			models.FieldEDD:  edd.Format(validate.EDDLayout),
			models.FieldWeek: strconv.Itoa(validate.PregnancyWeek(edd)),
		},
	}
}

// collectComplications consumes the three-way complications answer. Choosing
// "no complications" leaves both derived flags false.
func collectComplications(input string, fields models.Fields) ActionResult {
	if input != "1" && input != "2" && input != "3" {
		if _, ok := fields[models.FieldPrevComplicated]; ok {
			return ActionResult{Prompt: promptDiabetes}
		}
		return ActionResult{Prompt: promptComplications}
	}
	return ActionResult{
		Prompt: promptDiabetes,
		Updates: models.Fields{
			models.FieldPrevComplicated: boolField(input == "1"),
			models.FieldFirstPregnancy:  boolField(input == "3"),
		},
	}
}

func collectDiabetes(input string, fields models.Fields) ActionResult {
	if input != "1" && input != "2" {
		if _, ok := fields[models.FieldDiabetes]; ok {
			return ActionResult{Prompt: promptMultiples}
		}
		return ActionResult{Prompt: promptDiabetes}
	}
	return ActionResult{
		Prompt:  promptMultiples,
		Updates: models.Fields{models.FieldDiabetes: boolField(input == "1")},
	}
}

// collectMultiples records the three-valued answer and passes the turn
// through to the terminal finalize state.
func collectMultiples(input string, fields models.Fields) ActionResult {
	var answer models.TriState
	switch input {
	case "1":
		answer = models.TriStateYes
	case "2":
		answer = models.TriStateNo
	case "3":
		answer = models.TriStateUnknown
	default:
		return ActionResult{Prompt: promptMultiples}
	}
	return ActionResult{
		Updates: models.Fields{models.FieldMultiples: string(answer)},
	}
}

// finalizeRegistration scores the accumulated answers and emits the terminal
// message. The score and tier are written back into the fields so the
// orchestrator can persist the assessment without recomputing it.
func finalizeRegistration(input string, fields models.Fields) ActionResult {
	result := risk.Score(FactorsFromFields(fields))
	return ActionResult{
		Prompt: promptRegistrationComplete(fields[models.FieldName], result),
		Updates: models.Fields{
			models.FieldRiskLevel: string(result.Level),
			models.FieldRiskScore: strconv.Itoa(result.Score),
		},
		End: true,
	}
}

// FactorsFromFields rebuilds the scoring input from accumulated session
// fields. Blood pressure is not collected over USSD, so both readings stay
// zero and the hypertension rule never fires for this flow.
func FactorsFromFields(fields models.Fields) models.RiskFactors {
	age, _ := strconv.Atoi(fields[models.FieldAge])
	multiples := models.TriState(fields[models.FieldMultiples])
	if multiples == "" {
		multiples = models.TriStateUnknown
	}
	return models.RiskFactors{
		Age:                   age,
		PreviousComplications: fields.Bool(models.FieldPrevComplicated),
		GestationalDiabetes:   fields.Bool(models.FieldDiabetes),
		FirstPregnancy:        fields.Bool(models.FieldFirstPregnancy),
		MultiplePregnancy:     multiples,
	}
}

func boolField(v bool) string {
	if v {
		return models.FieldValueTrue
	}
	return models.FieldValueFalse
}
