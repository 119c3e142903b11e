package flow

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lafiya-uwa/ussdcare/internal/models"
	"github.com/lafiya-uwa/ussdcare/internal/validate"
)

// walk advances the machine through a sequence of inputs, carrying fields
// between turns the way the orchestrator does, and returns the final result.
func walk(t *testing.T, m *Machine, fields models.Fields, inputs ...string) Result {
	t.Helper()
	current := m.Initial()
	var res Result
	var err error
	for i, input := range inputs {
		res, err = m.Advance(current, fields, input)
		if err != nil {
			t.Fatalf("turn %d (input %q): %v", i, input, err)
		}
		current = res.Next
		fields = res.Fields
		if res.Terminal && i != len(inputs)-1 {
			t.Fatalf("turn %d (input %q): dialog ended early with %q", i, input, res.Prompt)
		}
	}
	return res
}

func futureEDD(months int) string {
	return time.Now().AddDate(0, months, 0).Format(validate.EDDLayout)
}

func TestNewCallerSeesRegistrationMenu(t *testing.T) {
	m := NewMainMenu()
	res := walk(t, m, models.Fields{}, "")
	if res.Terminal {
		t.Fatal("welcome screen must not end the session")
	}
	if !strings.Contains(res.Prompt, "Yi rajista") {
		t.Errorf("new caller welcome missing register option: %q", res.Prompt)
	}
	if strings.Contains(res.Prompt, "Sabunta bayanai") {
		t.Errorf("new caller should not see the registered menu: %q", res.Prompt)
	}
}

func TestRegisteredCallerSeesMainMenu(t *testing.T) {
	m := NewMainMenu()
	fields := models.Fields{
		models.FieldRegistered: models.FieldValueTrue,
		models.FieldUserName:   "Amina",
	}
	res := walk(t, m, fields, "")
	if !strings.Contains(res.Prompt, "Sannu Amina") {
		t.Errorf("expected personalized greeting: %q", res.Prompt)
	}
	if !strings.Contains(res.Prompt, "6. Sabunta bayanai") {
		t.Errorf("expected full menu for registered caller: %q", res.Prompt)
	}
}

func TestFullRegistrationWalk(t *testing.T) {
	m := NewMainMenu()
	edd := futureEDD(4)

	res := walk(t, m, models.Fields{},
		"",      // welcome
		"1",     // register
		"Amina", // name
		"2",     // LGA: Dala
		"28",    // age
		edd,     // expected delivery date
		"1",     // previous complications: yes
		"1",     // diabetes: yes
		"1",     // multiples: yes -> finalize in same turn
	)

	if !res.Terminal {
		t.Fatal("registration should end the session")
	}
	if res.Next != models.StateFinalize {
		t.Errorf("expected finalize state, got %q", res.Next)
	}
	if !strings.Contains(res.Prompt, "Rajista ta yi nasara") {
		t.Errorf("missing success message: %q", res.Prompt)
	}
	// complications 20 + diabetes 15 + multiples 15 = 50 -> high
	if !strings.Contains(res.Prompt, "HIGH RISK") {
		t.Errorf("expected high risk messaging: %q", res.Prompt)
	}

	if res.Fields[models.FieldName] != "Amina" {
		t.Errorf("name not stored: %+v", res.Fields)
	}
	if res.Fields[models.FieldLGA] != "Dala" {
		t.Errorf("lga not mapped from selection: %q", res.Fields[models.FieldLGA])
	}
	if res.Fields[models.FieldRiskLevel] != string(models.RiskLevelHigh) {
		t.Errorf("risk level = %q, want high", res.Fields[models.FieldRiskLevel])
	}
	if res.Fields[models.FieldRiskScore] != "50" {
		t.Errorf("risk score = %q, want 50", res.Fields[models.FieldRiskScore])
	}

	// Pregnancy week must be derived from the delivery date.
	week, err := strconv.Atoi(string(res.Fields[models.FieldWeek]))
	if err != nil || week < 1 || week > 40 {
		t.Errorf("implausible derived week: %q", res.Fields[models.FieldWeek])
	}
}

func TestRegistrationLowRiskWalk(t *testing.T) {
	m := NewMainMenu()
	res := walk(t, m, models.Fields{},
		"", "1", "Hauwa", "1", "28", futureEDD(5),
		"2", // no complications
		"2", // no diabetes
		"2", // no multiples
	)
	if !res.Terminal {
		t.Fatal("expected terminal result")
	}
	if res.Fields[models.FieldRiskLevel] != string(models.RiskLevelLow) {
		t.Errorf("risk level = %q, want low", res.Fields[models.FieldRiskLevel])
	}
	if res.Fields[models.FieldRiskScore] != "0" {
		t.Errorf("risk score = %q, want 0", res.Fields[models.FieldRiskScore])
	}
}

func TestRegistrationInvalidAgeRetries(t *testing.T) {
	m := NewMainMenu()
	res := walk(t, m, models.Fields{},
		"", "1", "Amina", "2",
		"8", // below minimum age
	)
	if res.Terminal {
		t.Fatal("validation failure must not end the session")
	}
	if res.Next != models.StateCollectAge {
		t.Errorf("expected to stay on age collection, got %q", res.Next)
	}
	if !strings.Contains(res.Prompt, "10-60") {
		t.Errorf("expected corrective age prompt: %q", res.Prompt)
	}
	if _, ok := res.Fields[models.FieldAge]; ok {
		t.Error("rejected age must not be stored")
	}
}

func TestRegistrationInvalidDateRetries(t *testing.T) {
	m := NewMainMenu()
	res := walk(t, m, models.Fields{},
		"", "1", "Amina", "2", "28",
		"31-02-2026", // date-shaped but not a calendar date
	)
	if res.Terminal {
		t.Fatal("validation failure must not end the session")
	}
	if res.Next != models.StateCollectEDD {
		t.Errorf("expected to stay on date collection, got %q", res.Next)
	}
	if !strings.Contains(res.Prompt, "DD-MM-YYYY") {
		t.Errorf("expected corrective date prompt: %q", res.Prompt)
	}
}

func TestRegistrationOutOfRangeLGAReprompts(t *testing.T) {
	m := NewMainMenu()
	res := walk(t, m, models.Fields{},
		"", "1", "Amina",
		"99", // not on the menu
	)
	if res.Terminal {
		t.Fatal("bad selection must not end the session")
	}
	if !strings.Contains(res.Prompt, "Zaɓi Local Government Area") {
		t.Errorf("expected LGA menu re-render: %q", res.Prompt)
	}
	if _, ok := res.Fields[models.FieldLGA]; ok {
		t.Error("rejected selection must not be stored")
	}
}

func TestRegistrationLGARetryAfterRejection(t *testing.T) {
	m := NewMainMenu()
	res := walk(t, m, models.Fields{},
		"", "1", "Amina",
		"99", // rejected selection
		"2",  // retry: Dala
	)
	if res.Fields[models.FieldLGA] != "Dala" {
		t.Errorf("retried selection not stored: %+v", res.Fields)
	}
	if !strings.Contains(res.Prompt, "shekarun") {
		t.Errorf("expected age question after retry: %q", res.Prompt)
	}
}

func TestRegistrationInvalidDiabetesAnswerReasks(t *testing.T) {
	m := NewMainMenu()
	res := walk(t, m, models.Fields{},
		"", "1", "Amina", "2", "28", futureEDD(4),
		"1", // complications: yes
		"5", // not a diabetes option
	)
	if res.Terminal {
		t.Fatal("bad answer must not end the session")
	}
	if !strings.Contains(res.Prompt, "sukari") {
		t.Errorf("expected the diabetes question again: %q", res.Prompt)
	}
	if _, ok := res.Fields[models.FieldDiabetes]; ok {
		t.Error("rejected answer must not be stored")
	}
	if res.Fields[models.FieldPrevComplicated] != models.FieldValueTrue {
		t.Error("earlier answer must survive the retry")
	}

	// The retry is consumed as the diabetes answer, not replayed into the
	// previous question.
	res2, err := m.Advance(res.Next, res.Fields, "2")
	if err != nil {
		t.Fatalf("retry turn: %v", err)
	}
	if res2.Fields[models.FieldDiabetes] != models.FieldValueFalse {
		t.Errorf("retry not stored as diabetes answer: %+v", res2.Fields)
	}
	if !strings.Contains(res2.Prompt, "tagwaye") {
		t.Errorf("expected multiples question after retry: %q", res2.Prompt)
	}
}

func TestAlreadyRegisteredShortCircuitsRegistration(t *testing.T) {
	m := NewMainMenu()
	fields := models.Fields{
		models.FieldRegistered: models.FieldValueTrue,
		models.FieldUserName:   "Amina",
	}
	res := walk(t, m, fields, "", "1")
	if !res.Terminal {
		t.Fatal("registered caller picking option 1 should get a terminal sheet")
	}
	if !strings.Contains(res.Prompt, "Alamomin haɗari") {
		t.Errorf("expected danger signs sheet: %q", res.Prompt)
	}
}

func TestUnregisteredCallerGatedFromProfile(t *testing.T) {
	m := NewMainMenu()
	for _, choice := range []string{"3", "5", "6"} {
		res := walk(t, m, models.Fields{}, "", choice)
		if !res.Terminal {
			t.Errorf("choice %s: expected terminal gating message", choice)
		}
		if !strings.Contains(res.Prompt, "yi rajista da farko") {
			t.Errorf("choice %s: expected register-first message, got %q", choice, res.Prompt)
		}
	}
}

func TestEmergencyAvailableToEveryone(t *testing.T) {
	m := NewMainMenu()
	res := walk(t, m, models.Fields{}, "", "4")
	if !res.Terminal {
		t.Fatal("emergency sheet should end the session")
	}
	if !strings.Contains(res.Prompt, "GAGGAWA") {
		t.Errorf("expected emergency content: %q", res.Prompt)
	}
}

func TestVaccinationInfoTieredByWeek(t *testing.T) {
	m := NewMainMenu()
	tests := []struct {
		week string
		want string
	}{
		{"8", "6-12 makonni"},
		{"20", "13-24 makonni"},
		{"30", "25+ makonni"},
	}
	for _, tt := range tests {
		fields := models.Fields{
			models.FieldRegistered: models.FieldValueTrue,
			models.FieldUserName:   "Amina",
			models.FieldUserWeek:   tt.week,
		}
		res := walk(t, m, fields, "", "2")
		if !strings.Contains(res.Prompt, tt.want) {
			t.Errorf("week %s: expected %q in prompt %q", tt.week, tt.want, res.Prompt)
		}
	}
}

func TestProfileUpdateWeek(t *testing.T) {
	m := NewMainMenu()
	fields := models.Fields{
		models.FieldRegistered: models.FieldValueTrue,
		models.FieldUserName:   "Amina",
	}
	res := walk(t, m, fields, "", "6", "3", "30")
	if !res.Terminal {
		t.Fatal("week update should end the session")
	}
	if res.Fields[models.FieldUpdateWeek] != "30" {
		t.Errorf("update week not recorded: %+v", res.Fields)
	}
}

func TestProfileUpdateWeekRejectsNonNumeric(t *testing.T) {
	m := NewMainMenu()
	fields := models.Fields{
		models.FieldRegistered: models.FieldValueTrue,
		models.FieldUserName:   "Amina",
	}
	res := walk(t, m, fields, "", "6", "3", "abc")
	if !res.Terminal {
		t.Fatal("invalid week still ends the session with guidance")
	}
	if _, ok := res.Fields[models.FieldUpdateWeek]; ok {
		t.Error("invalid week must not be recorded")
	}
	if !strings.Contains(res.Prompt, "shigar da lamba") {
		t.Errorf("expected numeric guidance: %q", res.Prompt)
	}
}

func TestProfileUpdateName(t *testing.T) {
	m := NewMainMenu()
	fields := models.Fields{
		models.FieldRegistered: models.FieldValueTrue,
		models.FieldUserName:   "Amina",
	}
	res := walk(t, m, fields, "", "6", "1", "Hauwa Musa")
	if !res.Terminal {
		t.Fatal("name update should end the session")
	}
	if res.Fields[models.FieldUpdateName] != "Hauwa Musa" {
		t.Errorf("update name not recorded: %+v", res.Fields)
	}
}
