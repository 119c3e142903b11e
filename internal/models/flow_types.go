// Package models defines flow type definitions to avoid circular imports.
package models

// StateType names a specific state within the dialog flow.
type StateType string

// FieldKey identifies one accumulated answer in a session.
type FieldKey string

// State constants for the main menu.
const (
	StateStart         StateType = "start"
	StateMenuRegister  StateType = "menu-register"
	StateMenuAbout     StateType = "menu-about"
	StateMenuCallback  StateType = "menu-callback"
	StateMenuEmergency StateType = "menu-emergency"
	StateMenuProfile   StateType = "menu-profile"
	StateMenuUpdate    StateType = "menu-update"
)

// State constants for the registration flow.
const (
	StateCollectName          StateType = "collect-name"
	StateCollectLGA           StateType = "collect-lga"
	StateCollectAge           StateType = "collect-age"
	StateCollectEDD           StateType = "collect-edd"
	StateCollectComplications StateType = "collect-complications"
	StateCollectDiabetes      StateType = "collect-diabetes"
	StateCollectMultiples     StateType = "collect-multiples"
	StateFinalize             StateType = "finalize"
)

// State constants for the profile update sub-flow.
const (
	StateUpdateName      StateType = "update-name"
	StateUpdateNameApply StateType = "update-name-apply"
	StateUpdateLGA       StateType = "update-lga"
	StateUpdateLGAApply  StateType = "update-lga-apply"
	StateUpdateWeek      StateType = "update-week"
	StateUpdateWeekApply StateType = "update-week-apply"
)

// Field keys collected by the registration flow.
const (
	FieldName            FieldKey = "name"
	FieldLGA             FieldKey = "lga"
	FieldAge             FieldKey = "age"
	FieldEDD             FieldKey = "edd"
	FieldWeek            FieldKey = "week"
	FieldPrevComplicated FieldKey = "previousComplications"
	FieldFirstPregnancy  FieldKey = "firstPregnancy"
	FieldDiabetes        FieldKey = "gestationalDiabetes"
	FieldMultiples       FieldKey = "multiplePregnancy"
)

// Field keys written by the finalize state for the orchestrator to persist.
const (
	FieldRiskLevel FieldKey = "riskLevel"
	FieldRiskScore FieldKey = "riskScore"
)

// Field keys written by the profile update sub-flow.
const (
	FieldUpdateName FieldKey = "updateName"
	FieldUpdateLGA  FieldKey = "updateLGA"
	FieldUpdateWeek FieldKey = "updateWeek"
)

// Field keys injected by the orchestrator from the user record so that state
// actions stay pure functions of (input, fields).
const (
	FieldRegistered FieldKey = "registered"
	FieldUserName   FieldKey = "userName"
	FieldUserLGA    FieldKey = "userLGA"
	FieldUserWeek   FieldKey = "userWeek"
	FieldUserRisk   FieldKey = "userRisk"
	FieldUserPhone  FieldKey = "userPhone"
)

// Boolean field values. Fields hold strings only, so flags use these markers.
const (
	FieldValueTrue  = "true"
	FieldValueFalse = "false"
)

// Fields is the ordered-by-key mapping of answers accumulated in a session.
type Fields map[FieldKey]string

// Clone returns a copy of the field map so state actions never mutate the
// caller's view of a session.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Bool reports whether the field holds the true marker.
func (f Fields) Bool(key FieldKey) bool {
	return f[key] == FieldValueTrue
}
