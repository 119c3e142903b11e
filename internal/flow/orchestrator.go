package flow

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lafiya-uwa/ussdcare/internal/models"
	"github.com/lafiya-uwa/ussdcare/internal/notify"
	"github.com/lafiya-uwa/ussdcare/internal/store"
	"github.com/lafiya-uwa/ussdcare/internal/validate"
)

// Reply prefixes expected by the USSD gateway.
const (
	ReplyContinue = "CON "
	ReplyEnd      = "END "
)

// Orchestrator glues the state machine to its collaborators. On each turn it
// loads the accumulated session, advances the machine one step, persists the
// outcome, and renders the gateway reply.
type Orchestrator struct {
	machine     *Machine
	sessions    *SessionManager
	store       store.Store
	notifier    notify.Service
	alertNumber string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAlertNumber sets the operations number that receives high-risk alerts.
func WithAlertNumber(number string) Option {
	return func(o *Orchestrator) { o.alertNumber = number }
}

// NewOrchestrator wires the dialog engine to its session manager, record
// store, and SMS service.
func NewOrchestrator(m *Machine, sessions *SessionManager, st store.Store, notifier notify.Service, opts ...Option) *Orchestrator {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	o := &Orchestrator{machine: m, sessions: sessions, store: st, notifier: notifier}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleTurn processes one inbound request and always returns a syntactically
// valid gateway reply. Internal failures are logged for operators and
// rendered to the caller as the bilingual apology message, never as a raw
// error.
func (o *Orchestrator) HandleTurn(ctx context.Context, req models.USSDRequest) string {
	if err := req.Validate(); err != nil {
		slog.Warn("Orchestrator.HandleTurn: invalid request", "error", err, "sessionID", req.SessionID)
		return ReplyEnd + promptRegistrationError
	}

	phone, err := validate.NormalizePhone(req.PhoneNumber)
	if err != nil {
		slog.Warn("Orchestrator.HandleTurn: unparseable caller number", "error", err, "sessionID", req.SessionID)
		return ReplyEnd + promptRegistrationError
	}

	unlock := o.sessions.Lock(req.SessionID)
	defer unlock()

	input := req.LatestInput()

	sess, expired, err := o.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return ReplyEnd + promptRegistrationError
	}
	if sess == nil {
		if expired && input != "" {
			// Mid-flow expiry: restart at the initial state and re-render
			// the welcome menu instead of interpreting a stale answer.
			slog.Info("Orchestrator.HandleTurn: session expired, restarting", "sessionID", req.SessionID)
			input = ""
		}
		sess, err = o.newSession(ctx, req.SessionID, phone)
		if err != nil {
			return ReplyEnd + promptRegistrationError
		}
		o.logEvent(ctx, models.EventSessionStarted, "", phone, req.SessionID, map[string]string{
			"serviceCode": req.ServiceCode,
			"networkCode": req.NetworkCode,
		})
	}

	previous := sess.Current
	res, err := o.machine.Advance(sess.Current, sess.Fields, input)
	if err != nil {
		// Unknown state means a registry bug, not bad input. Drop the
		// session so the caller is not wedged on a broken state name.
		slog.Error("Orchestrator.HandleTurn: advance failed", "error", err, "sessionID", req.SessionID, "state", sess.Current)
		if delErr := o.sessions.Delete(ctx, req.SessionID); delErr != nil {
			slog.Warn("Orchestrator.HandleTurn: cleanup failed", "error", delErr, "sessionID", req.SessionID)
		}
		return ReplyEnd + promptRegistrationError
	}

	if previous == models.StateMenuRegister && res.Next == models.StateCollectName {
		o.logEvent(ctx, models.EventRegistrationStarted, "", phone, req.SessionID, nil)
	}

	if res.Terminal {
		if err := o.completeSession(ctx, sess, res); err != nil {
			slog.Error("Orchestrator.HandleTurn: terminal persistence failed", "error", err, "sessionID", req.SessionID)
			if delErr := o.sessions.Delete(ctx, req.SessionID); delErr != nil {
				slog.Warn("Orchestrator.HandleTurn: cleanup failed", "error", delErr, "sessionID", req.SessionID)
			}
			return ReplyEnd + promptRegistrationError
		}
		if err := o.sessions.Delete(ctx, req.SessionID); err != nil {
			slog.Warn("Orchestrator.HandleTurn: session delete failed", "error", err, "sessionID", req.SessionID)
		}
		o.logEvent(ctx, models.EventSessionEnded, "", phone, req.SessionID, map[string]string{
			"finalState": string(res.Next),
		})
		return ReplyEnd + res.Prompt
	}

	sess.Current = res.Next
	sess.Fields = res.Fields
	if err := o.sessions.Save(ctx, sess); err != nil {
		return ReplyEnd + promptRegistrationError
	}
	return ReplyContinue + res.Prompt
}

// newSession creates a fresh session at the initial state, seeding the
// fields with the caller's registration status so state actions can branch
// without doing lookups themselves.
func (o *Orchestrator) newSession(ctx context.Context, sessionID, phone string) (*models.Session, error) {
	fields := models.Fields{models.FieldUserPhone: phone}
	user, err := o.store.GetUserByPhone(phone)
	if err != nil {
		slog.Error("Orchestrator.newSession: user lookup failed", "error", err, "phone", phone)
		return nil, err
	}
	if user != nil {
		fields[models.FieldRegistered] = models.FieldValueTrue
		fields[models.FieldUserName] = user.Name
		fields[models.FieldUserLGA] = user.LGA
		fields[models.FieldUserWeek] = strconv.Itoa(user.CurrentWeek)
		fields[models.FieldUserRisk] = string(user.RiskProfile)
	}
	return &models.Session{
		ID:          sessionID,
		PhoneNumber: phone,
		Current:     o.machine.Initial(),
		Fields:      fields,
	}, nil
}

// completeSession applies the side effects a terminal turn calls for:
// creating the user and assessment after registration, or applying profile
// updates. Pure informational endings need nothing.
func (o *Orchestrator) completeSession(ctx context.Context, sess *models.Session, res Result) error {
	if _, done := res.Fields[models.FieldRiskScore]; done && res.Next == models.StateFinalize {
		return o.completeRegistration(ctx, sess, res.Fields)
	}
	return o.applyProfileUpdates(ctx, sess, res.Fields)
}

func (o *Orchestrator) completeRegistration(ctx context.Context, sess *models.Session, fields models.Fields) error {
	now := time.Now()
	age, _ := strconv.Atoi(fields[models.FieldAge])
	week, _ := strconv.Atoi(fields[models.FieldWeek])
	score, _ := strconv.Atoi(fields[models.FieldRiskScore])
	level := models.RiskLevel(fields[models.FieldRiskLevel])
	edd, _ := time.Parse(validate.EDDLayout, fields[models.FieldEDD])

	user := models.User{
		ID:                   uuid.NewString(),
		PhoneNumber:          sess.PhoneNumber,
		Name:                 fields[models.FieldName],
		LGA:                  fields[models.FieldLGA],
		Age:                  age,
		ExpectedDeliveryDate: edd,
		CurrentWeek:          week,
		RiskProfile:          level,
		RiskScore:            score,
		LanguagePreference:   "hausa",
		Status:               models.UserStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := o.store.CreateUser(user); err != nil {
		return err
	}

	assessment := models.RiskAssessment{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Factors:    FactorsFromFields(fields),
		Score:      score,
		Level:      level,
		AssessedBy: "system",
		AssessedAt: now,
	}
	if err := o.store.AddAssessment(assessment); err != nil {
		return err
	}

	o.logEvent(ctx, models.EventRegistrationCompleted, user.ID, user.PhoneNumber, sess.ID, map[string]string{
		"riskLevel": string(level),
		"riskScore": fields[models.FieldRiskScore],
	})
	o.logEvent(ctx, models.EventRiskAssessed, user.ID, user.PhoneNumber, sess.ID, nil)

	if level == models.RiskLevelHigh {
		slog.Warn("High risk user registered, alert needed", "userID", user.ID, "phone", user.PhoneNumber, "score", score)
		o.sendHighRiskAlert(user)
	}
	slog.Info("Registration completed", "userID", user.ID, "riskLevel", level, "riskScore", score)
	return nil
}

func (o *Orchestrator) applyProfileUpdates(ctx context.Context, sess *models.Session, fields models.Fields) error {
	var upd models.UserUpdate
	changed := false
	if v, ok := fields[models.FieldUpdateName]; ok {
		upd.Name = &v
		changed = true
	}
	if v, ok := fields[models.FieldUpdateLGA]; ok {
		upd.LGA = &v
		changed = true
	}
	if v, ok := fields[models.FieldUpdateWeek]; ok {
		if week, err := strconv.Atoi(v); err == nil {
			upd.CurrentWeek = &week
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return o.store.UpdateUser(sess.PhoneNumber, upd)
}

// sendHighRiskAlert notifies operations about a high-risk registration.
// Fire-and-forget: a delivery failure is logged, never surfaced to the
// caller.
func (o *Orchestrator) sendHighRiskAlert(user models.User) {
	if o.alertNumber == "" {
		return
	}
	body := "HIGH RISK registration: " + user.Name + " (" + user.PhoneNumber + "), LGA " +
		user.LGA + ", week " + strconv.Itoa(user.CurrentWeek) + ", score " + strconv.Itoa(user.RiskScore) +
		". Contact within 24h."
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.notifier.SendSMS(ctx, o.alertNumber, body); err != nil {
			slog.Error("High risk alert delivery failed", "error", err, "userID", user.ID)
		}
	}()
}

// logEvent records an audit event. Failures are logged and swallowed; the
// audit trail is advisory and must never abort a dialog turn.
func (o *Orchestrator) logEvent(ctx context.Context, eventType models.EventType, userID, phone, sessionID string, payload map[string]string) {
	event := models.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		UserID:      userID,
		PhoneNumber: phone,
		SessionID:   sessionID,
		Payload:     payload,
		Timestamp:   time.Now(),
	}
	if err := o.store.AddEvent(event); err != nil {
		slog.Warn("Orchestrator.logEvent: event write failed", "error", err, "type", eventType)
	}
}
