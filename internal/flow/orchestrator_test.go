package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lafiya-uwa/ussdcare/internal/models"
	"github.com/lafiya-uwa/ussdcare/internal/notify"
	"github.com/lafiya-uwa/ussdcare/internal/store"
)

// recordingNotifier captures sent messages for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	sent     chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan struct{}, 8)}
}

func (n *recordingNotifier) SendSMS(ctx context.Context, to, body string) error {
	n.mu.Lock()
	n.messages = append(n.messages, to+": "+body)
	n.mu.Unlock()
	n.sent <- struct{}{}
	return nil
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}

func newTestOrchestrator(st *store.MemoryStore, notifier notify.Service) *Orchestrator {
	sm := NewSessionManager(st, time.Minute)
	return NewOrchestrator(NewMainMenu(), sm, st, notifier, WithAlertNumber("+2348090000000"))
}

// dial simulates a gateway conversation: Text accumulates inputs joined by
// "*", exactly as the aggregator posts them.
type dial struct {
	o         *Orchestrator
	sessionID string
	phone     string
	text      string
}

func (d *dial) send(t *testing.T, input string) string {
	t.Helper()
	if input != "" {
		if d.text == "" {
			d.text = input
		} else {
			d.text += "*" + input
		}
	}
	return d.o.HandleTurn(context.Background(), models.USSDRequest{
		SessionID:   d.sessionID,
		ServiceCode: "*347*1#",
		PhoneNumber: d.phone,
		Text:        d.text,
	})
}

func registerCaller(t *testing.T, d *dial, name, eddInput string, answers ...string) string {
	t.Helper()
	d.send(t, "")
	d.send(t, "1")
	d.send(t, name)
	d.send(t, "2")  // LGA: Dala
	d.send(t, "28") // age
	d.send(t, eddInput)
	var reply string
	for _, a := range answers {
		reply = d.send(t, a)
	}
	return reply
}

func TestHandleTurnWelcomesNewCaller(t *testing.T) {
	st := store.NewMemoryStore()
	o := newTestOrchestrator(st, nil)
	d := &dial{o: o, sessionID: "sess-1", phone: "08031234567"}

	reply := d.send(t, "")
	if !strings.HasPrefix(reply, ReplyContinue) {
		t.Fatalf("expected CON reply, got %q", reply)
	}
	if !strings.Contains(reply, "Barka da zuwa") {
		t.Errorf("expected welcome text: %q", reply)
	}
}

func TestHandleTurnFullRegistration(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := newRecordingNotifier()
	o := newTestOrchestrator(st, notifier)
	d := &dial{o: o, sessionID: "sess-1", phone: "08031234567"}

	edd := time.Now().AddDate(0, 4, 0).Format("02-01-2006")
	reply := registerCaller(t, d, "Amina", edd, "1", "1", "1")

	if !strings.HasPrefix(reply, ReplyEnd) {
		t.Fatalf("expected END reply, got %q", reply)
	}
	if !strings.Contains(reply, "Rajista ta yi nasara") {
		t.Errorf("expected success message: %q", reply)
	}

	// User record persisted with the normalized number.
	user, err := st.GetUserByPhone("+2348031234567")
	if err != nil {
		t.Fatalf("GetUserByPhone error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user record after registration")
	}
	if user.Name != "Amina" || user.LGA != "Dala" || user.Age != 28 {
		t.Errorf("unexpected user: %+v", user)
	}
	if user.RiskProfile != models.RiskLevelHigh || user.RiskScore != 50 {
		t.Errorf("unexpected risk: %s/%d", user.RiskProfile, user.RiskScore)
	}

	// Assessment persisted alongside.
	assessments := st.GetAssessments()
	if len(assessments) != 1 {
		t.Fatalf("expected 1 assessment, got %d", len(assessments))
	}
	if assessments[0].UserID != user.ID || assessments[0].Score != 50 {
		t.Errorf("unexpected assessment: %+v", assessments[0])
	}
	if assessments[0].Factors.MultiplePregnancy != models.TriStateYes {
		t.Errorf("multiples answer lost: %+v", assessments[0].Factors)
	}

	// Session must be gone after the terminal turn.
	sess, err := st.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession error: %v", err)
	}
	if sess != nil {
		t.Error("session should be deleted after completion")
	}

	// High risk triggers the operations alert (asynchronously).
	select {
	case <-notifier.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("expected high-risk alert SMS")
	}
	msgs := notifier.all()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "HIGH RISK") {
		t.Errorf("unexpected alert messages: %v", msgs)
	}

	// Audit trail covers the whole journey.
	var types []models.EventType
	for _, e := range st.GetEvents() {
		types = append(types, e.Type)
	}
	for _, want := range []models.EventType{
		models.EventSessionStarted,
		models.EventRegistrationStarted,
		models.EventRegistrationCompleted,
		models.EventRiskAssessed,
		models.EventSessionEnded,
	} {
		found := false
		for _, got := range types {
			if got == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing audit event %s in %v", want, types)
		}
	}
}

func TestHandleTurnLowRiskSendsNoAlert(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := newRecordingNotifier()
	o := newTestOrchestrator(st, notifier)
	d := &dial{o: o, sessionID: "sess-1", phone: "08031234567"}

	edd := time.Now().AddDate(0, 5, 0).Format("02-01-2006")
	reply := registerCaller(t, d, "Hauwa", edd, "2", "2", "2")
	if !strings.HasPrefix(reply, ReplyEnd) {
		t.Fatalf("expected END reply, got %q", reply)
	}

	select {
	case <-notifier.sent:
		t.Fatal("low risk registration must not alert operations")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandleTurnRecognizesRegisteredCaller(t *testing.T) {
	st := store.NewMemoryStore()
	o := newTestOrchestrator(st, nil)

	edd := time.Now().AddDate(0, 4, 0).Format("02-01-2006")
	d1 := &dial{o: o, sessionID: "sess-1", phone: "08031234567"}
	registerCaller(t, d1, "Amina", edd, "2", "2", "2")

	// Same caller, new session: personalized menu.
	d2 := &dial{o: o, sessionID: "sess-2", phone: "08031234567"}
	reply := d2.send(t, "")
	if !strings.Contains(reply, "Sannu Amina") {
		t.Errorf("expected personalized greeting: %q", reply)
	}

	// Option 1 now shows danger signs instead of restarting registration.
	reply = d2.send(t, "1")
	if !strings.HasPrefix(reply, ReplyEnd) || !strings.Contains(reply, "Alamomin haɗari") {
		t.Errorf("expected danger signs sheet: %q", reply)
	}
}

func TestHandleTurnProfileUpdatePersists(t *testing.T) {
	st := store.NewMemoryStore()
	o := newTestOrchestrator(st, nil)

	edd := time.Now().AddDate(0, 4, 0).Format("02-01-2006")
	d1 := &dial{o: o, sessionID: "sess-1", phone: "08031234567"}
	registerCaller(t, d1, "Amina", edd, "2", "2", "2")

	d2 := &dial{o: o, sessionID: "sess-2", phone: "08031234567"}
	d2.send(t, "")
	d2.send(t, "6")
	d2.send(t, "3")
	reply := d2.send(t, "30")
	if !strings.HasPrefix(reply, ReplyEnd) {
		t.Fatalf("expected END reply, got %q", reply)
	}

	user, err := st.GetUserByPhone("+2348031234567")
	if err != nil {
		t.Fatalf("GetUserByPhone error: %v", err)
	}
	if user.CurrentWeek != 30 {
		t.Errorf("week not persisted: %d", user.CurrentWeek)
	}
	if user.Name != "Amina" {
		t.Errorf("name changed unexpectedly: %q", user.Name)
	}
}

func TestHandleTurnInvalidRequest(t *testing.T) {
	st := store.NewMemoryStore()
	o := newTestOrchestrator(st, nil)

	reply := o.HandleTurn(context.Background(), models.USSDRequest{Text: "1"})
	if !strings.HasPrefix(reply, ReplyEnd) {
		t.Fatalf("expected END reply, got %q", reply)
	}
	if !strings.Contains(reply, "an sami matsala") {
		t.Errorf("expected apology message: %q", reply)
	}
}

func TestHandleTurnInvalidPhone(t *testing.T) {
	st := store.NewMemoryStore()
	o := newTestOrchestrator(st, nil)

	reply := o.HandleTurn(context.Background(), models.USSDRequest{
		SessionID:   "sess-1",
		PhoneNumber: "12",
		Text:        "",
	})
	if !strings.HasPrefix(reply, ReplyEnd) || !strings.Contains(reply, "an sami matsala") {
		t.Errorf("expected apology for bad caller number: %q", reply)
	}
}

// failingStore wraps MemoryStore and fails user creation.
type failingStore struct {
	*store.MemoryStore
}

func (f *failingStore) CreateUser(u models.User) error {
	return errors.New("backend down")
}

func TestHandleTurnPersistenceFailureApologizes(t *testing.T) {
	st := &failingStore{store.NewMemoryStore()}
	sm := NewSessionManager(st, time.Minute)
	o := NewOrchestrator(NewMainMenu(), sm, st, nil)
	d := &dial{o: o, sessionID: "sess-1", phone: "08031234567"}

	edd := time.Now().AddDate(0, 4, 0).Format("02-01-2006")
	reply := registerCaller(t, d, "Amina", edd, "2", "2", "2")
	if !strings.HasPrefix(reply, ReplyEnd) || !strings.Contains(reply, "an sami matsala") {
		t.Errorf("expected apology on persistence failure: %q", reply)
	}
}

func TestHandleTurnExpiredSessionRestarts(t *testing.T) {
	st := store.NewMemoryStore()
	o := newTestOrchestrator(st, nil)
	d := &dial{o: o, sessionID: "sess-1", phone: "08031234567"}

	d.send(t, "")
	d.send(t, "1")

	// Force the stored session past its TTL.
	sess, err := st.GetSession("sess-1")
	if err != nil || sess == nil {
		t.Fatalf("expected stored session, got (%v, %v)", sess, err)
	}
	sess.ExpiresAt = time.Now().Add(-time.Second)
	if err := st.SaveSession(*sess); err != nil {
		t.Fatalf("SaveSession error: %v", err)
	}

	// The next answer arrives against a dead session: the caller is
	// restarted at the welcome screen, not wedged mid-flow.
	reply := d.send(t, "Amina")
	if !strings.HasPrefix(reply, ReplyContinue) {
		t.Fatalf("expected CON restart, got %q", reply)
	}
	if !strings.Contains(reply, "Barka da zuwa") {
		t.Errorf("expected welcome screen after expiry: %q", reply)
	}
}

func TestHandleTurnConcurrentSessionsIsolated(t *testing.T) {
	st := store.NewMemoryStore()
	o := newTestOrchestrator(st, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			phone := fmt.Sprintf("0803123%04d", i)
			d := &dial{o: o, sessionID: fmt.Sprintf("sess-%d", i), phone: phone}
			edd := time.Now().AddDate(0, 4, 0).Format("02-01-2006")
			name := fmt.Sprintf("Caller%d", i)
			reply := registerCaller(t, d, name, edd, "2", "2", "2")
			if !strings.Contains(reply, "Rajista ta yi nasara") {
				t.Errorf("session %d: registration failed: %q", i, reply)
			}
		}(i)
	}
	wg.Wait()

	users, err := st.ListActiveUsers()
	if err != nil {
		t.Fatalf("ListActiveUsers error: %v", err)
	}
	if len(users) != 8 {
		t.Errorf("expected 8 users, got %d", len(users))
	}
}
