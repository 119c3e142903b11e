package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/lafiya-uwa/ussdcare/internal/flow"
	"github.com/lafiya-uwa/ussdcare/internal/models"
	"github.com/lafiya-uwa/ussdcare/internal/store"
)

func newTestServer() (*Server, *store.MemoryStore) {
	st := store.NewMemoryStore()
	sessions := flow.NewSessionManager(st, time.Minute)
	orchestrator := flow.NewOrchestrator(flow.NewMainMenu(), sessions, st, nil)
	return NewServer(orchestrator, st), st
}

func postUSSD(t *testing.T, handler http.Handler, sessionID, phone, text string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("sessionId", sessionID)
	form.Set("serviceCode", "*347*1#")
	form.Set("phoneNumber", phone)
	form.Set("text", text)

	req := httptest.NewRequest(http.MethodPost, "/api/ussd", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestUSSDHandlerWelcome(t *testing.T) {
	server, _ := newTestServer()
	rr := postUSSD(t, server.Handler(), "sess-1", "08031234567", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q, want text/plain", ct)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "CON ") {
		t.Errorf("expected CON reply, got %q", body)
	}
	if !strings.Contains(body, "Barka da zuwa") {
		t.Errorf("expected welcome text: %q", body)
	}
}

func TestUSSDHandlerFullRegistration(t *testing.T) {
	server, st := newTestServer()
	h := server.Handler()

	edd := time.Now().AddDate(0, 4, 0).Format("02-01-2006")
	inputs := []string{"1", "Amina", "2", "28", edd, "2", "2", "2"}

	rr := postUSSD(t, h, "sess-1", "08031234567", "")
	var text string
	for _, input := range inputs {
		if text == "" {
			text = input
		} else {
			text += "*" + input
		}
		rr = postUSSD(t, h, "sess-1", "08031234567", text)
		if rr.Code != http.StatusOK {
			t.Fatalf("input %q: status = %d", input, rr.Code)
		}
	}

	body := rr.Body.String()
	if !strings.HasPrefix(body, "END ") {
		t.Fatalf("expected END reply, got %q", body)
	}
	if !strings.Contains(body, "Rajista ta yi nasara") {
		t.Errorf("expected success message: %q", body)
	}

	user, err := st.GetUserByPhone("+2348031234567")
	if err != nil {
		t.Fatalf("GetUserByPhone error: %v", err)
	}
	if user == nil || user.Name != "Amina" {
		t.Fatalf("user not persisted: %+v", user)
	}
}

func TestUSSDHandlerRejectsGet(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/ussd", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

func TestUSSDHandlerMissingFieldsStillReplies(t *testing.T) {
	server, _ := newTestServer()
	rr := postUSSD(t, server.Handler(), "", "", "1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (gateway renders the body)", rr.Code)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "END ") || !strings.Contains(body, "an sami matsala") {
		t.Errorf("expected apology END reply, got %q", body)
	}
}

func TestUserHandlerLookup(t *testing.T) {
	server, st := newTestServer()
	now := time.Now()
	err := st.CreateUser(models.User{
		ID:          "u-1",
		PhoneNumber: "+2348031234567",
		Name:        "Amina",
		LGA:         "Dala",
		Age:         28,
		CurrentWeek: 22,
		RiskProfile: models.RiskLevelLow,
		Status:      models.UserStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}

	// Lookup accepts the local format and normalizes it.
	req := httptest.NewRequest(http.MethodGet, "/api/users?phone=08031234567", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}
	var resp models.APIResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	result := resp.Result.(map[string]interface{})
	if result["name"] != "Amina" {
		t.Errorf("unexpected result: %v", result)
	}
}

func TestUserHandlerNotFound(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/users?phone=08039999999", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestUserHandlerRequiresPhone(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	server, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp models.APIResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}
