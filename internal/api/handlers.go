// Package api provides HTTP handlers for ussdcare endpoints.
package api

import (
	"log/slog"
	"net/http"

	"github.com/lafiya-uwa/ussdcare/internal/flow"
	"github.com/lafiya-uwa/ussdcare/internal/models"
	"github.com/lafiya-uwa/ussdcare/internal/validate"
)

// ussdHandler is the gateway webhook. The aggregator posts one form-encoded
// request per dialog turn and renders whatever plain text comes back, so
// this handler always answers 200 with a CON/END body, even on bad input.
func (s *Server) ussdHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.ussdHandler: processing turn", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.ussdHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.ussdHandler: failed to parse form", "error", err)
		writeUSSDReply(w, flow.ReplyEnd+"Hakuri, an sami matsala. Don Allah sake gwadawa.")
		return
	}

	req := models.USSDRequest{
		SessionID:   r.PostFormValue("sessionId"),
		ServiceCode: r.PostFormValue("serviceCode"),
		PhoneNumber: r.PostFormValue("phoneNumber"),
		Text:        r.PostFormValue("text"),
		NetworkCode: r.PostFormValue("networkCode"),
	}

	reply := s.orchestrator.HandleTurn(r.Context(), req)
	writeUSSDReply(w, reply)
}

func writeUSSDReply(w http.ResponseWriter, reply string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(reply)); err != nil {
		slog.Error("Server.writeUSSDReply: failed to write reply", "error", err)
	}
}

// userHandler looks up a registered user by phone number for operations
// dashboards: GET /api/users?phone=0803...
func (s *Server) userHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.userHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	phone := r.URL.Query().Get("phone")
	if phone == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("phone query parameter is required"))
		return
	}
	normalized, err := validate.NormalizePhone(phone)
	if err != nil {
		slog.Warn("Server.userHandler: invalid phone", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid phone number format"))
		return
	}

	user, err := s.st.GetUserByPhone(normalized)
	if err != nil {
		slog.Error("Server.userHandler: lookup failed", "error", err, "phone", normalized)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to look up user"))
		return
	}
	if user == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("user not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(user))
}

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"service": "ussdcare"}))
}
