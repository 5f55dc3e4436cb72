package server

import (
	"net/http"
	"strings"

	"emotlink/internal/app"
	"emotlink/pkg/domain"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req app.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.SignUp(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	user, err := s.app.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	token, err := s.sessions.Issue(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue session")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Sessions are stateless bearer tokens; logout is a client-side discard.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAccountDelete(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DeleteAccount(r.Context(), user); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAccountName(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.UpdateName(r.Context(), user, req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleEmailRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.verifier == nil || s.sender == nil {
		writeError(w, http.StatusNotImplemented, "email verification not configured")
		return
	}
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	token, err := s.verifier.Request(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue verification token")
		return
	}
	verifyURL := s.publicBaseURL + "/api/email/verify?token=" + token
	if err := s.sender.SendVerification(r.Context(), req.Email, verifyURL); err != nil {
		writeError(w, http.StatusInternalServerError, "could not send verification mail")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleEmailVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.verifier == nil {
		writeError(w, http.StatusNotImplemented, "email verification not configured")
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	email, ok, err := s.verifier.Confirm(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not confirm token")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified", "email": email, "token": token})
}

type checkIDRequest struct {
	ID string `json:"id"`
}

type checkIDResponse struct {
	Available bool `json:"available"`
}

func (s *Server) handleCheckID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req checkIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	available, err := s.app.IDAvailable(r.Context(), req.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not check id")
		return
	}
	writeJSON(w, http.StatusOK, checkIDResponse{Available: available})
}
