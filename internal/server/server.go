package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"emotlink/internal/app"
	"emotlink/internal/util"
	"emotlink/pkg/auth"
	"emotlink/pkg/domain"
	"emotlink/pkg/speech"
	"emotlink/pkg/verify"
)

// Transcriber converts a voice recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App      *app.App
	Sessions *auth.SessionManager
	// Verifier and Sender enable the email verification endpoints.
	Verifier *verify.Store
	Sender   verify.Sender
	// Transcriber enables POST /chat/transcribe. Archive, when set,
	// keeps the raw recordings.
	Transcriber Transcriber
	Archive     speech.Archive
	// PublicBaseURL prefixes verification links handed to the Sender.
	PublicBaseURL string
}

// Server exposes the HTTP API.
type Server struct {
	app           *app.App
	sessions      *auth.SessionManager
	verifier      *verify.Store
	sender        verify.Sender
	transcriber   Transcriber
	archive       speech.Archive
	publicBaseURL string
	mux           *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:           cfg.App,
		sessions:      cfg.Sessions,
		verifier:      cfg.Verifier,
		sender:        cfg.Sender,
		transcriber:   cfg.Transcriber,
		archive:       cfg.Archive,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("/api/email/request", s.handleEmailRequest)
	s.mux.HandleFunc("/api/email/verify", s.handleEmailVerify)
	s.mux.HandleFunc("/api/check-id", s.handleCheckID)

	s.mux.Handle("/api/me", s.withUser(s.handleMe))
	s.mux.Handle("/api/account/delete", s.withUser(s.handleAccountDelete))
	s.mux.Handle("/api/account/name", s.withUser(s.handleAccountName))

	s.mux.Handle("/chat/start", s.withUser(s.handleChatStart))
	s.mux.Handle("/chat/message", s.withUser(s.handleChatMessage))
	s.mux.Handle("/chat/transcribe", s.withUser(s.handleTranscribe))

	s.mux.Handle("/api/diary", s.withUser(s.handleDiarySave))
	s.mux.Handle("/api/diary/entries", s.withUser(s.handleDiaryEntries))
	s.mux.Handle("/api/stats", s.withUser(s.handleStats))
	s.mux.Handle("/api/stats/health", s.withUser(s.handleStatsHealth))

	s.mux.Handle("/api/links", s.withUser(s.handleLinks))
	s.mux.Handle("/api/links/requests", s.withUser(s.handleLinkRequests))
	s.mux.Handle("/api/links/respond", s.withUser(s.handleLinkRespond))
	s.mux.Handle("/api/links/emoters/", s.withUser(s.handleLinkedEmoterStats))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, err := s.sessions.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// writeAppError maps application sentinel errors to HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, app.ErrChatForbidden),
		errors.Is(err, app.ErrLinkerForbidden),
		errors.Is(err, app.ErrNotLinker),
		errors.Is(err, app.ErrNotEmoter),
		errors.Is(err, app.ErrLinkNotAccepted),
		errors.Is(err, app.ErrEmailNotVerified):
		status = http.StatusForbidden
	case errors.Is(err, app.ErrEmoterNotFound),
		errors.Is(err, app.ErrLinkNotFound):
		status = http.StatusNotFound
	case errors.Is(err, app.ErrDuplicateUserID),
		errors.Is(err, app.ErrDuplicateEmail):
		status = http.StatusConflict
	case errors.Is(err, app.ErrSessionNotStarted),
		errors.Is(err, app.ErrPasswordMismatch),
		errors.Is(err, app.ErrPasswordTooShort),
		errors.Is(err, app.ErrInvalidUserID),
		errors.Is(err, app.ErrInvalidBirthday),
		errors.Is(err, app.ErrInvalidAccountType):
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}
