package server

import (
	"net/http"
	"strings"

	"emotlink/pkg/domain"
)

type addLinkRequest struct {
	// Emoter is the target's user ID or email address.
	Emoter string `json:"emoter"`
}

// handleLinks serves the linker-side collection: POST requests a new
// link, GET lists linked emoters, DELETE removes one.
func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodPost:
		var req addLinkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Emoter) == "" {
			writeError(w, http.StatusBadRequest, "emoter is required")
			return
		}
		if err := s.app.AddEmoterLink(r.Context(), user, strings.TrimSpace(req.Emoter)); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "requested"})
	case http.MethodGet:
		linked, err := s.app.ListLinkedEmoters(r.Context(), user)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, linked)
	case http.MethodDelete:
		var req removeLinkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		other := req.EmoterID
		if other == "" {
			other = req.LinkerID
		}
		if other == "" {
			writeError(w, http.StatusBadRequest, "counterpart id is required")
			return
		}
		if err := s.app.RemoveLink(r.Context(), user, other); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	default:
		methodNotAllowed(w)
	}
}

type removeLinkRequest struct {
	LinkerID string `json:"linkerId"`
	EmoterID string `json:"emoterId"`
}

func (s *Server) handleLinkRequests(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	pending, err := s.app.PendingRequests(r.Context(), user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

type respondRequest struct {
	LinkerID string `json:"linkerId"`
	Action   string `json:"action"`
}

func (s *Server) handleLinkRespond(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req respondRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.LinkerID == "" {
		writeError(w, http.StatusBadRequest, "linkerId is required")
		return
	}
	var accept bool
	var status domain.LinkStatus
	switch req.Action {
	case "accept":
		accept, status = true, domain.LinkAccepted
	case "decline":
		accept, status = false, domain.LinkDeclined
	default:
		writeError(w, http.StatusBadRequest, "action must be accept or decline")
		return
	}
	if err := s.app.Respond(r.Context(), user, req.LinkerID, accept); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

type linkedStatsResponse struct {
	Stats  domain.EmotionStats    `json:"stats"`
	Health domain.HealthIndicator `json:"health"`
}

// handleLinkedEmoterStats serves GET /api/links/emoters/{id}/stats.
func (s *Server) handleLinkedEmoterStats(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/links/emoters/")
	emoterID, tail, found := strings.Cut(rest, "/")
	if !found || tail != "stats" || emoterID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	stats, health, err := s.app.LinkedEmoterStats(r.Context(), user, emoterID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, linkedStatsResponse{Stats: stats, Health: health})
}
