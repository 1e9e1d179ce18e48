package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/prep-deck-be/internal/auth"
	"github.com/isdelr/prep-deck-be/internal/services"
	"github.com/rs/zerolog/log"
)

// SessionHandler handles HTTP requests for interview-prep sessions.
type SessionHandler struct {
	service services.SessionServiceProvider
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(service services.SessionServiceProvider) *SessionHandler {
	return &SessionHandler{service: service}
}

// Create handles POST /api/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload services.CreateSessionInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	session, err := h.service.CreateSession(r.Context(), userID, payload)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create session")
		writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"success": true, "session": session})
}

// GetMine handles GET /api/sessions/my.
func (h *SessionHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sessions, err := h.service.ListSessionsForOwner(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list sessions")
		writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "data": sessions})
}

// Get handles GET /api/sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := h.service.GetSessionByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Session not found")
			return
		}
		log.Error().Err(err).Str("session_id", id).Msg("Failed to get session")
		writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "session": session})
}

// Delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := auth.UserIDFromContext(r.Context())

	err := h.service.DeleteSession(r.Context(), id, userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, envelope{"message": "Session deleted successfully"})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, envelope{"message": "Session not found"})
	case errors.Is(err, services.ErrUnauthorized):
		log.Warn().Str("session_id", id).Str("user_id", userID).Msg("Rejected delete of another user's session")
		writeJSON(w, http.StatusUnauthorized, envelope{"message": "Not authorized to delete this session"})
	default:
		log.Error().Err(err).Str("session_id", id).Msg("Failed to delete session")
		writeServerError(w, err)
	}
}
