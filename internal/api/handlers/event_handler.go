package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/prep-deck-be/internal/auth"
	"github.com/isdelr/prep-deck-be/internal/services"
	"github.com/rs/zerolog/log"
)

const maxEventLimit = 100

// EventHandler handles HTTP requests related to user activity.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent handles the request to get the caller's recent activity.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	userID := auth.UserIDFromContext(r.Context())
	events, err := h.service.GetRecentEvents(r.Context(), userID, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to retrieve events")
		writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "data": events})
}
