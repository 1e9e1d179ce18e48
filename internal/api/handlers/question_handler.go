package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/prep-deck-be/internal/auth"
	"github.com/isdelr/prep-deck-be/internal/services"
	"github.com/rs/zerolog/log"
)

// QuestionHandler handles adding questions to a session and per-question updates.
type QuestionHandler struct {
	service services.QuestionServiceProvider
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(service services.QuestionServiceProvider) *QuestionHandler {
	return &QuestionHandler{service: service}
}

// AddToSession handles POST /api/questions/add.
func (h *QuestionHandler) AddToSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string                   `json:"sessionId"`
		Questions []services.QuestionInput `json:"questions"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.SessionID == "" || len(payload.Questions) == 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid input data")
		return
	}

	questions, err := h.service.AddQuestions(r.Context(), payload.SessionID, auth.UserIDFromContext(r.Context()), payload.Questions)
	if err != nil {
		switch statusFor(err) {
		case http.StatusNotFound:
			writeMessage(w, http.StatusNotFound, "Session not found")
		case http.StatusUnauthorized:
			writeMessage(w, http.StatusUnauthorized, "Not authorized to modify this session")
		case http.StatusBadRequest:
			writeMessage(w, http.StatusBadRequest, "Invalid input data")
		default:
			log.Error().Err(err).Str("session_id", payload.SessionID).Msg("Failed to add questions")
			writeServerError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "questions": questions})
}

// TogglePin handles POST /api/questions/{id}/pin.
func (h *QuestionHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	question, err := h.service.TogglePin(r.Context(), id, auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, err, id, "Failed to toggle pin")
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "question": question})
}

// UpdateNote handles POST /api/questions/{id}/note.
func (h *QuestionHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload struct {
		Note string `json:"note"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	question, err := h.service.UpdateNote(r.Context(), id, auth.UserIDFromContext(r.Context()), payload.Note)
	if err != nil {
		h.fail(w, err, id, "Failed to update note")
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "question": question})
}

func (h *QuestionHandler) fail(w http.ResponseWriter, err error, id, msg string) {
	switch statusFor(err) {
	case http.StatusNotFound:
		writeMessage(w, http.StatusNotFound, "Question not found")
	case http.StatusUnauthorized:
		writeMessage(w, http.StatusUnauthorized, "Not authorized to modify this question")
	default:
		log.Error().Err(err).Str("question_id", id).Msg(msg)
		writeServerError(w, err)
	}
}
