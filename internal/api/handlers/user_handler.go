package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/isdelr/prep-deck-be/internal/auth"
	"github.com/isdelr/prep-deck-be/internal/models"
	"github.com/isdelr/prep-deck-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles registration, login and profile requests.
type UserHandler struct {
	service      services.UserServiceProvider
	secureCookie bool
	cookieTTL    time.Duration
}

// NewUserHandler creates a new UserHandler. secureCookie should be true in
// production so the token cookie is only sent over HTTPS.
func NewUserHandler(service services.UserServiceProvider, secureCookie bool, cookieTTL time.Duration) *UserHandler {
	return &UserHandler{service: service, secureCookie: secureCookie, cookieTTL: cookieTTL}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profileImageUrl"`
	Token           string `json:"token"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload.Name, payload.Email, payload.Password, payload.ProfileImageURL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConflict):
			writeMessage(w, http.StatusBadRequest, "User already exists")
		case errors.Is(err, services.ErrValidation):
			writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
			writeServerError(w, err)
		}
		return
	}

	h.respondWithToken(w, http.StatusCreated, user)
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
			writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to authenticate user")
		writeServerError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusOK, user)
}

// GetProfile returns the currently authenticated user.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load profile")
		writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) respondWithToken(w http.ResponseWriter, status int, user models.User) {
	token, err := auth.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		writeServerError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	writeJSON(w, status, AuthResponse{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		ProfileImageURL: user.ProfileImageURL,
		Token:           token,
	})
}
