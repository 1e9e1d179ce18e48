package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/prep-deck-be/internal/api/handlers"
	"github.com/isdelr/prep-deck-be/internal/auth"
	"github.com/isdelr/prep-deck-be/internal/logger"
	"github.com/isdelr/prep-deck-be/internal/services"
	"github.com/isdelr/prep-deck-be/internal/websocket"
)

// Deps bundles everything the router needs to build its handlers.
type Deps struct {
	Hub             *websocket.Hub
	UserService     services.UserServiceProvider
	SessionService  services.SessionServiceProvider
	QuestionService services.QuestionServiceProvider
	EventService    services.EventServiceProvider
	Health          handlers.HealthProbe

	AllowedOrigins []string
	SecureCookies  bool
	TokenTTL       time.Duration
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(d.UserService, d.SecureCookies, d.TokenTTL)
	sessionHandler := handlers.NewSessionHandler(d.SessionService)
	questionHandler := handlers.NewQuestionHandler(d.QuestionService)
	eventHandler := handlers.NewEventHandler(d.EventService)
	healthHandler := handlers.NewHealthHandler(d.Health)

	protect := auth.JWTMiddleware()

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Get)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.With(protect).Get("/profile", userHandler.GetProfile)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.With(protect).Post("/", sessionHandler.Create)
			r.With(protect).Get("/my", sessionHandler.GetMine)
			r.Get("/{id}", sessionHandler.Get)
			r.With(protect).Delete("/{id}", sessionHandler.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.Post("/questions/add", questionHandler.AddToSession)
			r.Post("/questions/{id}/pin", questionHandler.TogglePin)
			r.Post("/questions/{id}/note", questionHandler.UpdateNote)
			r.Get("/events", eventHandler.GetRecent)
			if d.Hub != nil {
				wsHandler := handlers.NewWebSocketHandler(d.Hub, d.AllowedOrigins)
				r.Get("/ws", wsHandler.Serve)
			}
		})
	})

	return r
}
