package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/prep-deck-be/internal/api"
	"github.com/isdelr/prep-deck-be/internal/auth"
	"github.com/isdelr/prep-deck-be/internal/config"
	"github.com/isdelr/prep-deck-be/internal/database"
	"github.com/isdelr/prep-deck-be/internal/logger"
	"github.com/isdelr/prep-deck-be/internal/monitoring"
	"github.com/isdelr/prep-deck-be/internal/services"
	"github.com/isdelr/prep-deck-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	auth.Configure(cfg.JWTSecret, cfg.JWTTTL)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db)
	sessionService := services.NewSessionService(db, eventService, hub)
	questionService := services.NewQuestionService(db, eventService, hub)

	// Set up and run the background scheduler
	scheduler, err := monitoring.NewScheduler(eventService, cfg.MaintenanceSchedule, cfg.EventRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	scheduler.Run()

	// Set up router
	router := api.NewRouter(api.Deps{
		Hub:             hub,
		UserService:     userService,
		SessionService:  sessionService,
		QuestionService: questionService,
		EventService:    eventService,
		Health:          monitoring.NewHealthChecker(db),
		AllowedOrigins:  cfg.CORSOrigins,
		SecureCookies:   cfg.IsProduction(),
		TokenTTL:        cfg.JWTTTL,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	exitCode := 0
	select {
	case <-quit:
		log.Info().Msg("Shutting down server...")
	case err := <-serverErr:
		log.Error().Err(err).Msg("ListenAndServe failed")
		exitCode = 1
	}

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
	if exitCode != 0 {
		db.Close()
		os.Exit(exitCode)
	}
}
