package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avikl/user-admin-be/internal/api"
	"github.com/avikl/user-admin-be/internal/auth"
	"github.com/avikl/user-admin-be/internal/config"
	"github.com/avikl/user-admin-be/internal/database"
	"github.com/avikl/user-admin-be/internal/logger"
	"github.com/avikl/user-admin-be/internal/monitoring"
	"github.com/avikl/user-admin-be/internal/services"
	"github.com/avikl/user-admin-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the WebSocket hub for the admin activity feed
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	tokens := auth.NewTokenManager(cfg.JWTSecret)
	userService := services.NewUserService(db)
	eventService := services.NewEventService(db, hub)

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(userService, hub, cfg.DatabasePath, time.Duration(cfg.StatsInterval)*time.Second)
	go statUpdater.Run()

	// Set up and run the background event pruner
	pruner, err := monitoring.NewPruner(eventService, cfg.EventPruneSpec, cfg.EventRetentionDays)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize event pruner")
	}
	pruner.Start()

	// Set up router
	router := api.NewRouter(cfg, tokens, userService, eventService, statUpdater, hub)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statUpdater.Stop()
	pruner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
