package api

import (
	"github.com/avikl/user-admin-be/internal/api/handlers"
	"github.com/avikl/user-admin-be/internal/auth"
	"github.com/avikl/user-admin-be/internal/config"
	"github.com/avikl/user-admin-be/internal/monitoring"
	"github.com/avikl/user-admin-be/internal/services"
	"github.com/avikl/user-admin-be/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, tokens *auth.TokenManager, userService services.UserServiceProvider, eventService services.EventServiceProvider, monitor *monitoring.StatUpdater, hub *websocket.Hub) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for the SPA origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	secureCookies := cfg.AppEnv == "production"
	authHandler := handlers.NewAuthHandler(userService, eventService, tokens, secureCookies)
	userHandler := handlers.NewUserHandler(userService, eventService)
	adminHandler := handlers.NewAdminHandler(userService, eventService, monitor)
	wsHandler := handlers.NewWebSocketHandler(hub)

	requireSession := auth.RequireSession(tokens)
	requireAdmin := auth.RequireAdmin(userService)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/signin", authHandler.Signin)
			r.Post("/admin/signin", authHandler.AdminSignin)
			r.Get("/signout", authHandler.Signout)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(requireSession)
			r.Post("/update/{id}", userHandler.Update)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireSession)
			r.Use(requireAdmin)

			r.Get("/users", adminHandler.ListUsers)
			r.Post("/user/create", adminHandler.CreateUser)
			r.Put("/user/update/{id}", adminHandler.UpdateUser)
			r.Delete("/user/delete/{id}", adminHandler.DeleteUser)

			r.Get("/events", adminHandler.GetRecentEvents)
			r.Get("/stats", adminHandler.GetStats)
			r.Get("/ws", wsHandler.Serve)
		})
	})

	return r
}
