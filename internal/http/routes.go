package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reefwatch/reefwatch_backend/internal/assessment"
	"github.com/reefwatch/reefwatch_backend/internal/narrative"
	"github.com/reefwatch/reefwatch_backend/internal/services"
	"github.com/reefwatch/reefwatch_backend/internal/store"
	"github.com/reefwatch/reefwatch_backend/internal/ws"
)

// SetupRoutes configures all HTTP routes for the tank monitoring API
func SetupRoutes(dataStore store.DataStore, assembler *assessment.Assembler, generator *narrative.Generator, monitor *services.AssessmentMonitor, wsHub *ws.Hub, allowedOrigins []string, lookbackDays int) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// CORS configuration
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlers := NewHandlers(dataStore, assembler, generator, monitor, wsHub, lookbackDays)

	// Service health and metrics
	r.Get("/health", handlers.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Reference bands used for classification
		r.Get("/ranges", handlers.GetRanges)

		// Tank management and per-tank data
		r.Route("/tanks", func(r chi.Router) {
			r.Get("/", handlers.GetAllTanks)
			r.Post("/", handlers.CreateTank)

			r.Route("/{tankID}", func(r chi.Router) {
				r.Get("/", handlers.GetTank)
				r.Put("/", handlers.UpdateTank)
				r.Delete("/", handlers.DeleteTank)

				// Water chemistry readings
				r.Get("/readings", handlers.GetReadings)
				r.Post("/readings", handlers.AddReading)
				r.Get("/readings/latest", handlers.GetLatestReading)

				// Husbandry event journal
				r.Get("/events", handlers.GetEvents)
				r.Post("/events", handlers.CreateEvent)

				// Diagnostic assessment
				r.Get("/assessment", handlers.GetAssessment)
				r.Get("/assessment/history", handlers.GetAssessmentHistory)
				r.Get("/trends", handlers.GetTrends)

				// Scripted series generation
				r.Post("/synthesize", handlers.Synthesize)
			})
		})

		// Export routes for readings and reports
		r.Route("/export", func(r chi.Router) {
			r.Get("/readings/{tankID}", handlers.ExportReadings)
			r.Get("/report/{tankID}", handlers.ExportReport)
		})
	})

	// WebSocket route for real-time updates
	r.HandleFunc("/ws", wsHub.HandleWebSocket)

	return r
}
