package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/reefwatch/reefwatch_backend/config"
	"github.com/reefwatch/reefwatch_backend/internal/assessment"
	"github.com/reefwatch/reefwatch_backend/internal/database"
	httphandlers "github.com/reefwatch/reefwatch_backend/internal/http"
	"github.com/reefwatch/reefwatch_backend/internal/metrics"
	"github.com/reefwatch/reefwatch_backend/internal/mqtt"
	"github.com/reefwatch/reefwatch_backend/internal/narrative"
	"github.com/reefwatch/reefwatch_backend/internal/services"
	"github.com/reefwatch/reefwatch_backend/internal/store"
	"github.com/reefwatch/reefwatch_backend/internal/ws"
)

func main() {
	log.Println("🌊 Starting ReefWatch Tank Monitoring Backend...")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found: %v", err)
	} else {
		log.Println("✅ Loaded .env file")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Loaded configuration: Server port=%s, DB host=%s",
		cfg.Server.Port, cfg.Database.Host)

	metrics.Init()

	// Assessment pipeline: range table and rule set come from the built-in
	// defaults unless override files are configured
	rangeTable, err := config.LoadRangeTable(cfg.Files.Ranges)
	if err != nil {
		log.Fatalf("❌ Failed to load range table: %v", err)
	}
	ruleSet, err := config.LoadRuleSet(cfg.Files.Rules)
	if err != nil {
		log.Fatalf("❌ Failed to load rule set: %v", err)
	}
	assembler := assessment.NewAssembler(rangeTable, ruleSet, cfg.Assessment.TrendWindow)
	log.Printf("📊 Assessment pipeline ready: %d parameter ranges, %d rules", len(rangeTable.All()), len(ruleSet.Rules))

	phases, err := config.LoadScenario(cfg.Files.Scenario)
	if err != nil {
		log.Fatalf("❌ Failed to load scenario: %v", err)
	}
	generator, err := narrative.NewGenerator(phases)
	if err != nil {
		log.Fatalf("❌ Invalid scenario phases: %v", err)
	}

	// Initialize data store with PostgreSQL or fallback to in-memory
	var dataStore store.DataStore

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Printf("⚠️  Warning: Failed to connect to database: %v", err)
		log.Println("📱 Falling back to in-memory storage")
		dataStore = store.NewStore(cfg.Assessment.MaxReadings)
		log.Println("💾 Initialized in-memory data store")
	} else {
		log.Println("✅ Connected to PostgreSQL database")

		if err := database.CreateTables(db.DB); err != nil {
			log.Fatalf("❌ Failed to run migrations: %v", err)
		}

		dataStore = database.NewDatabaseStore(db.DB)
		defer db.Close()
		log.Println("💾 Initialized PostgreSQL data store")
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	go wsHub.Run()
	log.Println("🔌 Started WebSocket hub")

	// Initialize MQTT client when enabled
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled && cfg.MQTT.BrokerURL != "" {
		log.Println("📡 Attempting to connect to MQTT broker...")
		mqttClient = mqtt.NewClient(&mqtt.Config{
			BrokerURL:     cfg.MQTT.BrokerURL,
			ClientID:      cfg.MQTT.ClientID,
			Username:      cfg.MQTT.Username,
			Password:      cfg.MQTT.Password,
			KeepAlive:     cfg.MQTT.KeepAlive,
			PingTimeout:   cfg.MQTT.PingTimeout,
			ConnectRetry:  cfg.MQTT.ConnectRetry,
			TopicReadings: cfg.MQTT.TopicReadings,
			TopicAlerts:   cfg.MQTT.TopicAlerts,
		})
		if err := mqttClient.Connect(); err != nil {
			log.Printf("⚠️  Warning: Failed to connect to MQTT broker: %v", err)
			log.Println("📡 Continuing without MQTT support")
			mqttClient = nil
		} else {
			log.Printf("📡 MQTT client connected - Broker: %s", cfg.MQTT.BrokerURL)
			defer mqttClient.Disconnect()
		}
	} else {
		log.Println("📡 MQTT disabled, skipping MQTT initialization")
	}

	// Assessment monitor runs the pipeline periodically and on ingest
	var alerts services.AlertPublisher
	if mqttClient != nil {
		alerts = mqttClient
	}
	monitor := services.NewAssessmentMonitor(dataStore, assembler, wsHub, alerts, cfg.Assessment.Interval, cfg.Assessment.LookbackDays)
	monitor.Start()
	defer monitor.Stop()

	// Probe readings arriving over MQTT flow into the monitor
	if mqttClient != nil {
		mqttClient.SetReadingHandler(monitor.HandleReading)
		if err := mqttClient.SubscribeToReadings(); err != nil {
			log.Printf("⚠️  Warning: Failed to subscribe to readings: %v", err)
		}
	}

	// Retention scheduler prunes history past the configured horizon
	scheduler := services.NewRetentionScheduler(dataStore, cfg.Assessment.RetentionDays)
	scheduler.Start()
	defer scheduler.Stop()

	// Setup HTTP routes
	router := httphandlers.SetupRoutes(dataStore, assembler, generator, monitor, wsHub, cfg.Server.AllowedOrigins, cfg.Assessment.LookbackDays)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Printf("🚀 Starting HTTP server on port %s", cfg.Server.Port)
		log.Println("📡 API endpoints available:")
		log.Println("  GET /health - Service health")
		log.Println("  GET /metrics - Prometheus metrics")
		log.Println("  GET /api/v1/ranges - Parameter reference bands")
		log.Println("  GET /api/v1/tanks - List tanks")
		log.Println("  POST /api/v1/tanks - Register tank")
		log.Println("  GET /api/v1/tanks/{id}/readings?hours=24&limit=100 - Readings")
		log.Println("  POST /api/v1/tanks/{id}/readings - Add manual reading")
		log.Println("  GET /api/v1/tanks/{id}/readings/latest - Latest reading")
		log.Println("  GET /api/v1/tanks/{id}/events?days=30 - Husbandry events")
		log.Println("  POST /api/v1/tanks/{id}/events - Record event")
		log.Println("  GET /api/v1/tanks/{id}/assessment?window=30 - Run assessment")
		log.Println("  GET /api/v1/tanks/{id}/assessment/history - Past reports")
		log.Println("  GET /api/v1/tanks/{id}/trends?window=7 - Parameter trends")
		log.Println("  POST /api/v1/tanks/{id}/synthesize - Generate scripted series")
		log.Println("  GET /api/v1/export/readings/{id}?format=csv|xlsx - Export readings")
		log.Println("  GET /api/v1/export/report/{id}?format=pdf|xlsx - Export report")
		log.Println("  WS /ws?tank_id= - WebSocket for real-time updates")
		log.Printf("🌐 Server running at http://localhost:%s", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	scheduler.Stop()
	monitor.Stop()

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server shutdown complete")
}
