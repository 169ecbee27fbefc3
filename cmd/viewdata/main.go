package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/reefwatch/reefwatch_backend/config"
	"github.com/reefwatch/reefwatch_backend/internal/database"
	"github.com/reefwatch/reefwatch_backend/internal/models"
)

func main() {
	var (
		table  = flag.String("table", "readings", "Table to view (tanks, readings, events, health_reports)")
		tankID = flag.String("tank", "", "Filter by tank id (readings, events, health_reports)")
		limit  = flag.Int("limit", 10, "Number of records to show")
	)
	flag.Parse()

	log.Println("🔍 ReefWatch Database Viewer")
	log.Println("============================")

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("✅ Connected to database: %s@%s:%s/%s",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	dataStore := database.NewDatabaseStore(db.DB)

	switch *table {
	case "tanks":
		viewTanks(dataStore)
	case "readings":
		viewReadings(dataStore, *tankID, *limit)
	case "events":
		viewEvents(dataStore, *tankID, *limit)
	case "health_reports":
		viewHealthReports(dataStore, *tankID, *limit)
	default:
		log.Printf("Unknown table: %s", *table)
		log.Println("Available tables: tanks, readings, events, health_reports")
	}
}

func viewTanks(dataStore *database.DatabaseStore) {
	tanks := dataStore.GetAllTanks()
	fmt.Printf("\n🐠 Tanks (%d):\n", len(tanks))
	fmt.Println("--------------------------------------------------------------")
	for _, tank := range tanks {
		fmt.Printf("  %s  %-20s  %7.0f L  created %s\n",
			tank.ID, tank.Name, tank.VolumeLiters, tank.CreatedAt.Format("2006-01-02"))
		if tank.Description != "" {
			fmt.Printf("      %s\n", tank.Description)
		}
	}
	fmt.Println()
}

func requireTank(dataStore *database.DatabaseStore, tankID string) string {
	if tankID != "" {
		return tankID
	}
	tanks := dataStore.GetAllTanks()
	if len(tanks) == 0 {
		log.Fatal("❌ No tanks in database; seed one first or pass -tank")
	}
	log.Printf("ℹ️  No -tank given, using %q (%s)", tanks[0].Name, tanks[0].ID)
	return tanks[0].ID
}

func viewReadings(dataStore *database.DatabaseStore, tankID string, limit int) {
	tankID = requireTank(dataStore, tankID)
	readings := dataStore.GetRecentReadings(tankID, limit)

	fmt.Printf("\n📊 Recent Readings for tank %s (%d):\n", tankID, len(readings))
	fmt.Println("--------------------------------------------------------------")
	for _, reading := range readings {
		fmt.Printf("  %s  [%s]\n", reading.Timestamp.Format("2006-01-02 15:04"), reading.Source)
		for _, p := range models.KnownParameters() {
			if v, ok := reading.Value(p); ok {
				fmt.Printf("      %-12s %8.3f\n", p.DisplayName(), v)
			}
		}
	}
	fmt.Println()
}

func viewEvents(dataStore *database.DatabaseStore, tankID string, limit int) {
	tankID = requireTank(dataStore, tankID)
	events := dataStore.GetRecentEvents(tankID, limit)

	fmt.Printf("\n📝 Recent Events for tank %s (%d):\n", tankID, len(events))
	fmt.Println("--------------------------------------------------------------")
	for _, event := range events {
		fmt.Printf("  %s  [%-13s] %s\n", event.Timestamp.Format("2006-01-02 15:04"), event.Category, event.Title)
		if event.Detail != "" {
			fmt.Printf("      %s\n", event.Detail)
		}
	}
	fmt.Println()
}

func viewHealthReports(dataStore *database.DatabaseStore, tankID string, limit int) {
	tankID = requireTank(dataStore, tankID)
	reports := dataStore.GetHealthReportHistory(tankID, limit)

	fmt.Printf("\n🏥 Health Reports for tank %s (%d):\n", tankID, len(reports))
	fmt.Println("--------------------------------------------------------------")
	for _, report := range reports {
		fmt.Printf("  %s  worst tier: %-8s  findings: %d\n",
			report.GeneratedAt.Format("2006-01-02 15:04"), report.WorstTier(), len(report.Diagnosis.Findings))
		for _, tier := range report.Tiers {
			fmt.Printf("      %-12s %8.3f %-5s -> %s\n",
				tier.Parameter.DisplayName(), tier.Value, tier.Unit, tier.Tier)
		}
		if top, ok := report.TopFinding(); ok {
			fmt.Printf("      top finding: [%s] %s (%.0f%%)\n", top.Severity, top.Cause, top.Confidence*100)
		}
	}
	fmt.Println()
}
