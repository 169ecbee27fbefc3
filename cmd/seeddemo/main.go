package main

import (
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/reefwatch/reefwatch_backend/config"
	"github.com/reefwatch/reefwatch_backend/internal/assessment"
	"github.com/reefwatch/reefwatch_backend/internal/database"
	"github.com/reefwatch/reefwatch_backend/internal/models"
	"github.com/reefwatch/reefwatch_backend/internal/narrative"
	"github.com/reefwatch/reefwatch_backend/internal/store"
)

// seeddemo populates a tank with the built-in 30-day demo narrative:
// a baseline, an alkalinity slide driven by a dosing mismatch, and a
// corrected recovery, plus the matching husbandry events and a final
// health report. Run with -drop to wipe the schema first.
func main() {
	var (
		tankName = flag.String("tank", "Demo Reef", "Name for the seeded tank")
		volume   = flag.Float64("volume", 350, "Tank volume in liters")
		seed     = flag.Int64("seed", narrative.DemoSeed, "Random seed for the reading series")
		drop     = flag.Bool("drop", false, "Drop and recreate all tables first")
	)
	flag.Parse()

	log.Println("🌊 ReefWatch Demo Seeder")
	log.Println("========================")

	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found: %v", err)
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if *drop {
		log.Println("🗑️  Dropping existing tables...")
		if err := database.DropTables(db.DB); err != nil {
			log.Fatalf("❌ Failed to drop tables: %v", err)
		}
	}
	if err := database.CreateTables(db.DB); err != nil {
		log.Fatalf("❌ Failed to create tables: %v", err)
	}

	dataStore := database.NewDatabaseStore(db.DB)
	readings, events, report := seedDemo(dataStore, *tankName, *volume, *seed)

	log.Printf("✅ Seeded %d readings, %d events", readings, events)
	if top, ok := report.TopFinding(); ok {
		log.Printf("📊 Final assessment: worst tier %s, top finding %q (%.0f%% confidence)",
			report.WorstTier(), top.Cause, top.Confidence*100)
	} else {
		log.Printf("📊 Final assessment: worst tier %s, no findings", report.WorstTier())
	}
	log.Println("🎉 Demo data ready")
}

// seedDemo writes the demo narrative into the store and returns the
// reading and event counts plus the health report computed at the end
// of the arc.
func seedDemo(dataStore store.DataStore, tankName string, volume float64, seed int64) (int, int, models.HealthReport) {
	tank := models.NewTank(tankName, volume, "Seeded demo tank with a scripted dosing-mismatch arc")
	if err := dataStore.CreateTank(tank); err != nil {
		log.Fatalf("❌ Failed to create tank: %v", err)
	}
	log.Printf("🐠 Created tank %q (%s)", tank.Name, tank.ID)

	start := time.Now().UTC().AddDate(0, 0, -narrative.DemoWindowDays)

	generator := narrative.DemoGenerator()
	readings := generator.Generate(start, narrative.DemoWindowDays, seed)
	for i := range readings {
		readings[i].TankID = tank.ID
		dataStore.AddReading(readings[i])
	}

	demoEvents := narrative.DemoEvents(tank.ID, start)
	for _, event := range demoEvents {
		if err := dataStore.CreateEvent(event); err != nil {
			log.Fatalf("❌ Failed to create event: %v", err)
		}
	}

	// Assess the tank as it stands at the end of the narrative
	assembler := assessment.NewAssembler(assessment.DefaultRangeTable(), assessment.DefaultRuleSet(), 7)
	current := readings[len(readings)-1]
	trailing := readings[:len(readings)-1]
	events := dataStore.GetEventsSince(tank.ID, start)

	report := assembler.Assemble(tank.ID, current, trailing, events)
	dataStore.SaveHealthReport(report)

	return len(readings), len(demoEvents), report
}
