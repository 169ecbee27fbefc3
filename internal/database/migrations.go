package database

import (
	"database/sql"
	"fmt"
	"log"
)

// CreateTables creates all necessary tables for the ReefWatch system
func CreateTables(db *sql.DB) error {
	log.Println("Creating database tables...")

	// Tanks registered for monitoring
	tanksTable := `
	CREATE TABLE IF NOT EXISTS tanks (
		id UUID PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		volume_liters DECIMAL(10,2) NOT NULL CHECK (volume_liters > 0),
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`

	if _, err := db.Exec(tanksTable); err != nil {
		return fmt.Errorf("failed to create tanks table: %w", err)
	}

	// Water chemistry readings. Parameter values land in a JSONB map so
	// readings stay sparse: a probe that only measures pH and temperature
	// stores exactly those two keys.
	readingsTable := `
	CREATE TABLE IF NOT EXISTS readings (
		id SERIAL PRIMARY KEY,
		tank_id UUID NOT NULL REFERENCES tanks(id) ON DELETE CASCADE,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		source VARCHAR(50) NOT NULL CHECK (source IN ('trident', 'manual', 'probe', 'synthetic')),
		values_json JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		CONSTRAINT unique_tank_timestamp UNIQUE(tank_id, timestamp)
	);`

	if _, err := db.Exec(readingsTable); err != nil {
		return fmt.Errorf("failed to create readings table: %w", err)
	}

	// Husbandry event journal
	eventsTable := `
	CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		tank_id UUID NOT NULL REFERENCES tanks(id) ON DELETE CASCADE,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		category VARCHAR(50) NOT NULL,
		title VARCHAR(200) NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`

	if _, err := db.Exec(eventsTable); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	// Generated health reports, stored whole as JSONB so the report
	// format can evolve without schema migrations.
	reportsTable := `
	CREATE TABLE IF NOT EXISTS health_reports (
		id UUID PRIMARY KEY,
		tank_id UUID NOT NULL REFERENCES tanks(id) ON DELETE CASCADE,
		generated_at TIMESTAMP WITH TIME ZONE NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`

	if _, err := db.Exec(reportsTable); err != nil {
		return fmt.Errorf("failed to create health_reports table: %w", err)
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_readings_tank_timestamp ON readings(tank_id, timestamp DESC);",
		"CREATE INDEX IF NOT EXISTS idx_events_tank_timestamp ON events(tank_id, timestamp DESC);",
		"CREATE INDEX IF NOT EXISTS idx_health_reports_tank_generated ON health_reports(tank_id, generated_at DESC);",
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
		}
	}

	log.Println("✅ Database tables created successfully")
	return nil
}

// DropTables drops all tables (useful for testing)
func DropTables(db *sql.DB) error {
	log.Println("Dropping database tables...")

	tables := []string{
		"health_reports",
		"events",
		"readings",
		"tanks",
	}

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	log.Println("✅ Database tables dropped successfully")
	return nil
}

// CheckTablesExist checks if all required tables exist
func CheckTablesExist(db *sql.DB) error {
	requiredTables := []string{
		"tanks",
		"readings",
		"events",
		"health_reports",
	}

	for _, table := range requiredTables {
		var exists bool
		query := `SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		);`

		err := db.QueryRow(query, table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}

		if !exists {
			return fmt.Errorf("table %s does not exist", table)
		}
	}

	log.Println("✅ All required tables exist")
	return nil
}
