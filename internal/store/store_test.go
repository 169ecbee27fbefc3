package store

import (
	"testing"
	"time"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

func testTank(id, name string) models.Tank {
	return models.Tank{
		ID:           id,
		Name:         name,
		VolumeLiters: 250,
		CreatedAt:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testReading(tankID string, ts time.Time, alk float64) models.Reading {
	return models.Reading{
		TankID:    tankID,
		Timestamp: ts,
		Source:    models.SourceProbe,
		Values: map[models.Parameter]float64{
			models.ParamAlkalinity: alk,
		},
	}
}

func TestStore_TankCRUD(t *testing.T) {
	store := NewStore(100)

	tank := testTank("reef-1", "Display Reef")
	if err := store.CreateTank(tank); err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}

	// Duplicate IDs are rejected
	if err := store.CreateTank(tank); err == nil {
		t.Error("Expected duplicate create to fail")
	}

	got, exists := store.GetTank("reef-1")
	if !exists {
		t.Fatal("Expected tank to exist after create")
	}
	if got.Name != "Display Reef" {
		t.Errorf("Expected name to be Display Reef, got %s", got.Name)
	}

	// Update replaces details but keeps the creation time
	updated := tank
	updated.Name = "Frag Tank"
	updated.CreatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.UpdateTank(updated); err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}
	got, _ = store.GetTank("reef-1")
	if got.Name != "Frag Tank" {
		t.Errorf("Expected updated name, got %s", got.Name)
	}
	if !got.CreatedAt.Equal(tank.CreatedAt) {
		t.Errorf("Expected creation time to be preserved, got %v", got.CreatedAt)
	}

	if err := store.UpdateTank(testTank("missing", "x")); err == nil {
		t.Error("Expected update of missing tank to fail")
	}

	if err := store.DeleteTank("reef-1"); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}
	if _, exists := store.GetTank("reef-1"); exists {
		t.Error("Expected tank to be gone after delete")
	}
	if err := store.DeleteTank("reef-1"); err == nil {
		t.Error("Expected delete of missing tank to fail")
	}
}

func TestStore_GetAllTanks_SortedByCreation(t *testing.T) {
	store := NewStore(100)

	older := testTank("a", "Older")
	newer := testTank("b", "Newer")
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	store.CreateTank(newer)
	store.CreateTank(older)

	tanks := store.GetAllTanks()
	if len(tanks) != 2 {
		t.Fatalf("Expected 2 tanks, got %d", len(tanks))
	}
	if tanks[0].ID != "a" || tanks[1].ID != "b" {
		t.Errorf("Expected tanks ordered oldest first, got %s then %s", tanks[0].ID, tanks[1].ID)
	}
}

func TestStore_AddReading_EvictsOldest(t *testing.T) {
	store := NewStore(3)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		store.AddReading(testReading("reef-1", base.Add(time.Duration(i)*time.Hour), 8.0+float64(i)*0.1))
	}

	if count := store.GetReadingCount("reef-1"); count != 3 {
		t.Errorf("Expected reading count to be 3 after eviction, got %d", count)
	}

	// The first reading should have been evicted
	readings := store.GetReadingsInRange("reef-1", base, base.Add(24*time.Hour))
	if len(readings) != 3 {
		t.Fatalf("Expected 3 readings in range, got %d", len(readings))
	}
	if !readings[0].Timestamp.Equal(base.Add(time.Hour)) {
		t.Errorf("Expected oldest surviving reading at %v, got %v", base.Add(time.Hour), readings[0].Timestamp)
	}
}

func TestStore_GetLatestReading_IgnoresBackfill(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	store.AddReading(testReading("reef-1", base, 8.2))
	// Backfilled historical reading arrives after the live one
	store.AddReading(testReading("reef-1", base.Add(-48*time.Hour), 7.0))

	latest, exists := store.GetLatestReading("reef-1")
	if !exists {
		t.Fatal("Expected a latest reading")
	}
	if !latest.Timestamp.Equal(base) {
		t.Errorf("Expected latest timestamp %v, got %v", base, latest.Timestamp)
	}
	if v, _ := latest.Value(models.ParamAlkalinity); v != 8.2 {
		t.Errorf("Expected latest alkalinity 8.2, got %v", v)
	}
}

func TestStore_GetRecentReadings_NewestFirstAndLimited(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		store.AddReading(testReading("reef-1", base.Add(time.Duration(i)*time.Hour), 8.0))
	}

	recent := store.GetRecentReadings("reef-1", 3)
	if len(recent) != 3 {
		t.Fatalf("Expected 3 readings, got %d", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].Timestamp.After(recent[i-1].Timestamp) {
			t.Error("Expected readings ordered newest first")
		}
	}
	if !recent[0].Timestamp.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("Expected newest reading first, got %v", recent[0].Timestamp)
	}

	if all := store.GetRecentReadings("reef-1", 0); len(all) != 5 {
		t.Errorf("Expected limit 0 to return all readings, got %d", len(all))
	}
}

func TestStore_GetReadingsInRange_HalfOpen(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		store.AddReading(testReading("reef-1", base.Add(time.Duration(i)*time.Hour), 8.0))
	}

	// start inclusive, end exclusive
	got := store.GetReadingsInRange("reef-1", base.Add(time.Hour), base.Add(3*time.Hour))
	if len(got) != 2 {
		t.Fatalf("Expected 2 readings in [1h, 3h), got %d", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(time.Hour)) {
		t.Errorf("Expected range start to be inclusive, first timestamp %v", got[0].Timestamp)
	}
	if !got[1].Timestamp.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("Expected range end to be exclusive, last timestamp %v", got[1].Timestamp)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := NewStore(100)
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store.AddReading(testReading("reef-1", ts, 8.2))

	// Mutating a returned reading must not affect the stored one
	first, _ := store.GetLatestReading("reef-1")
	first.Values[models.ParamAlkalinity] = 999

	second, _ := store.GetLatestReading("reef-1")
	if v, _ := second.Value(models.ParamAlkalinity); v != 8.2 {
		t.Errorf("Expected stored reading to be isolated from callers, got %v", v)
	}

	// Same for the source reading handed to AddReading
	src := testReading("reef-2", ts, 7.5)
	store.AddReading(src)
	src.Values[models.ParamAlkalinity] = 0

	stored, _ := store.GetLatestReading("reef-2")
	if v, _ := stored.Value(models.ParamAlkalinity); v != 7.5 {
		t.Errorf("Expected store to deep copy on write, got %v", v)
	}
}

func TestStore_Events(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	event := models.NewEvent("reef-1", base, models.EventDosingChange, "Switched dosing schedule", "")

	// Events require a registered tank
	if err := store.CreateEvent(event); err == nil {
		t.Error("Expected event for unknown tank to be rejected")
	}

	store.CreateTank(testTank("reef-1", "Display Reef"))
	if err := store.CreateEvent(event); err != nil {
		t.Fatalf("Expected event create to succeed, got %v", err)
	}
	later := models.NewEvent("reef-1", base.Add(48*time.Hour), models.EventTreatment, "Added buffer", "")
	store.CreateEvent(later)

	since := store.GetEventsSince("reef-1", base.Add(24*time.Hour))
	if len(since) != 1 {
		t.Fatalf("Expected 1 event since cutoff, got %d", len(since))
	}
	if since[0].Category != models.EventTreatment {
		t.Errorf("Expected treatment event, got %s", since[0].Category)
	}

	recent := store.GetRecentEvents("reef-1", 1)
	if len(recent) != 1 {
		t.Fatalf("Expected 1 recent event, got %d", len(recent))
	}
	if recent[0].Title != "Added buffer" {
		t.Errorf("Expected newest event first, got %s", recent[0].Title)
	}
}

func TestStore_HealthReports(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if _, exists := store.GetLatestHealthReport("reef-1"); exists {
		t.Error("Expected no report before any save")
	}

	for i := 0; i < 3; i++ {
		store.SaveHealthReport(models.HealthReport{
			ID:          string(rune('a' + i)),
			TankID:      "reef-1",
			GeneratedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	latest, exists := store.GetLatestHealthReport("reef-1")
	if !exists {
		t.Fatal("Expected a latest report")
	}
	if latest.ID != "c" {
		t.Errorf("Expected latest report to be c, got %s", latest.ID)
	}

	history := store.GetHealthReportHistory("reef-1", 2)
	if len(history) != 2 {
		t.Fatalf("Expected history of 2, got %d", len(history))
	}
	if history[0].ID != "c" || history[1].ID != "b" {
		t.Errorf("Expected history newest first, got %s then %s", history[0].ID, history[1].ID)
	}
}

func TestStore_PruneBefore(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cutoff := base.Add(48 * time.Hour)

	store.CreateTank(testTank("reef-1", "Display Reef"))
	for i := 0; i < 4; i++ {
		ts := base.Add(time.Duration(i) * 24 * time.Hour)
		store.AddReading(testReading("reef-1", ts, 8.0))
		store.CreateEvent(models.NewEvent("reef-1", ts, models.EventMaintenance, "Water change", ""))
	}
	store.SaveHealthReport(models.HealthReport{ID: "old", TankID: "reef-1", GeneratedAt: base})
	store.SaveHealthReport(models.HealthReport{ID: "new", TankID: "reef-1", GeneratedAt: cutoff})

	readings, events, reports := store.PruneBefore(cutoff)
	if readings != 2 {
		t.Errorf("Expected 2 readings pruned, got %d", readings)
	}
	if events != 2 {
		t.Errorf("Expected 2 events pruned, got %d", events)
	}
	if reports != 1 {
		t.Errorf("Expected 1 report pruned, got %d", reports)
	}

	if count := store.GetReadingCount("reef-1"); count != 2 {
		t.Errorf("Expected 2 readings to survive, got %d", count)
	}

	// The latest pointer survives pruning
	if _, exists := store.GetLatestReading("reef-1"); !exists {
		t.Error("Expected latest reading to survive pruning")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore(100)
	store.CreateTank(testTank("reef-1", "Display Reef"))
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	done := make(chan bool, 2)

	go func() {
		for i := 0; i < 50; i++ {
			store.AddReading(testReading("reef-1", base.Add(time.Duration(i)*time.Minute), 8.0))
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 50; i++ {
			store.GetLatestReading("reef-1")
			store.GetRecentReadings("reef-1", 10)
			store.GetReadingCount("reef-1")
		}
		done <- true
	}()

	<-done
	<-done

	if count := store.GetReadingCount("reef-1"); count != 50 {
		t.Errorf("Expected 50 readings after concurrent writes, got %d", count)
	}
}
