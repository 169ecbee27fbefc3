package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reefwatch/reefwatch_backend/internal/assessment"
	"github.com/reefwatch/reefwatch_backend/internal/models"
	"github.com/reefwatch/reefwatch_backend/internal/narrative"
	"github.com/reefwatch/reefwatch_backend/internal/store"
	"github.com/reefwatch/reefwatch_backend/internal/ws"
)

func newTestRouter(t *testing.T, dataStore store.DataStore) *chi.Mux {
	t.Helper()

	assembler := assessment.NewAssembler(assessment.DefaultRangeTable(), assessment.DefaultRuleSet(), 7)
	generator := narrative.DemoGenerator()
	hub := ws.NewHub()

	return SetupRoutes(dataStore, assembler, generator, nil, hub, nil, 30)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var response APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return response
}

func seedTank(t *testing.T, dataStore store.DataStore) models.Tank {
	t.Helper()

	tank := models.NewTank("Display Tank", 450, "Main display")
	if err := dataStore.CreateTank(tank); err != nil {
		t.Fatalf("Failed to seed tank: %v", err)
	}
	return tank
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t, store.NewStore(100))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	response := decodeResponse(t, rec)
	if !response.Success {
		t.Error("Expected success response")
	}
}

func TestCreateTank_Validation(t *testing.T) {
	router := newTestRouter(t, store.NewStore(100))

	body := bytes.NewBufferString(`{"volume_liters": 200}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/tanks", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing name, got %d", rec.Code)
	}

	body = bytes.NewBufferString(`{"name": "Frag Tank", "volume_liters": -5}`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/tanks", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for negative volume, got %d", rec.Code)
	}
}

func TestTankLifecycle(t *testing.T) {
	dataStore := store.NewStore(100)
	router := newTestRouter(t, dataStore)

	// Create
	body := bytes.NewBufferString(`{"name": "Frag Tank", "volume_liters": 120, "description": "Grow-out"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/tanks", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	tanks := dataStore.GetAllTanks()
	if len(tanks) != 1 {
		t.Fatalf("Expected 1 tank, got %d", len(tanks))
	}
	tankID := tanks[0].ID

	// Get
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/tanks/"+tankID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 on get, got %d", rec.Code)
	}

	// Update
	body = bytes.NewBufferString(`{"name": "Frag Tank 2"}`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("PUT", "/api/v1/tanks/"+tankID, body))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on update, got %d", rec.Code)
	}
	tank, _ := dataStore.GetTank(tankID)
	if tank.Name != "Frag Tank 2" {
		t.Errorf("Expected updated name, got %q", tank.Name)
	}
	if tank.VolumeLiters != 120 {
		t.Errorf("Expected volume unchanged at 120, got %v", tank.VolumeLiters)
	}

	// Delete
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/v1/tanks/"+tankID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 on delete, got %d", rec.Code)
	}
	if len(dataStore.GetAllTanks()) != 0 {
		t.Error("Expected tank to be removed")
	}
}

func TestUnknownTankReturns404(t *testing.T) {
	router := newTestRouter(t, store.NewStore(100))

	paths := []string{
		"/api/v1/tanks/nonexistent",
		"/api/v1/tanks/nonexistent/readings",
		"/api/v1/tanks/nonexistent/readings/latest",
		"/api/v1/tanks/nonexistent/events",
		"/api/v1/tanks/nonexistent/assessment",
		"/api/v1/tanks/nonexistent/trends",
	}

	for _, path := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected status 404 for %s, got %d", path, rec.Code)
		}
	}
}

func TestAddReadingAndGetLatest(t *testing.T) {
	dataStore := store.NewStore(100)
	tank := seedTank(t, dataStore)
	router := newTestRouter(t, dataStore)

	body := bytes.NewBufferString(`{"values": {"alk": 8.2, "ca": 440, "ph": 8.15}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/tanks/"+tank.ID+"/readings", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/tanks/"+tank.ID+"/readings/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	response := decodeResponse(t, rec)
	data, ok := response.Data.(map[string]interface{})
	if !ok {
		t.Fatal("Expected reading object in response data")
	}
	if data["source"] != "manual" {
		t.Errorf("Expected default source 'manual', got %v", data["source"])
	}
}

func TestAddReading_RejectsEmptyValues(t *testing.T) {
	dataStore := store.NewStore(100)
	tank := seedTank(t, dataStore)
	router := newTestRouter(t, dataStore)

	body := bytes.NewBufferString(`{"values": {}}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/tanks/"+tank.ID+"/readings", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty values, got %d", rec.Code)
	}
}

func TestCreateAndListEvents(t *testing.T) {
	dataStore := store.NewStore(100)
	tank := seedTank(t, dataStore)
	router := newTestRouter(t, dataStore)

	body := bytes.NewBufferString(`{"category": "dosing-change", "title": "Raised alk dose", "detail": "20ml to 25ml daily"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/tanks/"+tank.ID+"/events", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/tanks/"+tank.ID+"/events", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	response := decodeResponse(t, rec)
	data := response.Data.(map[string]interface{})
	if count, _ := data["count"].(float64); count != 1 {
		t.Errorf("Expected 1 event, got %v", data["count"])
	}
}

func TestCreateEvent_RejectsBadCategory(t *testing.T) {
	dataStore := store.NewStore(100)
	tank := seedTank(t, dataStore)
	router := newTestRouter(t, dataStore)

	body := bytes.NewBufferString(`{"category": "party", "title": "Fish party"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/tanks/"+tank.ID+"/events", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid category, got %d", rec.Code)
	}
}

func TestGetAssessment(t *testing.T) {
	dataStore := store.NewStore(100)
	tank := seedTank(t, dataStore)
	router := newTestRouter(t, dataStore)

	// Seed a week of readings with alkalinity falling into the danger zone
	now := time.Now().UTC()
	for i := 0; i < 7; i++ {
		dataStore.AddReading(models.Reading{
			TankID:    tank.ID,
			Timestamp: now.Add(-time.Duration(6-i) * 24 * time.Hour),
			Source:    models.SourceManual,
			Values: map[models.Parameter]float64{
				models.ParamAlkalinity: 8.2 - float64(i)*0.4,
				models.ParamCalcium:    440,
			},
		})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/tanks/"+tank.ID+"/assessment", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	response := decodeResponse(t, rec)
	raw, err := json.Marshal(response.Data)
	if err != nil {
		t.Fatalf("Failed to re-marshal report: %v", err)
	}
	var report models.HealthReport
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}

	if report.TankID != tank.ID {
		t.Errorf("Expected report for tank %s, got %s", tank.ID, report.TankID)
	}
	if len(report.Tiers) != 2 {
		t.Errorf("Expected 2 tier results, got %d", len(report.Tiers))
	}
	// Alkalinity at 5.8 dKH is well below the critical band
	if report.WorstTier() != models.TierDanger {
		t.Errorf("Expected worst tier danger, got %s", report.WorstTier())
	}
	if len(report.Diagnosis.Findings) == 0 {
		t.Error("Expected at least one finding for a danger-tier reading")
	}

	// The on-demand assessment is persisted
	if _, exists := dataStore.GetLatestHealthReport(tank.ID); !exists {
		t.Error("Expected assessment to be stored")
	}
}

func TestGetAssessmentHistory(t *testing.T) {
	dataStore := store.NewStore(100)
	tank := seedTank(t, dataStore)
	router := newTestRouter(t, dataStore)

	dataStore.AddReading(models.Reading{
		TankID:    tank.ID,
		Timestamp: time.Now().UTC(),
		Source:    models.SourceManual,
		Values:    map[models.Parameter]float64{models.ParamAlkalinity: 8.2},
	})

	// Two on-demand assessments produce two stored reports
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/tanks/"+tank.ID+"/assessment", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/tanks/"+tank.ID+"/assessment/history?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	response := decodeResponse(t, rec)
	data := response.Data.(map[string]interface{})
	if count, _ := data["count"].(float64); count != 2 {
		t.Errorf("Expected 2 reports in history, got %v", data["count"])
	}
}

func TestSynthesize(t *testing.T) {
	dataStore := store.NewStore(1000)
	tank := seedTank(t, dataStore)
	router := newTestRouter(t, dataStore)

	body := bytes.NewBufferString(`{"days": 30, "seed": 42, "persist": true}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/tanks/"+tank.ID+"/synthesize", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if count := dataStore.GetReadingCount(tank.ID); count != 30 {
		t.Errorf("Expected 30 persisted readings, got %d", count)
	}

	// Same seed reproduces the same series
	body = bytes.NewBufferString(`{"days": 30, "seed": 42, "persist": false}`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/tanks/"+tank.ID+"/synthesize", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if count := dataStore.GetReadingCount(tank.ID); count != 30 {
		t.Errorf("Expected count unchanged without persist, got %d", count)
	}
}

func TestGetRanges(t *testing.T) {
	router := newTestRouter(t, store.NewStore(100))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/ranges", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	response := decodeResponse(t, rec)
	ranges, ok := response.Data.([]interface{})
	if !ok {
		t.Fatal("Expected ranges list in response data")
	}
	if len(ranges) != len(models.KnownParameters()) {
		t.Errorf("Expected %d ranges, got %d", len(models.KnownParameters()), len(ranges))
	}
}

func TestExportReadingsCSV(t *testing.T) {
	dataStore := store.NewStore(100)
	tank := seedTank(t, dataStore)
	router := newTestRouter(t, dataStore)

	dataStore.AddReading(models.Reading{
		TankID:    tank.ID,
		Timestamp: time.Now().UTC().Add(-time.Hour),
		Source:    models.SourceManual,
		Values:    map[models.Parameter]float64{models.ParamAlkalinity: 8.2, models.ParamCalcium: 440},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", fmt.Sprintf("/api/v1/export/readings/%s?format=csv", tank.ID), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected text/csv content type, got %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header plus 1 data row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "Alkalinity") {
		t.Errorf("Expected header to include Alkalinity, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "8.20") {
		t.Errorf("Expected row to include alkalinity value, got %q", lines[1])
	}
}

func TestExportReadings_InvalidFormat(t *testing.T) {
	dataStore := store.NewStore(100)
	tank := seedTank(t, dataStore)
	router := newTestRouter(t, dataStore)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", fmt.Sprintf("/api/v1/export/readings/%s?format=doc", tank.ID), nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unsupported format, got %d", rec.Code)
	}
}

func TestExportReportPDF(t *testing.T) {
	dataStore := store.NewStore(100)
	tank := seedTank(t, dataStore)
	router := newTestRouter(t, dataStore)

	// No report yet
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/export/report/"+tank.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 without a report, got %d", rec.Code)
	}

	dataStore.AddReading(models.Reading{
		TankID:    tank.ID,
		Timestamp: time.Now().UTC(),
		Source:    models.SourceManual,
		Values:    map[models.Parameter]float64{models.ParamAlkalinity: 8.2},
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/tanks/"+tank.ID+"/assessment", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on assessment, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/export/report/"+tank.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Expected application/pdf content type, got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("Expected PDF magic bytes in response body")
	}
}
