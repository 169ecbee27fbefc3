package http

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reefwatch/reefwatch_backend/internal/assessment"
	"github.com/reefwatch/reefwatch_backend/internal/export"
	"github.com/reefwatch/reefwatch_backend/internal/metrics"
	"github.com/reefwatch/reefwatch_backend/internal/models"
	"github.com/reefwatch/reefwatch_backend/internal/narrative"
	"github.com/reefwatch/reefwatch_backend/internal/services"
	"github.com/reefwatch/reefwatch_backend/internal/store"
	"github.com/reefwatch/reefwatch_backend/internal/ws"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	store         store.DataStore
	assembler     *assessment.Assembler
	generator     *narrative.Generator
	exportService *export.ExportService
	monitor       *services.AssessmentMonitor
	hub           *ws.Hub
	lookbackDays  int
	startTime     time.Time
}

// NewHandlers creates a new handlers instance. monitor and hub may be
// nil in tests that only exercise read paths.
func NewHandlers(dataStore store.DataStore, assembler *assessment.Assembler, generator *narrative.Generator, monitor *services.AssessmentMonitor, hub *ws.Hub, lookbackDays int) *Handlers {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &Handlers{
		store:         dataStore,
		assembler:     assembler,
		generator:     generator,
		exportService: export.NewExportService(assembler.Classifier(), assembler.RangeTable()),
		monitor:       monitor,
		hub:           hub,
		lookbackDays:  lookbackDays,
		startTime:     time.Now(),
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handlers) sendJSONResponse(w http.ResponseWriter, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// sendErrorResponse sends a standardized error response
func (h *Handlers) sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	response := APIResponse{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// HealthCheck reports service liveness and store connectivity
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	storeStatus := "ok"
	if err := h.store.Ping(); err != nil {
		status = "degraded"
		storeStatus = "unreachable"
	}

	h.sendJSONResponse(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":         status,
			"store":          storeStatus,
			"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		},
	})
}

// GetAllTanks returns every registered tank
func (h *Handlers) GetAllTanks(w http.ResponseWriter, r *http.Request) {
	tanks := h.store.GetAllTanks()
	h.sendJSONResponse(w, APIResponse{Success: true, Data: tanks})
}

// CreateTank registers a new tank
func (h *Handlers) CreateTank(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name         string  `json:"name"`
		VolumeLiters float64 `json:"volume_liters"`
		Description  string  `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.Name == "" {
		h.sendErrorResponse(w, "name is required", http.StatusBadRequest)
		return
	}
	if request.VolumeLiters <= 0 {
		h.sendErrorResponse(w, "volume_liters must be positive", http.StatusBadRequest)
		return
	}

	tank := models.NewTank(request.Name, request.VolumeLiters, request.Description)
	if err := h.store.CreateTank(tank); err != nil {
		h.sendErrorResponse(w, "Failed to create tank", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Message: "Tank created",
		Data:    tank,
	})
}

// GetTank returns one tank by id
func (h *Handlers) GetTank(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	tank, exists := h.store.GetTank(tankID)
	if !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}
	h.sendJSONResponse(w, APIResponse{Success: true, Data: tank})
}

// UpdateTank updates a tank's name, volume, or description
func (h *Handlers) UpdateTank(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	tank, exists := h.store.GetTank(tankID)
	if !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	var request struct {
		Name         *string  `json:"name"`
		VolumeLiters *float64 `json:"volume_liters"`
		Description  *string  `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if request.Name != nil {
		tank.Name = *request.Name
	}
	if request.VolumeLiters != nil {
		if *request.VolumeLiters <= 0 {
			h.sendErrorResponse(w, "volume_liters must be positive", http.StatusBadRequest)
			return
		}
		tank.VolumeLiters = *request.VolumeLiters
	}
	if request.Description != nil {
		tank.Description = *request.Description
	}

	if err := h.store.UpdateTank(*tank); err != nil {
		h.sendErrorResponse(w, "Failed to update tank", http.StatusInternalServerError)
		return
	}

	h.sendJSONResponse(w, APIResponse{Success: true, Message: "Tank updated", Data: tank})
}

// DeleteTank removes a tank and all of its stored data
func (h *Handlers) DeleteTank(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	if _, exists := h.store.GetTank(tankID); !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	if err := h.store.DeleteTank(tankID); err != nil {
		h.sendErrorResponse(w, "Failed to delete tank", http.StatusInternalServerError)
		return
	}

	h.sendJSONResponse(w, APIResponse{Success: true, Message: "Tank deleted"})
}

// GetReadings returns a tank's readings, filtered by ?hours= and capped
// by ?limit=
func (h *Handlers) GetReadings(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	if _, exists := h.store.GetTank(tankID); !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	hours := 24
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		parsed, err := strconv.Atoi(hoursStr)
		if err != nil || parsed <= 0 {
			h.sendErrorResponse(w, "Invalid hours parameter", http.StatusBadRequest)
			return
		}
		hours = parsed
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			h.sendErrorResponse(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(hours) * time.Hour)
	readings := h.store.GetReadingsInRange(tankID, start, end)
	if limit > 0 && len(readings) > limit {
		// Keep the newest readings when capping
		readings = readings[len(readings)-limit:]
	}

	h.sendJSONResponse(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"tank_id":  tankID,
			"count":    len(readings),
			"readings": readings,
		},
	})
}

// GetLatestReading returns a tank's most recent reading
func (h *Handlers) GetLatestReading(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	if _, exists := h.store.GetTank(tankID); !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	reading, exists := h.store.GetLatestReading(tankID)
	if !exists {
		h.sendErrorResponse(w, "No readings available for tank", http.StatusNotFound)
		return
	}

	h.sendJSONResponse(w, APIResponse{Success: true, Data: reading})
}

// AddReading ingests a manual reading posted by the dashboard
func (h *Handlers) AddReading(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	if _, exists := h.store.GetTank(tankID); !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	var request struct {
		Timestamp *time.Time         `json:"timestamp"`
		Source    string             `json:"source"`
		Values    map[string]float64 `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ts := time.Now().UTC()
	if request.Timestamp != nil {
		ts = request.Timestamp.UTC()
	}
	source := models.SourceManual
	if request.Source != "" {
		source = models.Source(request.Source)
	}

	values := make(map[models.Parameter]float64, len(request.Values))
	for key, v := range request.Values {
		p := models.Parameter(key)
		values[p] = models.NormalizeValue(p, v)
	}

	reading := models.Reading{
		TankID:    tankID,
		Timestamp: ts,
		Source:    source,
		Values:    values,
	}
	if err := reading.Validate(); err != nil {
		metrics.IncReadingRejected("validation")
		h.sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.monitor != nil {
		h.monitor.HandleReading(&reading)
	} else {
		h.store.AddReading(reading)
		metrics.IncReadingIngested(string(reading.Source))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Message: "Reading stored",
		Data:    reading,
	})
}

// GetEvents returns a tank's husbandry events from the last ?days= days
func (h *Handlers) GetEvents(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	if _, exists := h.store.GetTank(tankID); !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	days := h.lookbackDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			h.sendErrorResponse(w, "Invalid days parameter", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	events := h.store.GetEventsSince(tankID, since)

	h.sendJSONResponse(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"tank_id": tankID,
			"count":   len(events),
			"events":  events,
		},
	})
}

// CreateEvent records a husbandry event in the tank's journal
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	if _, exists := h.store.GetTank(tankID); !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	var request struct {
		Timestamp *time.Time `json:"timestamp"`
		Category  string     `json:"category"`
		Title     string     `json:"title"`
		Detail    string     `json:"detail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ts := time.Now().UTC()
	if request.Timestamp != nil {
		ts = request.Timestamp.UTC()
	}

	event := models.NewEvent(tankID, ts, models.EventCategory(request.Category), request.Title, request.Detail)
	if err := event.Validate(); err != nil {
		h.sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.CreateEvent(event); err != nil {
		h.sendErrorResponse(w, "Failed to store event", http.StatusInternalServerError)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastEvent(&event)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Message: "Event recorded",
		Data:    event,
	})
}

// GetAssessment runs the diagnostic pipeline on demand and returns the
// resulting health report. ?window= overrides the history window in days.
func (h *Handlers) GetAssessment(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	if _, exists := h.store.GetTank(tankID); !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	window := h.lookbackDays
	if windowStr := r.URL.Query().Get("window"); windowStr != "" {
		parsed, err := strconv.Atoi(windowStr)
		if err != nil || parsed <= 0 {
			h.sendErrorResponse(w, "Invalid window parameter", http.StatusBadRequest)
			return
		}
		window = parsed
	}

	current, exists := h.store.GetLatestReading(tankID)
	if !exists {
		h.sendErrorResponse(w, "No readings available for tank", http.StatusNotFound)
		return
	}

	started := time.Now()
	since := current.Timestamp.AddDate(0, 0, -window)
	trailing := h.store.GetReadingsInRange(tankID, since, current.Timestamp)
	if n := len(trailing); n > 0 && trailing[n-1].Timestamp.Equal(current.Timestamp) {
		trailing = trailing[:n-1]
	}
	events := h.store.GetEventsSince(tankID, since)

	report := h.assembler.Assemble(tankID, *current, trailing, events)
	h.store.SaveHealthReport(report)

	metrics.ObserveAssessment(metrics.ResultSuccess, time.Since(started))
	for _, finding := range report.Diagnosis.Findings {
		metrics.IncFinding(string(finding.Severity))
	}

	if h.hub != nil {
		h.hub.BroadcastHealthReport(&report)
	}

	h.sendJSONResponse(w, APIResponse{Success: true, Data: report})
}

// GetAssessmentHistory returns past health reports, newest first
func (h *Handlers) GetAssessmentHistory(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	if _, exists := h.store.GetTank(tankID); !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			h.sendErrorResponse(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	reports := h.store.GetHealthReportHistory(tankID, limit)
	h.sendJSONResponse(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"tank_id": tankID,
			"count":   len(reports),
			"reports": reports,
		},
	})
}

// GetTrends returns per-parameter trend results over ?window= days
func (h *Handlers) GetTrends(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	if _, exists := h.store.GetTank(tankID); !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	window := 7
	if windowStr := r.URL.Query().Get("window"); windowStr != "" {
		parsed, err := strconv.Atoi(windowStr)
		if err != nil || parsed <= 0 {
			h.sendErrorResponse(w, "Invalid window parameter", http.StatusBadRequest)
			return
		}
		window = parsed
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -window)
	series := h.store.GetReadingsInRange(tankID, start, end)
	trends := h.assembler.TrendAnalyzer().AnalyzeAll(series)

	h.sendJSONResponse(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"tank_id":     tankID,
			"window_days": window,
			"trends":      trends,
		},
	})
}

// Synthesize generates a scripted reading series for a tank. With
// persist=true the readings (and, on the built-in scenario, the matching
// husbandry events) are stored; otherwise the series is only returned.
func (h *Handlers) Synthesize(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	if _, exists := h.store.GetTank(tankID); !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	var request struct {
		Days    int    `json:"days"`
		Seed    *int64 `json:"seed"`
		Persist bool   `json:"persist"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	days := request.Days
	if days <= 0 {
		days = h.generator.CoverageDays()
	}
	seed := narrative.DemoSeed
	if request.Seed != nil {
		seed = *request.Seed
	}

	start := time.Now().UTC().AddDate(0, 0, -days)
	readings := h.generator.Generate(start, days, seed)
	for i := range readings {
		readings[i].TankID = tankID
	}

	if request.Persist {
		for _, reading := range readings {
			h.store.AddReading(reading)
			metrics.IncReadingIngested(string(reading.Source))
		}
	}

	h.sendJSONResponse(w, APIResponse{
		Success: true,
		Message: fmt.Sprintf("Generated %d readings over %d days", len(readings), days),
		Data: map[string]interface{}{
			"tank_id":   tankID,
			"days":      days,
			"seed":      seed,
			"persisted": request.Persist,
			"count":     len(readings),
			"readings":  readings,
		},
	})
}

// GetRanges returns the reference bands every parameter is classified
// against.
func (h *Handlers) GetRanges(w http.ResponseWriter, r *http.Request) {
	h.sendJSONResponse(w, APIResponse{
		Success: true,
		Data:    h.assembler.RangeTable().All(),
	})
}

// ExportReadings streams a tank's readings as CSV or XLSX, chosen by
// ?format= (default csv). ?days= bounds the history window.
func (h *Handlers) ExportReadings(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	tank, exists := h.store.GetTank(tankID)
	if !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	days := h.lookbackDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			h.sendErrorResponse(w, "Invalid days parameter", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	readings := h.store.GetReadingsInRange(tankID, start, end)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		records, err := h.exportService.GenerateCSV(readings)
		if err != nil {
			metrics.IncExport("csv", metrics.ResultError)
			h.sendErrorResponse(w, "Failed to generate CSV data", http.StatusInternalServerError)
			return
		}

		filename := fmt.Sprintf("reefwatch_readings_%s_%s.csv", tank.Name, end.Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		writer := csv.NewWriter(w)
		if err := h.exportService.WriteCSV(writer, records); err != nil {
			metrics.IncExport("csv", metrics.ResultError)
			return
		}
		metrics.IncExport("csv", metrics.ResultSuccess)

	case "xlsx":
		file, err := h.exportService.GenerateReadingsExcel(export.ReadingsExport{
			Tank:     *tank,
			Readings: readings,
			Start:    start,
			End:      end,
		})
		if err != nil {
			metrics.IncExport("xlsx", metrics.ResultError)
			h.sendErrorResponse(w, "Failed to generate Excel file", http.StatusInternalServerError)
			return
		}

		filename := fmt.Sprintf("reefwatch_readings_%s_%s.xlsx", tank.Name, end.Format("2006-01-02"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		if err := file.Write(w); err != nil {
			metrics.IncExport("xlsx", metrics.ResultError)
			return
		}
		metrics.IncExport("xlsx", metrics.ResultSuccess)

	default:
		h.sendErrorResponse(w, "Invalid format. Use 'csv' or 'xlsx'", http.StatusBadRequest)
	}
}

// ExportReport streams the tank's latest health report as PDF or XLSX,
// chosen by ?format= (default pdf).
func (h *Handlers) ExportReport(w http.ResponseWriter, r *http.Request) {
	tankID := chi.URLParam(r, "tankID")
	tank, exists := h.store.GetTank(tankID)
	if !exists {
		h.sendErrorResponse(w, "Tank not found", http.StatusNotFound)
		return
	}

	report, exists := h.store.GetLatestHealthReport(tankID)
	if !exists {
		h.sendErrorResponse(w, "No health report available for tank", http.StatusNotFound)
		return
	}

	data := export.ReportExport{Tank: *tank, Report: *report}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}

	switch format {
	case "pdf":
		pdfBytes, err := h.exportService.GenerateReportPDF(data)
		if err != nil {
			metrics.IncExport("pdf", metrics.ResultError)
			h.sendErrorResponse(w, "Failed to generate PDF report", http.StatusInternalServerError)
			return
		}

		filename := fmt.Sprintf("reefwatch_report_%s_%s.pdf", tank.Name, report.GeneratedAt.Format("2006-01-02"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Write(pdfBytes)
		metrics.IncExport("pdf", metrics.ResultSuccess)

	case "xlsx":
		file, err := h.exportService.GenerateReportExcel(data)
		if err != nil {
			metrics.IncExport("xlsx", metrics.ResultError)
			h.sendErrorResponse(w, "Failed to generate Excel report", http.StatusInternalServerError)
			return
		}

		filename := fmt.Sprintf("reefwatch_report_%s_%s.xlsx", tank.Name, report.GeneratedAt.Format("2006-01-02"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		if err := file.Write(w); err != nil {
			metrics.IncExport("xlsx", metrics.ResultError)
			return
		}
		metrics.IncExport("xlsx", metrics.ResultSuccess)

	default:
		h.sendErrorResponse(w, "Invalid format. Use 'pdf' or 'xlsx'", http.StatusBadRequest)
	}
}
