package services

import (
	"log"
	"sync"
	"time"

	"github.com/reefwatch/reefwatch_backend/internal/assessment"
	"github.com/reefwatch/reefwatch_backend/internal/metrics"
	"github.com/reefwatch/reefwatch_backend/internal/models"
	"github.com/reefwatch/reefwatch_backend/internal/store"
)

// Broadcaster pushes fresh data to connected dashboard clients.
// Satisfied by the WebSocket hub.
type Broadcaster interface {
	BroadcastReading(reading *models.Reading)
	BroadcastHealthReport(report *models.HealthReport)
}

// AlertPublisher forwards urgent findings to external subscribers.
// Satisfied by the MQTT client.
type AlertPublisher interface {
	IsConnected() bool
	PublishAlert(report *models.HealthReport) error
}

// AssessmentMonitor periodically runs the diagnostic pipeline over every
// tank, stores the resulting reports, and pushes them to dashboards and
// the alert topic.
type AssessmentMonitor struct {
	store        store.DataStore
	assembler    *assessment.Assembler
	broadcaster  Broadcaster
	alerts       AlertPublisher
	interval     time.Duration
	lookbackDays int

	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewAssessmentMonitor creates a monitor over the given store and pipeline.
// broadcaster and alerts may be nil when the host runs without them.
func NewAssessmentMonitor(dataStore store.DataStore, assembler *assessment.Assembler, broadcaster Broadcaster, alerts AlertPublisher, interval time.Duration, lookbackDays int) *AssessmentMonitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &AssessmentMonitor{
		store:        dataStore,
		assembler:    assembler,
		broadcaster:  broadcaster,
		alerts:       alerts,
		interval:     interval,
		lookbackDays: lookbackDays,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the periodic assessment loop
func (m *AssessmentMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		log.Println("⚠️ Assessment monitor already running")
		return
	}

	m.running = true
	m.stopChan = make(chan struct{})

	m.wg.Add(1)
	go m.runLoop()

	log.Printf("📊 Assessment monitor started (interval: %v)", m.interval)
}

// Stop halts the assessment loop and waits for the current pass to finish
func (m *AssessmentMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	close(m.stopChan)
	m.wg.Wait()
	m.running = false

	log.Println("🛑 Assessment monitor stopped")
}

// IsRunning returns whether the monitor loop is active
func (m *AssessmentMonitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *AssessmentMonitor) runLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Run one pass immediately so dashboards have a report at startup
	m.AssessAllTanks()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.AssessAllTanks()
		}
	}
}

// AssessAllTanks runs one assessment pass over every registered tank.
func (m *AssessmentMonitor) AssessAllTanks() {
	tanks := m.store.GetAllTanks()
	for _, tank := range tanks {
		if _, err := m.AssessTank(tank.ID); err != nil {
			log.Printf("❌ Assessment failed for tank %s: %v", tank.ID, err)
		}
	}
}

// AssessTank runs the diagnostic pipeline for one tank and persists,
// broadcasts, and (when urgent) publishes the resulting report. Returns
// nil without error when the tank has no readings yet.
func (m *AssessmentMonitor) AssessTank(tankID string) (*models.HealthReport, error) {
	started := time.Now()

	current, ok := m.store.GetLatestReading(tankID)
	if !ok {
		return nil, nil
	}

	lookback := time.Duration(m.lookbackDays) * 24 * time.Hour
	trailing := m.store.GetReadingsInRange(tankID, current.Timestamp.Add(-lookback), current.Timestamp)
	// The range query includes the current reading; the pipeline wants
	// it separated from the history.
	if n := len(trailing); n > 0 && trailing[n-1].Timestamp.Equal(current.Timestamp) {
		trailing = trailing[:n-1]
	}

	events := m.store.GetEventsSince(tankID, current.Timestamp.Add(-lookback))

	report := m.assembler.Assemble(tankID, *current, trailing, events)
	m.store.SaveHealthReport(report)

	metrics.ObserveAssessment(metrics.ResultSuccess, time.Since(started))
	for _, finding := range report.Diagnosis.Findings {
		metrics.IncFinding(string(finding.Severity))
	}

	if m.broadcaster != nil {
		m.broadcaster.BroadcastHealthReport(&report)
	}

	if m.alerts != nil && m.alerts.IsConnected() {
		if top, ok := report.TopFinding(); ok && top.Severity.Rank() >= models.SeverityHigh.Rank() {
			if err := m.alerts.PublishAlert(&report); err != nil {
				log.Printf("⚠️ Failed to publish alert for tank %s: %v", tankID, err)
			}
		}
	}

	log.Printf("📊 Assessed tank %s: worst tier %s, %d findings", tankID, report.WorstTier(), len(report.Diagnosis.Findings))
	return &report, nil
}

// HandleReading stores an incoming probe reading, pushes it to dashboards,
// and triggers an immediate assessment of the tank. Wired as the MQTT
// reading handler and called by the HTTP ingest path.
func (m *AssessmentMonitor) HandleReading(reading *models.Reading) {
	if _, ok := m.store.GetTank(reading.TankID); !ok {
		log.Printf("⚠️ Reading for unknown tank %s dropped", reading.TankID)
		metrics.IncReadingRejected("unknown_tank")
		return
	}

	m.store.AddReading(*reading)
	metrics.IncReadingIngested(string(reading.Source))

	if m.broadcaster != nil {
		m.broadcaster.BroadcastReading(reading)
	}

	if _, err := m.AssessTank(reading.TankID); err != nil {
		log.Printf("❌ Assessment after reading failed for tank %s: %v", reading.TankID, err)
	}
}
