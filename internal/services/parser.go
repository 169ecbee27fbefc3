package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/reefwatch/reefwatch_backend/internal/models"
)

// ReadingParser turns raw probe and manual-entry payloads into validated
// readings. Values arriving in off-canonical units (specific gravity,
// Fahrenheit) are normalized before storage.
type ReadingParser struct{}

// NewReadingParser creates a new instance of ReadingParser
func NewReadingParser() *ReadingParser {
	return &ReadingParser{}
}

// probePayload is the preferred JSON shape probes publish:
// {"source":"trident","timestamp":"...","values":{"alk":8.2,"ca":440}}
// Timestamp and source are optional; missing ones default to now/probe.
type probePayload struct {
	Source    string             `json:"source"`
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// ParseReadingJSON parses a JSON payload into a reading for the tank.
func (rp *ReadingParser) ParseReadingJSON(tankID string, payload []byte) (*models.Reading, error) {
	var parsed probePayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse reading JSON: %w", err)
	}

	// Some probe firmwares publish a flat {"alk":8.2,...} object instead
	// of the enveloped form; retry the payload as a bare value map.
	if len(parsed.Values) == 0 {
		var flat map[string]float64
		if err := json.Unmarshal(payload, &flat); err == nil && len(flat) > 0 {
			parsed.Values = flat
		}
	}

	return rp.buildReading(tankID, parsed.Source, parsed.Timestamp, parsed.Values)
}

// ParseReadingString parses the compact key=value fallback format,
// e.g. "alk=8.2,ca=440,temp=25.5".
func (rp *ReadingParser) ParseReadingString(tankID, payload string) (*models.Reading, error) {
	values := make(map[string]float64)
	for _, pair := range strings.Split(payload, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, raw, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("failed to parse reading string: %q is not key=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse reading string: %q has no numeric value: %w", pair, err)
		}
		values[strings.TrimSpace(key)] = v
	}

	return rp.buildReading(tankID, "", time.Time{}, values)
}

// buildReading normalizes units, fills defaults, and validates.
func (rp *ReadingParser) buildReading(tankID, source string, ts time.Time, raw map[string]float64) (*models.Reading, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("reading payload carries no parameter values")
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if source == "" {
		source = string(models.SourceProbe)
	}

	values := make(map[models.Parameter]float64, len(raw))
	for key, v := range raw {
		p := models.Parameter(strings.ToLower(strings.TrimSpace(key)))
		values[p] = models.NormalizeValue(p, v)
	}

	reading := &models.Reading{
		TankID:    tankID,
		Timestamp: ts,
		Source:    models.Source(source),
		Values:    values,
	}
	if err := reading.Validate(); err != nil {
		return nil, err
	}
	return reading, nil
}

// FormatReading formats a reading for logging or debugging
func (rp *ReadingParser) FormatReading(reading *models.Reading) string {
	parts := make([]string, 0, len(reading.Values))
	for _, p := range models.KnownParameters() {
		if v, ok := reading.Values[p]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.3g", p, v))
		}
	}
	return fmt.Sprintf("Tank: %s, Time: %s, Source: %s, %s",
		reading.TankID,
		reading.Timestamp.Format("2006-01-02 15:04:05"),
		reading.Source,
		strings.Join(parts, ", "))
}
