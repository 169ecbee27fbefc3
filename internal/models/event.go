package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// EventCategory tags the kind of operator action or external condition.
type EventCategory string

const (
	EventDosingChange EventCategory = "dosing-change"
	EventTreatment    EventCategory = "treatment"
	EventMaintenance  EventCategory = "maintenance"
	EventTestResult   EventCategory = "test-result"
)

// Event is a timestamped note about the tank: an operator action or an
// external condition. Events are immutable once recorded; the diagnostic
// engine reads them as causal-inference input and never mutates them.
type Event struct {
	ID        string        `json:"id"`
	TankID    string        `json:"tank_id"`
	Timestamp time.Time     `json:"timestamp"`
	Category  EventCategory `json:"category"`
	Title     string        `json:"title"`
	Detail    string        `json:"detail,omitempty"`
}

// NewEvent creates an event with a fresh identifier.
func NewEvent(tankID string, ts time.Time, category EventCategory, title, detail string) Event {
	return Event{
		ID:        uuid.NewString(),
		TankID:    tankID,
		Timestamp: ts,
		Category:  category,
		Title:     title,
		Detail:    detail,
	}
}

// Validate checks required fields and the category tag.
func (e *Event) Validate() error {
	if e.Timestamp.IsZero() {
		return fmt.Errorf("event: timestamp is required")
	}
	if e.Title == "" {
		return fmt.Errorf("event: title is required")
	}
	if !e.Category.IsValid() {
		return fmt.Errorf("event: unknown category %q", e.Category)
	}
	return nil
}

// IsValid reports whether the category is one of the registered tags.
func (c EventCategory) IsValid() bool {
	switch c {
	case EventDosingChange, EventTreatment, EventMaintenance, EventTestResult:
		return true
	}
	return false
}

// SortEventsAsc orders events oldest-first.
func SortEventsAsc(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
