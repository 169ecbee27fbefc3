package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tank is one monitored aquarium.
type Tank struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	VolumeLiters float64   `json:"volume_liters"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewTank creates a tank with a fresh identifier.
func NewTank(name string, volumeLiters float64, description string) Tank {
	return Tank{
		ID:           uuid.NewString(),
		Name:         name,
		VolumeLiters: volumeLiters,
		Description:  description,
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate checks required tank fields.
func (t *Tank) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tank: name is required")
	}
	if t.VolumeLiters < 0 {
		return fmt.Errorf("tank: volume must be non-negative, got %.1f", t.VolumeLiters)
	}
	return nil
}
