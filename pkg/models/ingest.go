package models

import (
	"time"

	"github.com/google/uuid"
)

// IngestReport summarizes one completed pipeline run for one file.
type IngestReport struct {
	RunID      uuid.UUID     `json:"run_id"`
	Path       string        `json:"path"`
	PharmacyID int64         `json:"pharmacy_id"`
	Pharmacy   string        `json:"pharmacy"`
	Rows       int           `json:"rows"`       // rows after dedup
	Duplicates int           `json:"duplicates"` // rows collapsed by dedup
	Inserted   int           `json:"inserted"`
	Updated    int           `json:"updated"`
	Unchanged  int           `json:"unchanged"`
	Skipped    int           `json:"skipped"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}
