package models

import (
	"encoding/json"
	"time"
)

// RunStatus is the terminal state of a calibration experiment run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// CalibrationRun is one recorded calibration experiment: which experiment ran,
// against which candidate model, and the full report (or the error that
// stopped it).
type CalibrationRun struct {
	ID          string          `json:"id"`
	Experiment  string          `json:"experiment"`
	ModelName   string          `json:"model_name"`
	Status      RunStatus       `json:"status"`
	Error       string          `json:"error,omitempty"`
	Report      json.RawMessage `json:"report,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
}
