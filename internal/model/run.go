package model

import "time"

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Phase statuses.
const (
	PhaseStatusRunning  = "running"
	PhaseStatusComplete = "complete"
	PhaseStatusFailed   = "failed"
)

// PipelineRun is one end-to-end pipeline execution recorded in the sink store.
type PipelineRun struct {
	ID        string      `json:"id"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunSummary aggregates per-stage counters for a completed run.
type RunSummary struct {
	RosterRows int `json:"roster_rows"`
	Addresses  int `json:"addresses"`
	Anchors    int `json:"anchors"`
	Targets    int `json:"targets"`
	Candidates int `json:"candidates"`
	Facilities int `json:"facilities"`
	Tech       int `json:"tech"`
	Joined     int `json:"joined"`
}

// RunPhase is one stage execution within a run.
type RunPhase struct {
	ID         string         `json:"id"`
	RunID      string         `json:"run_id"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Counts     map[string]int `json:"counts,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	StartedAt  time.Time      `json:"started_at"`
}
