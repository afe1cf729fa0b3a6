// Package store persists pipeline runs and the final tech index in a
// document-store-style sink backed by SQLite or Postgres.
package store

import (
	"context"

	"github.com/sells-group/techindex-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// TechFilter specifies criteria for listing tech entities.
type TechFilter struct {
	Segment string `json:"segment,omitempty"`
	City    string `json:"city,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the tech index pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.PipelineRun, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	GetRun(ctx context.Context, runID string) (*model.PipelineRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.PipelineRun, error)

	// Phases
	CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error)
	CompletePhase(ctx context.Context, phase *model.RunPhase) error

	// Tech index sink
	UpsertTechEntities(ctx context.Context, entities []model.TechEntity) (int, error)
	GetTechEntity(ctx context.Context, id string) (*model.TechEntity, error)
	ListTechEntities(ctx context.Context, filter TechFilter) ([]model.TechEntity, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
