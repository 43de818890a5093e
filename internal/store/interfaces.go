// Package store defines the persistence contracts for the assessment engine
// and provides Postgres-backed and in-memory implementations. Entities are
// persisted as JSONB documents; two secondary access paths exist (by owning
// assessment + time, by status/activity + time). The engine accepts eventual
// visibility of its own writes across requests; within one request reads go
// through the same store instance.
package store

import (
	"context"
	"errors"

	"scalemap.app/engine/internal/model"
)

var (
	// ErrNotFound is returned when a keyed lookup matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned when an optimistic update races a
	// concurrent writer.
	ErrVersionConflict = errors.New("version conflict")

	// ErrActivePauseExists is returned when creating a pause while one is
	// already active; pause creation is a create-if-absent precondition.
	ErrActivePauseExists = errors.New("active pause already exists")
)

// AssessmentStore persists the aggregate root.
type AssessmentStore interface {
	Create(ctx context.Context, a *model.Assessment) error
	GetByID(ctx context.Context, id int64) (*model.Assessment, error)
	// Update performs an optimistic full-row update keyed on Version;
	// ErrVersionConflict when the row moved underneath the caller.
	Update(ctx context.Context, a *model.Assessment) error
	ListByStatus(ctx context.Context, status model.AssessmentStatus, limit int) ([]model.Assessment, error)
}

// AnalysisStore persists the latest gap-analysis snapshot per assessment.
// Put replaces any prior snapshot.
type AnalysisStore interface {
	Put(ctx context.Context, analysis *model.GapAnalysis) error
	GetLatest(ctx context.Context, assessmentID int64) (*model.GapAnalysis, error)
}

// GapStore persists individually addressable gap records.
type GapStore interface {
	Create(ctx context.Context, gap *model.AssessmentGap) error
	GetByID(ctx context.Context, id int64) (*model.AssessmentGap, error)
	Update(ctx context.Context, gap *model.AssessmentGap) error
	ListByAssessment(ctx context.Context, assessmentID int64) ([]model.AssessmentGap, error)
	ListUnresolved(ctx context.Context, assessmentID int64) ([]model.AssessmentGap, error)
}

// PauseStore persists timeline pause events. CreateActive enforces the
// single-active-pause invariant at the storage layer so concurrent pause
// attempts cannot both succeed.
type PauseStore interface {
	CreateActive(ctx context.Context, pause *model.TimelinePauseEvent) error
	GetActive(ctx context.Context, assessmentID int64) (*model.TimelinePauseEvent, error)
	Close(ctx context.Context, pause *model.TimelinePauseEvent) error
	ListByAssessment(ctx context.Context, assessmentID int64) ([]model.TimelinePauseEvent, error)
}

// ExtensionStore persists the append-only extension log.
type ExtensionStore interface {
	Create(ctx context.Context, ext *model.TimelineExtension) error
	CountByAssessment(ctx context.Context, assessmentID int64) (int, error)
	ListByAssessment(ctx context.Context, assessmentID int64) ([]model.TimelineExtension, error)
}

// Stores aggregates the per-entity stores, mirroring how services receive
// their persistence dependencies.
type Stores struct {
	Assessments AssessmentStore
	Analyses    AnalysisStore
	Gaps        GapStore
	Pauses      PauseStore
	Extensions  ExtensionStore
}
