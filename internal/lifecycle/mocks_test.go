package lifecycle_test

import (
	"context"

	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/store"
)

type mockAssessmentStore struct {
	getByIDFn func(ctx context.Context, id int64) (*model.Assessment, error)
	updateFn  func(ctx context.Context, a *model.Assessment) error
}

func (m *mockAssessmentStore) Create(ctx context.Context, a *model.Assessment) error { return nil }

func (m *mockAssessmentStore) GetByID(ctx context.Context, id int64) (*model.Assessment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockAssessmentStore) Update(ctx context.Context, a *model.Assessment) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, a)
	}
	return nil
}

func (m *mockAssessmentStore) ListByStatus(ctx context.Context, status model.AssessmentStatus, limit int) ([]model.Assessment, error) {
	return nil, nil
}

type mockGapStore struct {
	createFn           func(ctx context.Context, gap *model.AssessmentGap) error
	getByIDFn          func(ctx context.Context, id int64) (*model.AssessmentGap, error)
	updateFn           func(ctx context.Context, gap *model.AssessmentGap) error
	listByAssessmentFn func(ctx context.Context, assessmentID int64) ([]model.AssessmentGap, error)
}

func (m *mockGapStore) Create(ctx context.Context, gap *model.AssessmentGap) error {
	if m.createFn != nil {
		return m.createFn(ctx, gap)
	}
	return nil
}

func (m *mockGapStore) GetByID(ctx context.Context, id int64) (*model.AssessmentGap, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockGapStore) Update(ctx context.Context, gap *model.AssessmentGap) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, gap)
	}
	return nil
}

func (m *mockGapStore) ListByAssessment(ctx context.Context, assessmentID int64) ([]model.AssessmentGap, error) {
	if m.listByAssessmentFn != nil {
		return m.listByAssessmentFn(ctx, assessmentID)
	}
	return nil, nil
}

func (m *mockGapStore) ListUnresolved(ctx context.Context, assessmentID int64) ([]model.AssessmentGap, error) {
	return nil, nil
}

type mockResumer struct {
	resumeFn func(ctx context.Context, assessmentID int64, resolvedGapIDs []int64, resumedBy string) (bool, error)
	calls    int
	lastIDs  []int64
}

func (m *mockResumer) ResumeAfterGapResolution(ctx context.Context, assessmentID int64, resolvedGapIDs []int64, resumedBy string) (bool, error) {
	m.calls++
	m.lastIDs = resolvedGapIDs
	if m.resumeFn != nil {
		return m.resumeFn(ctx, assessmentID, resolvedGapIDs, resumedBy)
	}
	return true, nil
}
