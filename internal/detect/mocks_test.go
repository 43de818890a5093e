package detect_test

import (
	"context"

	"scalemap.app/engine/common/llm"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/store"
)

type mockAssessmentStore struct {
	createFn       func(ctx context.Context, a *model.Assessment) error
	getByIDFn      func(ctx context.Context, id int64) (*model.Assessment, error)
	updateFn       func(ctx context.Context, a *model.Assessment) error
	listByStatusFn func(ctx context.Context, status model.AssessmentStatus, limit int) ([]model.Assessment, error)
}

func (m *mockAssessmentStore) Create(ctx context.Context, a *model.Assessment) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}

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
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, status, limit)
	}
	return nil, nil
}

type mockAnalysisStore struct {
	putFn       func(ctx context.Context, analysis *model.GapAnalysis) error
	getLatestFn func(ctx context.Context, assessmentID int64) (*model.GapAnalysis, error)
}

func (m *mockAnalysisStore) Put(ctx context.Context, analysis *model.GapAnalysis) error {
	if m.putFn != nil {
		return m.putFn(ctx, analysis)
	}
	return nil
}

func (m *mockAnalysisStore) GetLatest(ctx context.Context, assessmentID int64) (*model.GapAnalysis, error) {
	if m.getLatestFn != nil {
		return m.getLatestFn(ctx, assessmentID)
	}
	return nil, store.ErrNotFound
}

type mockGapStore struct {
	createFn           func(ctx context.Context, gap *model.AssessmentGap) error
	getByIDFn          func(ctx context.Context, id int64) (*model.AssessmentGap, error)
	updateFn           func(ctx context.Context, gap *model.AssessmentGap) error
	listByAssessmentFn func(ctx context.Context, assessmentID int64) ([]model.AssessmentGap, error)
	listUnresolvedFn   func(ctx context.Context, assessmentID int64) ([]model.AssessmentGap, error)
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
	if m.listUnresolvedFn != nil {
		return m.listUnresolvedFn(ctx, assessmentID)
	}
	return nil, nil
}

type mockLLM struct {
	completeFn func(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error)
	chatFn     func(ctx context.Context, req llm.Request, result any) (*llm.Response, error)
}

func (m *mockLLM) Complete(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, prompt, opts)
	}
	return "", nil
}

func (m *mockLLM) Chat(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
	if m.chatFn != nil {
		return m.chatFn(ctx, req, result)
	}
	return &llm.Response{}, nil
}

func (m *mockLLM) Model() string { return "mock-model" }

type mockPauser struct {
	pauseFn func(ctx context.Context, assessmentID int64, criticalGaps []model.AssessmentGap, pausedBy string) (*model.TimelinePauseEvent, error)
	calls   int
}

func (m *mockPauser) PauseForCriticalGaps(ctx context.Context, assessmentID int64, criticalGaps []model.AssessmentGap, pausedBy string) (*model.TimelinePauseEvent, error) {
	m.calls++
	if m.pauseFn != nil {
		return m.pauseFn(ctx, assessmentID, criticalGaps, pausedBy)
	}
	return &model.TimelinePauseEvent{AssessmentID: assessmentID}, nil
}
