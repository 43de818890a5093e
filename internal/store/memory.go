package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"scalemap.app/engine/internal/model"
)

// NewMemoryStores returns a fully in-memory Stores, used by tests and local
// development. All methods are safe for concurrent use; values are deep
// copied on the way in and out so callers never share memory with the store.
func NewMemoryStores() *Stores {
	m := &memory{
		assessments: map[int64]*model.Assessment{},
		analyses:    map[int64]*model.GapAnalysis{},
		gaps:        map[int64]*model.AssessmentGap{},
		pauses:      map[int64][]*model.TimelinePauseEvent{},
		extensions:  map[int64][]*model.TimelineExtension{},
	}
	return &Stores{
		Assessments: (*memAssessments)(m),
		Analyses:    (*memAnalyses)(m),
		Gaps:        (*memGaps)(m),
		Pauses:      (*memPauses)(m),
		Extensions:  (*memExtensions)(m),
	}
}

type memory struct {
	mu          sync.RWMutex
	assessments map[int64]*model.Assessment
	analyses    map[int64]*model.GapAnalysis
	gaps        map[int64]*model.AssessmentGap
	pauses      map[int64][]*model.TimelinePauseEvent
	extensions  map[int64][]*model.TimelineExtension
}

func deepCopy[T any](src *T) *T {
	data, err := json.Marshal(src)
	if err != nil {
		panic("memory store: marshal: " + err.Error())
	}
	dst := new(T)
	if err := json.Unmarshal(data, dst); err != nil {
		panic("memory store: unmarshal: " + err.Error())
	}
	return dst
}

// --- Assessments ------------------------------------------------------------

type memAssessments memory

func (m *memAssessments) Create(ctx context.Context, a *model.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.Version = 1
	m.assessments[a.ID] = deepCopy(a)
	return nil
}

func (m *memAssessments) GetByID(ctx context.Context, id int64) (*model.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assessments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return deepCopy(a), nil
}

func (m *memAssessments) Update(ctx context.Context, a *model.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.assessments[a.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != a.Version {
		return ErrVersionConflict
	}
	a.Version++
	m.assessments[a.ID] = deepCopy(a)
	return nil
}

func (m *memAssessments) ListByStatus(ctx context.Context, status model.AssessmentStatus, limit int) ([]model.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Assessment
	for _, a := range m.assessments {
		if a.Status == status {
			out = append(out, *deepCopy(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Analyses ---------------------------------------------------------------

type memAnalyses memory

func (m *memAnalyses) Put(ctx context.Context, analysis *model.GapAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[analysis.AssessmentID] = deepCopy(analysis)
	return nil
}

func (m *memAnalyses) GetLatest(ctx context.Context, assessmentID int64) (*model.GapAnalysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.analyses[assessmentID]
	if !ok {
		return nil, ErrNotFound
	}
	return deepCopy(a), nil
}

// --- Gaps -------------------------------------------------------------------

type memGaps memory

func (m *memGaps) Create(ctx context.Context, gap *model.AssessmentGap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gaps[gap.ID] = deepCopy(gap)
	return nil
}

func (m *memGaps) GetByID(ctx context.Context, id int64) (*model.AssessmentGap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gaps[id]
	if !ok {
		return nil, ErrNotFound
	}
	return deepCopy(g), nil
}

func (m *memGaps) Update(ctx context.Context, gap *model.AssessmentGap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.gaps[gap.ID]; !ok {
		return ErrNotFound
	}
	m.gaps[gap.ID] = deepCopy(gap)
	return nil
}

func (m *memGaps) ListByAssessment(ctx context.Context, assessmentID int64) ([]model.AssessmentGap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.AssessmentGap
	for _, g := range m.gaps {
		if g.AssessmentID == assessmentID {
			out = append(out, *deepCopy(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.Before(out[j].DetectedAt) })
	return out, nil
}

func (m *memGaps) ListUnresolved(ctx context.Context, assessmentID int64) ([]model.AssessmentGap, error) {
	all, err := m.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	var out []model.AssessmentGap
	for _, g := range all {
		if !g.Resolved {
			out = append(out, g)
		}
	}
	return out, nil
}

// --- Pauses -----------------------------------------------------------------

type memPauses memory

func (m *memPauses) CreateActive(ctx context.Context, pause *model.TimelinePauseEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pauses[pause.AssessmentID] {
		if p.Active {
			return ErrActivePauseExists
		}
	}
	pause.Active = true
	m.pauses[pause.AssessmentID] = append(m.pauses[pause.AssessmentID], deepCopy(pause))
	return nil
}

func (m *memPauses) GetActive(ctx context.Context, assessmentID int64) (*model.TimelinePauseEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.pauses[assessmentID] {
		if p.Active {
			return deepCopy(p), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memPauses) Close(ctx context.Context, pause *model.TimelinePauseEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.pauses[pause.AssessmentID] {
		if p.ID == pause.ID {
			pause.Active = false
			m.pauses[pause.AssessmentID][i] = deepCopy(pause)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memPauses) ListByAssessment(ctx context.Context, assessmentID int64) ([]model.TimelinePauseEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.TimelinePauseEvent
	for _, p := range m.pauses[assessmentID] {
		out = append(out, *deepCopy(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PausedAt.Before(out[j].PausedAt) })
	return out, nil
}

// --- Extensions -------------------------------------------------------------

type memExtensions memory

func (m *memExtensions) Create(ctx context.Context, ext *model.TimelineExtension) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extensions[ext.AssessmentID] = append(m.extensions[ext.AssessmentID], deepCopy(ext))
	return nil
}

func (m *memExtensions) CountByAssessment(ctx context.Context, assessmentID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.extensions[assessmentID]), nil
}

func (m *memExtensions) ListByAssessment(ctx context.Context, assessmentID int64) ([]model.TimelineExtension, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.TimelineExtension
	for _, e := range m.extensions[assessmentID] {
		out = append(out, *deepCopy(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}
