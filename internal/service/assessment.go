package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scalemap.app/engine/common/id"
	"scalemap.app/engine/common/logger"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/scoring"
	"scalemap.app/engine/internal/store"
	"scalemap.app/engine/internal/taxonomy"
)

// Delivery leads measured from intake. The clarification window closes six
// hours before the first deliverable so late answers cannot stall it.
const (
	executiveSummaryLead  = 24 * time.Hour
	detailedReportLead    = 48 * time.Hour
	implementationKitLead = 72 * time.Hour
	clarificationLead     = 18 * time.Hour

	clarificationMaxRequests = 3
	clarificationMaxExt      = 12 * time.Hour
)

// CreateAssessmentInput is the validated intake payload.
type CreateAssessmentInput struct {
	CompanyName  string
	ContactEmail string
	Industry     taxonomy.IndustryProfile
	Responses    map[taxonomy.Domain]model.DomainResponse
}

// AssessmentService owns intake and read paths for the aggregate root.
type AssessmentService interface {
	Create(ctx context.Context, input CreateAssessmentInput) (*model.Assessment, error)
	GetByID(ctx context.Context, id int64) (*model.Assessment, error)
	List(ctx context.Context, status model.AssessmentStatus, limit int) ([]model.Assessment, error)
	ListGaps(ctx context.Context, assessmentID int64, unresolvedOnly bool) ([]model.AssessmentGap, error)
	LatestAnalysis(ctx context.Context, assessmentID int64) (*model.GapAnalysis, error)
}

type assessmentService struct {
	stores *store.Stores
	now    func() time.Time
	logger *slog.Logger
}

func NewAssessmentService(stores *store.Stores, log *slog.Logger) AssessmentService {
	if log == nil {
		log = slog.Default()
	}
	return &assessmentService{
		stores: stores,
		now:    time.Now,
		logger: log.With(slog.String("component", "assessment")),
	}
}

func (s *assessmentService) Create(ctx context.Context, input CreateAssessmentInput) (*model.Assessment, error) {
	now := s.now()

	responses := input.Responses
	if responses == nil {
		responses = map[taxonomy.Domain]model.DomainResponse{}
	}
	for domain, dr := range responses {
		dr.CompletenessPercent = scoring.DomainCompleteness(domain, dr)
		responses[domain] = dr
	}

	a := &model.Assessment{
		ID:           id.New(),
		CompanyName:  input.CompanyName,
		ContactEmail: input.ContactEmail,
		Industry:     input.Industry,
		Responses:    responses,
		Schedule: model.DeliverySchedule{
			ExecutiveSummaryDue:  now.Add(executiveSummaryLead),
			DetailedReportDue:    now.Add(detailedReportLead),
			ImplementationKitDue: now.Add(implementationKitLead),
		},
		Clarification: model.ClarificationPolicy{
			Deadline:     now.Add(clarificationLead),
			MaxRequests:  clarificationMaxRequests,
			MaxExtension: clarificationMaxExt,
		},
		Status:    model.StatusTriaging,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}

	if err := s.stores.Assessments.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creating assessment: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{AssessmentID: logger.Ptr(a.ID)})
	s.logger.InfoContext(ctx, "assessment created",
		"company", a.CompanyName,
		"sector", string(a.Industry.Sector),
		"answered_domains", len(responses),
	)
	return a, nil
}

func (s *assessmentService) GetByID(ctx context.Context, id int64) (*model.Assessment, error) {
	return s.stores.Assessments.GetByID(ctx, id)
}

func (s *assessmentService) List(ctx context.Context, status model.AssessmentStatus, limit int) ([]model.Assessment, error) {
	return s.stores.Assessments.ListByStatus(ctx, status, limit)
}

func (s *assessmentService) ListGaps(ctx context.Context, assessmentID int64, unresolvedOnly bool) ([]model.AssessmentGap, error) {
	if _, err := s.stores.Assessments.GetByID(ctx, assessmentID); err != nil {
		return nil, err
	}
	if unresolvedOnly {
		return s.stores.Gaps.ListUnresolved(ctx, assessmentID)
	}
	return s.stores.Gaps.ListByAssessment(ctx, assessmentID)
}

func (s *assessmentService) LatestAnalysis(ctx context.Context, assessmentID int64) (*model.GapAnalysis, error) {
	if _, err := s.stores.Assessments.GetByID(ctx, assessmentID); err != nil {
		return nil, err
	}
	return s.stores.Analyses.GetLatest(ctx, assessmentID)
}
