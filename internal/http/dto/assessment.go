package dto

import (
	"time"

	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/taxonomy"
)

type IndustryProfile struct {
	Sector         string `json:"sector" binding:"required"`
	RegulatoryTier string `json:"regulatory_tier" binding:"required,oneof=non-regulated lightly-regulated heavily-regulated"`
}

type ResponseValue struct {
	Text   string   `json:"text,omitempty"`
	Number *float64 `json:"number,omitempty"`
	List   []string `json:"list,omitempty"`
}

type QuestionResponse struct {
	QuestionID string        `json:"question_id" binding:"required"`
	Value      ResponseValue `json:"value"`
}

type CreateAssessmentRequest struct {
	CompanyName  string                        `json:"company_name" binding:"required,min=1,max=255"`
	ContactEmail string                        `json:"contact_email" binding:"required,email,max=255"`
	Industry     IndustryProfile               `json:"industry" binding:"required"`
	Responses    map[string][]QuestionResponse `json:"responses,omitempty"`
}

type DeliverySchedule struct {
	ExecutiveSummaryDue  time.Time `json:"executive_summary_due"`
	DetailedReportDue    time.Time `json:"detailed_report_due"`
	ImplementationKitDue time.Time `json:"implementation_kit_due"`
}

type AssessmentResponse struct {
	ID                    int64            `json:"id,string"`
	CompanyName           string           `json:"company_name"`
	ContactEmail          string           `json:"contact_email"`
	Industry              IndustryProfile  `json:"industry"`
	Status                string           `json:"status"`
	Schedule              DeliverySchedule `json:"schedule"`
	ClarificationDeadline time.Time        `json:"clarification_deadline"`
	LastAnalyzedAt        *time.Time       `json:"last_analyzed_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

func ToAssessmentResponse(a *model.Assessment) *AssessmentResponse {
	return &AssessmentResponse{
		ID:           a.ID,
		CompanyName:  a.CompanyName,
		ContactEmail: a.ContactEmail,
		Industry: IndustryProfile{
			Sector:         string(a.Industry.Sector),
			RegulatoryTier: string(a.Industry.RegulatoryTier),
		},
		Status: string(a.Status),
		Schedule: DeliverySchedule{
			ExecutiveSummaryDue:  a.Schedule.ExecutiveSummaryDue,
			DetailedReportDue:    a.Schedule.DetailedReportDue,
			ImplementationKitDue: a.Schedule.ImplementationKitDue,
		},
		ClarificationDeadline: a.Clarification.Deadline,
		LastAnalyzedAt:        a.LastAnalyzedAt,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

type AssessmentBrief struct {
	ID          int64  `json:"id,string"`
	CompanyName string `json:"company_name"`
	Status      string `json:"status"`
}

func ToAssessmentBrief(a model.Assessment) AssessmentBrief {
	return AssessmentBrief{
		ID:          a.ID,
		CompanyName: a.CompanyName,
		Status:      string(a.Status),
	}
}

type ListAssessmentsResponse struct {
	Assessments []AssessmentBrief `json:"assessments"`
}

// ParseResponses converts the wire responses into the domain-keyed map,
// validating every domain name on the way in.
func ParseResponses(in map[string][]QuestionResponse, now time.Time) (map[taxonomy.Domain]model.DomainResponse, error) {
	if len(in) == 0 {
		return map[taxonomy.Domain]model.DomainResponse{}, nil
	}
	out := make(map[taxonomy.Domain]model.DomainResponse, len(in))
	for name, answers := range in {
		domain, err := taxonomy.ParseDomain(name)
		if err != nil {
			return nil, err
		}
		dr := model.DomainResponse{Answers: make(map[string]model.QuestionResponse, len(answers))}
		for _, a := range answers {
			dr.Answers[a.QuestionID] = model.QuestionResponse{
				QuestionID: a.QuestionID,
				Value: model.ResponseValue{
					Text:   a.Value.Text,
					Number: a.Value.Number,
					List:   a.Value.List,
				},
				Timestamp: now,
			}
		}
		out[domain] = dr
	}
	return out, nil
}
