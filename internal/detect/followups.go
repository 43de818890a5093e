package detect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"scalemap.app/engine/common/llm"
	"scalemap.app/engine/common/logger"
	"scalemap.app/engine/internal/model"
	"scalemap.app/engine/internal/taxonomy"
)

type followUpReply struct {
	Questions []string `json:"questions" jsonschema_description:"2-3 specific follow-up questions that would make the answer actionable"`
}

var followUpSchema = llm.GenerateSchema[followUpReply]()

const followUpSystemPrompt = `You are reviewing answers from a business assessment questionnaire.
The answer you are given is too thin to analyze. Produce 2-3 concrete follow-up
questions that would draw out the missing specifics. Questions must be
answerable by a founder from memory, without preparing documents.`

// suggestFollowUps asks the completion service for follow-up questions on a
// shallow answer. A failed schema call retries once as plain text; only when
// both paths come back unusable does the static question set apply.
func (d *analyzer) suggestFollowUps(ctx context.Context, domain taxonomy.Domain, questionID, answer string) []string {
	if d.llm == nil {
		return taxonomy.StaticFollowUps(domain)
	}

	prompt := fmt.Sprintf("Domain: %s\nQuestion ID: %s\nAnswer given: %q", domain, questionID, answer)
	var reply followUpReply
	_, err := d.llm.Chat(ctx, llm.Request{
		SystemPrompt: followUpSystemPrompt,
		UserPrompt:   prompt,
		SchemaName:   "follow_up_questions",
		Schema:       followUpSchema,
		MaxTokens:    512,
		Temperature:  llm.Temp(0.3),
	}, &reply)
	if err != nil {
		d.logger.WarnContext(ctx, "structured follow-up generation failed, retrying as plain text",
			slog.String("domain", string(domain)),
			slog.String("question_id", questionID),
			slog.String("error", err.Error()))
		if questions := d.completeFollowUps(ctx, prompt); len(questions) > 0 {
			return questions
		}
		return taxonomy.StaticFollowUps(domain)
	}

	questions := make([]string, 0, len(reply.Questions))
	for _, q := range reply.Questions {
		if strings.TrimSpace(q) != "" {
			questions = append(questions, strings.TrimSpace(q))
		}
	}
	if len(questions) == 0 {
		return taxonomy.StaticFollowUps(domain)
	}
	return questions
}

// completeFollowUps is the plain-text fallback for providers that reject the
// JSON-schema response format. One question per line, no numbering.
func (d *analyzer) completeFollowUps(ctx context.Context, prompt string) []string {
	text, err := d.llm.Complete(ctx,
		followUpSystemPrompt+"\n\nRespond with one question per line and nothing else.\n\n"+prompt,
		llm.CompletionOptions{MaxTokens: 512, Temperature: llm.Temp(0.3)})
	if err != nil {
		d.logger.WarnContext(ctx, "plain-text follow-up generation failed, using static set",
			slog.String("error", err.Error()))
		return nil
	}
	return parseQuestionLines(text)
}

// parseQuestionLines splits a plain-text reply into questions, stripping the
// list markers models tend to add despite instructions.
func parseQuestionLines(text string) []string {
	var questions []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		if line != "" {
			questions = append(questions, line)
		}
	}
	return questions
}

type answerGapReply struct {
	Gaps []answerGap `json:"gaps" jsonschema_description:"Gaps implied by the answer; empty when the answer is sufficient"`
}

type answerGap struct {
	Category           string   `json:"category" jsonschema:"enum=critical,enum=important,enum=nice-to-have"`
	Description        string   `json:"description"`
	SuggestedQuestions []string `json:"suggested_questions"`
	ResolutionMinutes  int      `json:"resolution_minutes" jsonschema_description:"Estimated minutes the founder needs to close the gap"`
}

var answerGapSchema = llm.GenerateSchema[answerGapReply]()

const answerGapSystemPrompt = `You are a business analyst reviewing one questionnaire answer in depth.
Identify information gaps the answer leaves open: unstated assumptions, missing
numbers, unexplained dependencies. Report only gaps that would change the
analysis if filled. A complete answer yields an empty list.`

// analyzeAnswerDeep is the comprehensive-depth per-answer pass. Malformed or
// failed completions degrade to zero additional gaps.
func (d *analyzer) analyzeAnswerDeep(ctx context.Context, a *model.Assessment, domain taxonomy.Domain, questionID, answer string) []model.AssessmentGap {
	if d.llm == nil {
		return nil
	}

	prompt := fmt.Sprintf("Company: %s\nSector: %s\nDomain: %s\nQuestion ID: %s\nAnswer: %q",
		a.CompanyName, a.Industry.Sector, domain, questionID, logger.Truncate(answer, 2000))
	var reply answerGapReply
	_, err := d.llm.Chat(ctx, llm.Request{
		SystemPrompt: answerGapSystemPrompt,
		UserPrompt:   prompt,
		SchemaName:   "answer_gap_analysis",
		Schema:       answerGapSchema,
		MaxTokens:    1024,
		Temperature:  llm.Temp(0.2),
	}, &reply)
	if err != nil {
		d.logger.WarnContext(ctx, "deep answer analysis failed, continuing without",
			slog.String("domain", string(domain)),
			slog.String("question_id", questionID),
			slog.String("error", err.Error()))
		return nil
	}

	var gaps []model.AssessmentGap
	for _, g := range reply.Gaps {
		category := model.GapCategory(g.Category)
		if category.Rank() == 0 || strings.TrimSpace(g.Description) == "" {
			// Unusable entries are dropped, not fatal.
			continue
		}
		minutes := g.ResolutionMinutes
		if minutes <= 0 {
			minutes = estimateAIGapMinutes
		}
		gaps = append(gaps, model.AssessmentGap{
			AssessmentID:               a.ID,
			Domain:                     domain,
			Category:                   category,
			Source:                     model.SourceAIAnalysis,
			Description:                strings.TrimSpace(g.Description),
			SuggestedQuestions:         g.SuggestedQuestions,
			QuestionID:                 questionID,
			Priority:                   aiGapPriority(category),
			EstimatedResolutionMinutes: minutes,
			ImpactOnTimeline:           category == model.GapCritical,
		})
	}
	return gaps
}

func aiGapPriority(c model.GapCategory) int {
	switch c {
	case model.GapCritical:
		return 8
	case model.GapImportant:
		return 5
	}
	return 2
}
