package timeline

import "errors"

// ErrAssessmentNotFound is the terminal not-found error for timeline
// operations.
var ErrAssessmentNotFound = errors.New("assessment not found")

// BusinessRuleError marks a rejection by a timeline business rule. Callers
// surface these distinctly from shape validation so a client can react to
// "max extensions reached" differently from a malformed request.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

var (
	ErrPauseActive = &BusinessRuleError{
		Rule:    "single-active-pause",
		Message: "Timeline is already paused for this assessment",
	}
	ErrClarificationClosed = &BusinessRuleError{
		Rule:    "clarification-window",
		Message: "Clarification deadline has passed",
	}
	ErrMaxExtensions = &BusinessRuleError{
		Rule:    "max-extensions",
		Message: "Maximum timeline extensions reached",
	}
	ErrExtensionTooLong = &BusinessRuleError{
		Rule:    "extension-cap",
		Message: "Requested extension exceeds the cap for its type",
	}
)

// IsBusinessRule reports whether err stems from a business rule rejection.
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}
