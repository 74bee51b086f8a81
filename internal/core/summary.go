package core

import "fmt"

// Severity grades a risk statement by the answer that produced it
type Severity string

const (
	SeverityStrong Severity = "strong"
	SeverityWeak   Severity = "weak"
)

// RiskStatement describes one negative or uncertain answer
type RiskStatement struct {
	Key      QuestionKey `json:"key"`
	Severity Severity    `json:"severity"`
	Text     string      `json:"text"`
}

// BuildSummary turns the recorded answers into statements, following question order.
// A yes produces nothing; there is no scoring.
func BuildSummary(attrs MessageAttributes, verdict Verdict, answers AnswerSet) []RiskStatement {
	statements := make([]RiskStatement, 0, 3)

	switch a, _ := answers.Get(KeySenderKnown); a {
	case AnswerNo:
		statements = append(statements, strong(KeySenderKnown, fmt.Sprintf("You don't usually get emails from %s", attrs.From)))
	case AnswerUnsure:
		statements = append(statements, weak(KeySenderKnown, fmt.Sprintf("Not sure about the sender %s", attrs.From)))
	}

	switch a, _ := answers.Get(KeyVolumeNormal); a {
	case AnswerNo:
		statements = append(statements, strong(KeyVolumeNormal, "This message was sent to many people unexpectedly"))
	case AnswerUnsure:
		statements = append(statements, weak(KeyVolumeNormal, "Not sure about the recipient volume"))
	}

	switch a, _ := answers.Get(KeyDomainFamiliar); a {
	case AnswerNo:
		statements = append(statements, strong(KeyDomainFamiliar, fmt.Sprintf("The domain %s is unfamiliar", verdict.Domain)))
	case AnswerUnsure:
		statements = append(statements, weak(KeyDomainFamiliar, fmt.Sprintf("Not sure about the domain %s", verdict.Domain)))
	}

	return statements
}

func strong(key QuestionKey, text string) RiskStatement {
	return RiskStatement{Key: key, Severity: SeverityStrong, Text: text}
}

func weak(key QuestionKey, text string) RiskStatement {
	return RiskStatement{Key: key, Severity: SeverityWeak, Text: text}
}
