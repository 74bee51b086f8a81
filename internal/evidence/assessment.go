package evidence

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikey/phish-interrogator/internal/core"
)

// DefaultThreshold is the confidence at or above which an assessment flags a message
const DefaultThreshold = 0.83

const promptFormat = `You are a lateral phishing detection system. A colleague's mailbox may have been compromised
and used to send the following email. Decide whether it is a phishing attempt.
Respond with a JSON object containing:
- is_phishing: boolean (true if phishing, false if not)
- confidence: number between 0 and 1 (how confident you are that it is phishing)
- explanation: string (brief explanation of your decision)

Signals computed from the message:
- recipients: %d
- phishing wording: %t
- linked domains: %s

Email:
From: %s
To: %s
Date: %s
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`

// Assessment is the structured answer expected from an LLM
type Assessment struct {
	IsPhishing  bool    `json:"is_phishing"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// BuildPrompt formats the classification prompt; body is passed separately so callers can truncate it
func BuildPrompt(attrs core.MessageAttributes, ev Evidence, body string) string {
	domains := "none"
	if len(ev.Domains) > 0 {
		domains = strings.Join(ev.Domains, ", ")
	}
	return fmt.Sprintf(promptFormat,
		ev.NumRecipients, ev.HasPhishyKeywords, domains,
		attrs.From, attrs.To, attrs.Date, attrs.Subject, body)
}

// ParseAssessment reads an Assessment from model output, tolerating text around the JSON object
func ParseAssessment(responseText string) (*Assessment, error) {
	var a Assessment
	if err := json.Unmarshal([]byte(responseText), &a); err == nil {
		return &a, nil
	}

	start := strings.Index(responseText, "{")
	end := strings.LastIndex(responseText, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("failed to extract JSON from LLM response")
	}
	if err := json.Unmarshal([]byte(responseText[start:end+1]), &a); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return &a, nil
}

// Verdict converts an assessment into the classifier verdict shape
func (a *Assessment) Verdict(attrs core.MessageAttributes, ev Evidence, threshold float64, model string) *core.Verdict {
	label := 0
	if a.IsPhishing && a.Confidence >= threshold {
		label = 1
	}

	features := ev.Features()
	features.Extra["Confidence"] = json.RawMessage(fmt.Sprintf("%.4f", a.Confidence))

	return &core.Verdict{
		Label:     label,
		Domain:    ev.Domain(attrs),
		Features:  features,
		ModelUsed: model,
	}
}
