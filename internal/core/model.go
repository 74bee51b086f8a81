package core

import (
	"encoding/json"
	"time"
)

// Placeholders substituted for message attributes missing from the host page
const (
	NoSender       = "(No sender)"
	NoRecipient    = "(No recipient)"
	NoDate         = "(No date)"
	NoSubject      = "no subject"
	NoBody         = "no body"
	NoReceiverName = "no name"
)

// MessageAttributes represents the message fields read from the host page
type MessageAttributes struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Date         string `json:"date"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	ReceiverName string `json:"receiver_name"`
}

// NewMessageAttributes builds a record where every empty field holds its placeholder
func NewMessageAttributes(from, to, date, subject, body, receiverName string) MessageAttributes {
	return MessageAttributes{
		From:         orPlaceholder(from, NoSender),
		To:           orPlaceholder(to, NoRecipient),
		Date:         orPlaceholder(date, NoDate),
		Subject:      orPlaceholder(subject, NoSubject),
		Body:         orPlaceholder(body, NoBody),
		ReceiverName: orPlaceholder(receiverName, NoReceiverName),
	}
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}

// Features holds the evidence the classifier reports alongside its label.
// Only NumRecipients drives a question; everything else is kept verbatim in Extra.
type Features struct {
	NumRecipients int
	Extra         map[string]json.RawMessage
}

// Verdict represents the classifier's decision for a single message
type Verdict struct {
	Label     int
	Domain    string
	Features  Features
	ModelUsed string
}

// Flagged reports whether the verdict asks for an interrogation
func (v *Verdict) Flagged() bool {
	return v != nil && v.Label == 1
}

// CacheEntry is a verdict remembered for a message fingerprint
type CacheEntry struct {
	Fingerprint string
	Verdict     Verdict
	CachedAt    time.Time
	ExpiresAt   time.Time
}

// Action is a remediation choice offered on the summary
type Action string

const (
	ActionVerify  Action = "verify"
	ActionReport  Action = "report"
	ActionProceed Action = "proceed"
)

// ParseAction converts user input into an Action
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionVerify, ActionReport, ActionProceed:
		return a, nil
	default:
		return "", ErrUnknownAction
	}
}

// Remediation is the notice handed to a Notifier when the user verifies or reports
type Remediation struct {
	Action      Action
	SessionID   string
	Attributes  MessageAttributes
	Domain      string
	Statements  []RiskStatement
	RequestedAt time.Time
}
