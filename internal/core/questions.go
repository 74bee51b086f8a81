package core

import "fmt"

// QuestionKey identifies one evidence axis the interrogation asks about
type QuestionKey string

const (
	KeySenderKnown    QuestionKey = "senderKnown"
	KeyVolumeNormal   QuestionKey = "volumeNormal"
	KeyDomainFamiliar QuestionKey = "domainFamiliar"
)

// Question is one step of the interrogation. Prompt is plain text and must be
// escaped by whatever renders it.
type Question struct {
	Key                     QuestionKey `json:"key"`
	Prompt                  string      `json:"prompt"`
	RequiresEvidenceDisplay bool        `json:"requires_evidence_display"`
	Evidence                string      `json:"evidence,omitempty"`
}

// Answer is the user's response to a question
type Answer string

const (
	AnswerYes    Answer = "yes"
	AnswerNo     Answer = "no"
	AnswerUnsure Answer = "unsure"
)

// ParseAnswer accepts exactly the three canonical answer values
func ParseAnswer(s string) (Answer, error) {
	switch a := Answer(s); a {
	case AnswerYes, AnswerNo, AnswerUnsure:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAnswer, s)
	}
}

// BuildQuestions derives the fixed question sequence for a verdict.
// Order matters: sender, then recipient volume, then domain.
func BuildQuestions(attrs MessageAttributes, verdict Verdict, censor func(string) string) []Question {
	evidence := attrs.Body
	if censor != nil {
		evidence = censor(evidence)
	}

	return []Question{
		{
			Key:    KeySenderKnown,
			Prompt: fmt.Sprintf("Hey %s, do you usually get emails from %s?", attrs.ReceiverName, attrs.From),
		},
		{
			Key:                     KeyVolumeNormal,
			Prompt:                  fmt.Sprintf("Does it make sense for this message to be sent to %d people?", verdict.Features.NumRecipients),
			RequiresEvidenceDisplay: true,
			Evidence:                evidence,
		},
		{
			Key:    KeyDomainFamiliar,
			Prompt: fmt.Sprintf("Is the domain %s familiar to you?", verdict.Domain),
		},
	}
}

// AnswerSet records at most one answer per question, in answer order
type AnswerSet struct {
	order  []QuestionKey
	values map[QuestionKey]Answer
}

func newAnswerSet() AnswerSet {
	return AnswerSet{values: make(map[QuestionKey]Answer)}
}

// Get returns the answer recorded for key
func (s AnswerSet) Get(key QuestionKey) (Answer, bool) {
	a, ok := s.values[key]
	return a, ok
}

// Len returns the number of recorded answers
func (s AnswerSet) Len() int {
	return len(s.order)
}

// Keys returns the answered keys in the order they were answered
func (s AnswerSet) Keys() []QuestionKey {
	keys := make([]QuestionKey, len(s.order))
	copy(keys, s.order)
	return keys
}

// Map returns a copy of the answers keyed by question
func (s AnswerSet) Map() map[QuestionKey]Answer {
	out := make(map[QuestionKey]Answer, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *AnswerSet) record(key QuestionKey, a Answer) bool {
	if _, exists := s.values[key]; exists {
		return false
	}
	s.order = append(s.order, key)
	s.values[key] = a
	return true
}
