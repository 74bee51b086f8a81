package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the position of a session in the interrogation
type State int

const (
	StateAwaitingQuestion State = iota
	StateSummary
	StateResolved
)

// String returns the state name used in views and logs
func (s State) String() string {
	switch s {
	case StateAwaitingQuestion:
		return "awaiting_question"
	case StateSummary:
		return "summary"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Session is one interrogation, from a flagged verdict to resolution.
// A Session is not safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	attrs     MessageAttributes
	verdict   Verdict
	questions []Question
	answers   AnswerSet
	cursor    int
	state     State
	summary   []RiskStatement
}

// NewSession starts an interrogation for a flagged verdict.
// censor is applied to the body shown as evidence; nil shows it unchanged.
func NewSession(attrs MessageAttributes, verdict Verdict, censor func(string) string) (*Session, error) {
	if !verdict.Flagged() {
		return nil, fmt.Errorf("%w: label %d", ErrNotFlagged, verdict.Label)
	}

	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		attrs:     attrs,
		verdict:   verdict,
		questions: BuildQuestions(attrs, verdict, censor),
		answers:   newAnswerSet(),
		state:     StateAwaitingQuestion,
	}, nil
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// Cursor returns the index of the current question; it equals QuestionCount once all are answered
func (s *Session) Cursor() int {
	return s.cursor
}

// QuestionCount returns the number of questions in the sequence
func (s *Session) QuestionCount() int {
	return len(s.questions)
}

// Questions returns a copy of the question sequence
func (s *Session) Questions() []Question {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Attributes returns the message attributes the session was built from
func (s *Session) Attributes() MessageAttributes {
	return s.attrs
}

// Verdict returns the verdict the session was built from
func (s *Session) Verdict() Verdict {
	return s.verdict
}

// Answers returns the recorded answers
func (s *Session) Answers() AnswerSet {
	return s.answers
}

// Current returns the question awaiting an answer
func (s *Session) Current() (Question, bool) {
	if s.state != StateAwaitingQuestion {
		return Question{}, false
	}
	return s.questions[s.cursor], true
}

// Answer records the answer for the current question and advances the cursor.
// After the last question the summary is computed and the session enters StateSummary.
func (s *Session) Answer(a Answer) error {
	switch s.state {
	case StateResolved:
		return ErrSessionResolved
	case StateSummary:
		return ErrNotAwaitingAnswer
	}
	if _, err := ParseAnswer(string(a)); err != nil {
		return err
	}

	q := s.questions[s.cursor]
	if !s.answers.record(q.Key, a) {
		return fmt.Errorf("%w: %s already answered", ErrNotAwaitingAnswer, q.Key)
	}
	s.cursor++

	if s.cursor == len(s.questions) {
		s.summary = BuildSummary(s.attrs, s.verdict, s.answers)
		s.state = StateSummary
	}
	return nil
}

// Summary returns the risk statements once every question is answered
func (s *Session) Summary() ([]RiskStatement, error) {
	switch s.state {
	case StateResolved:
		return nil, ErrSessionResolved
	case StateAwaitingQuestion:
		return nil, ErrNotInSummary
	}
	out := make([]RiskStatement, len(s.summary))
	copy(out, s.summary)
	return out, nil
}

// Act applies a summary action. Verify and report leave the state unchanged;
// proceed resolves the session.
func (s *Session) Act(action Action) error {
	switch s.state {
	case StateResolved:
		return ErrSessionResolved
	case StateAwaitingQuestion:
		return ErrNotInSummary
	}

	switch action {
	case ActionVerify, ActionReport:
		return nil
	case ActionProceed:
		s.state = StateResolved
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}
